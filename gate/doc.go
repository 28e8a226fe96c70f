// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

// Package gate implements the validity gate that decides whether an input
// belongs to an accepted domain before expensive analysis proceeds.
//
// A [Gate] binds a [Domain] predicate ("is a medical image", "is a
// medication name", "is a medical term") to a model and asks it for a strict
// JSON verdict. Every analysis runs the gate twice, with opposite failure
// policies:
//
//   - [Gate.Precheck] runs when the input is captured and fails OPEN: if the
//     validity call itself fails, the input is treated as tentatively valid
//     and the failure is logged, because inability to validate must not
//     block a flow whose terminal check still lies ahead.
//   - [Gate.Checkpoint] runs immediately before the analysis call and fails
//     CLOSED: a negative verdict or any failure to obtain one suppresses the
//     analysis and yields a [types.RejectionError] naming the accepted
//     input categories.
//
// The double run is intentional. The input may change between capture and
// submission, so no verdict is cached; an input identical to one already
// accepted in the same session is still validated independently.
package gate
