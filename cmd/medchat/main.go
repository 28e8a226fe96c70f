// Copyright 2025 The Go MedKit Authors
// SPDX-License-Identifier: Apache-2.0

// Command medchat is an interactive terminal client for the medkit-go
// stack: a streaming health-information chat with slash commands for the
// image, medication, drug-interaction, and medical-term analyzers.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/go-medkit/medkit-go/analyze"
	"github.com/go-medkit/medkit-go/artifact"
	"github.com/go-medkit/medkit-go/model"
	"github.com/go-medkit/medkit-go/pkg/logging"
	"github.com/go-medkit/medkit-go/session"
	"github.com/go-medkit/medkit-go/speech"
	"github.com/go-medkit/medkit-go/types"
)

var (
	promptColor    = color.New(color.FgGreen, color.Bold)
	assistantColor = color.New(color.FgCyan)
	noticeColor    = color.New(color.FgYellow)
	errorColor     = color.New(color.FgRed)
)

func main() {
	configFile := flag.String("config", "", "path to a medchat YAML config file")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*configFile, logger); err != nil {
		errorColor.Fprintln(os.Stderr, "medchat:", err)
		os.Exit(1)
	}
}

func run(configFile string, logger *slog.Logger) error {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), logger))
	defer cancel()

	m, err := model.NewLLM(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return fmt.Errorf("resolve model %q: %w", cfg.Model, err)
	}

	var attachments types.AttachmentService
	if cfg.Storage.Bucket != "" {
		attachments, err = artifact.NewGCSService(ctx, cfg.Storage.Bucket)
		if err != nil {
			return fmt.Errorf("open attachment bucket %q: %w", cfg.Storage.Bucket, err)
		}
	} else {
		attachments = artifact.NewInMemoryService()
	}
	defer attachments.Close()

	c := &chat{
		cfg:         cfg,
		model:       m,
		logger:      logger,
		attachments: attachments,
		printer:     &streamPrinter{out: assistantColor},
		images:      analyze.NewImageAnalyzer(m, analyze.WithLogger(logger)),
		medicines:   analyze.NewMedicineAnalyzer(m, analyze.WithLogger(logger)),
		meds:        analyze.NewInteractionChecker(m, analyze.WithLogger(logger)),
		terms:       analyze.NewTermExplainer(m, analyze.WithLogger(logger)),
	}
	c.newSession()

	// Ctrl-C cancels the in-flight response; a second one (or one while
	// idle) quits.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigs {
			if !c.session.Cancel() {
				fmt.Println()
				cancel()
				os.Exit(0)
			}
		}
	}()

	fmt.Printf("medchat — model %s. Type a question, or /help for commands.\n\n", cfg.Model)
	return c.repl(ctx)
}

// chat wires one model into a session and the analyzers behind the slash
// commands.
type chat struct {
	cfg         *Config
	model       types.Model
	logger      *slog.Logger
	attachments types.AttachmentService
	printer     *streamPrinter

	session *session.Session

	images    *analyze.ImageAnalyzer
	medicines *analyze.MedicineAnalyzer
	meds      *analyze.InteractionChecker
	terms     *analyze.TermExplainer

	transcriber *speech.Transcriber
}

func (c *chat) newSession() {
	if c.session != nil {
		c.session.Reset()
	}
	c.session = session.NewSession(
		c.cfg.AppName, c.cfg.UserID, uuid.NewString(), c.model,
		session.WithLogger(c.logger),
		session.WithOnUpdate(c.printer.update),
	)
}

func (c *chat) repl(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		promptColor.Print("you ❯ ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := c.command(ctx, line); quit {
				return nil
			}
			continue
		}

		c.send(ctx, line)
	}
}

// command dispatches one slash command. It reports whether the REPL should
// exit.
func (c *chat) command(ctx context.Context, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		c.help()

	case "/new":
		c.newSession()
		fmt.Println("Started a new conversation.")

	case "/reset":
		c.session.Reset()
		c.meds.Clear()
		fmt.Println("Cleared the conversation and the medication list.")

	case "/cancel":
		if !c.session.Cancel() {
			noticeColor.Println("Nothing to cancel.")
		}

	case "/history":
		c.history()

	case "/edit":
		c.edit(ctx, rest)

	case "/meds":
		c.medsCommand(ctx, rest)

	case "/medicine":
		c.medicine(ctx, rest)

	case "/term":
		c.term(ctx, rest)

	case "/image":
		c.image(ctx, rest)

	case "/voice":
		c.voice(ctx, rest)

	default:
		noticeColor.Printf("Unknown command %s. Try /help.\n", cmd)
	}

	return false
}

func (c *chat) help() {
	fmt.Print(`Commands:
  /new                     start a fresh conversation
  /edit <n> <text>         rewrite your n-th message and regenerate from there
  /cancel                  stop the in-flight response
  /history                 show the transcript with message numbers
  /meds add <name>         add a medication to the interaction list
  /meds rm <name>          remove a medication
  /meds list               show the medication list
  /meds check              run a drug-interaction check
  /medicine <name>         look up one medication
  /term <term>             explain a medical term
  /image <path> [note]     analyze a medical image
  /voice <path>            transcribe an audio file and send it
  /reset                   clear the conversation and medication list
  /quit                    exit
`)
}

func (c *chat) send(ctx context.Context, text string) {
	h, err := c.session.Send(ctx, text)
	if err != nil {
		c.reportSessionError(err)
		return
	}
	c.await(ctx, h)
}

func (c *chat) edit(ctx context.Context, rest string) {
	numText, newContent, _ := strings.Cut(rest, " ")
	newContent = strings.TrimSpace(newContent)
	n, err := strconv.Atoi(numText)
	if err != nil || newContent == "" {
		noticeColor.Println("Usage: /edit <message number> <new text> (numbers per /history)")
		return
	}

	msg := c.userMessage(n)
	if msg == nil {
		noticeColor.Printf("No user message #%d.\n", n)
		return
	}

	h, err := c.session.EditMessage(ctx, msg.ID, newContent)
	if err != nil {
		c.reportSessionError(err)
		return
	}
	c.await(ctx, h)
}

// userMessage returns the n-th user message of the transcript, 1-based.
func (c *chat) userMessage(n int) *types.Message {
	count := 0
	for _, msg := range c.session.Messages() {
		if msg.Role != types.RoleUser {
			continue
		}
		count++
		if count == n {
			return msg
		}
	}
	return nil
}

func (c *chat) await(ctx context.Context, h *session.Handle) {
	err := h.Wait(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		noticeColor.Println("(cancelled)")
	default:
		errorColor.Println(session.FailureNotice)
		c.logger.WarnContext(ctx, "response failed", slog.String("error", err.Error()))
	}
}

func (c *chat) history() {
	userIndex := 0
	for _, msg := range c.session.Messages() {
		switch msg.Role {
		case types.RoleUser:
			userIndex++
			promptColor.Printf("[%d] you: ", userIndex)
			fmt.Println(msg.Content)
		case types.RoleAssistant:
			assistantColor.Print("    assistant: ")
			fmt.Println(msg.Content)
		}
	}
}

func (c *chat) medsCommand(ctx context.Context, rest string) {
	sub, arg, _ := strings.Cut(rest, " ")
	arg = strings.TrimSpace(arg)

	switch sub {
	case "add":
		if err := c.meds.Add(ctx, arg); err != nil {
			c.reportAnalysisError(err)
			return
		}
		fmt.Printf("Added. Medications: %s\n", strings.Join(c.meds.Medications(), ", "))

	case "rm":
		if !c.meds.Remove(arg) {
			noticeColor.Printf("%q is not on the list.\n", arg)
			return
		}
		fmt.Println("Removed.")

	case "list":
		meds := c.meds.Medications()
		if len(meds) == 0 {
			fmt.Println("No medications added yet.")
			return
		}
		for _, m := range meds {
			fmt.Println(" -", m)
		}

	case "check":
		report, err := c.meds.Check(ctx)
		if err != nil {
			c.reportAnalysisError(err)
			return
		}
		assistantColor.Println(report)

	case "clear":
		c.meds.Clear()
		fmt.Println("Medication list cleared.")

	default:
		noticeColor.Println("Usage: /meds add <name> | rm <name> | list | check | clear")
	}
}

func (c *chat) medicine(ctx context.Context, name string) {
	if name == "" {
		noticeColor.Println("Usage: /medicine <name>")
		return
	}
	record, err := c.medicines.Analyze(ctx, name)
	if err != nil {
		c.reportAnalysisError(err)
		return
	}
	printMedicine(record)
}

func (c *chat) term(ctx context.Context, term string) {
	if term == "" {
		noticeColor.Println("Usage: /term <term>")
		return
	}
	explanation, err := c.terms.Explain(ctx, term)
	if err != nil {
		c.reportAnalysisError(err)
		return
	}
	assistantColor.Println(explanation)
}

func (c *chat) image(ctx context.Context, rest string) {
	path, note, _ := strings.Cut(rest, " ")
	if path == "" {
		noticeColor.Println("Usage: /image <path> [note]")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		errorColor.Println(err)
		return
	}
	input := types.ImageInput(data, imageMIMEType(path))

	name := filepath.Base(path)
	if _, err := c.attachments.SaveAttachment(ctx, c.cfg.AppName, c.cfg.UserID, c.session.ID(), name, input); err != nil {
		c.logger.WarnContext(ctx, "save attachment", slog.String("name", name), slog.String("error", err.Error()))
	}

	record, err := c.images.Analyze(ctx, input, strings.TrimSpace(note))
	if err != nil {
		c.reportAnalysisError(err)
		return
	}
	printImageAnalysis(record)
}

func (c *chat) voice(ctx context.Context, path string) {
	if path == "" {
		noticeColor.Println("Usage: /voice <path to LINEAR16 16kHz audio>")
		return
	}

	if c.transcriber == nil {
		t, err := speech.NewTranscriber(ctx,
			speech.WithLanguage(c.cfg.Speech.Language),
			speech.WithLogger(c.logger),
		)
		if err != nil {
			errorColor.Println(err)
			return
		}
		c.transcriber = t
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		errorColor.Println(err)
		return
	}

	text, err := c.transcriber.Transcribe(ctx, audio, c.cfg.Speech.Language)
	if err != nil {
		errorColor.Println(err)
		return
	}
	if strings.TrimSpace(text) == "" {
		noticeColor.Println("Nothing recognized.")
		return
	}

	fmt.Printf("heard: %s\n", text)
	c.send(ctx, text)
}

func (c *chat) reportSessionError(err error) {
	switch {
	case errors.Is(err, types.ErrBusy):
		noticeColor.Println("A response is still in progress — /cancel it first.")
	case errors.Is(err, types.ErrEmptyMessage):
		noticeColor.Println("Type a message first.")
	default:
		errorColor.Println(err)
	}
}

func (c *chat) reportAnalysisError(err error) {
	var rejection *types.RejectionError
	var duplicate *types.DuplicateError
	switch {
	case errors.As(err, &rejection):
		noticeColor.Println(rejection.Message)
	case errors.As(err, &duplicate):
		noticeColor.Printf("%s is already on the list.\n", duplicate.Item)
	case errors.Is(err, types.ErrTooFewMedications):
		noticeColor.Println("Add at least two medications before checking.")
	case errors.Is(err, types.ErrEmptyMessage):
		noticeColor.Println("Nothing to analyze.")
	default:
		errorColor.Println("Analysis failed, please try again.")
		c.logger.Warn("analysis failed", slog.String("error", err.Error()))
	}
}

func printImageAnalysis(r *types.ImageAnalysis) {
	assistantColor.Println("Assessment:", r.Assessment)
	if len(r.Findings) > 0 {
		fmt.Println("Findings:")
		for _, f := range r.Findings {
			fmt.Println(" -", f)
		}
	}
	if len(r.Recommendations) > 0 {
		fmt.Println("Recommendations:")
		for _, rec := range r.Recommendations {
			fmt.Println(" -", rec)
		}
	}
	fmt.Printf("Severity: %s, urgency: %s, confidence: %d%%\n",
		r.Severity, r.UrgencyLevel, r.Confidence)
}

func printMedicine(r *types.MedicineAnalysis) {
	assistantColor.Println(r.Name)
	if len(r.ActiveIngredients) > 0 {
		fmt.Println("Active ingredients:", strings.Join(r.ActiveIngredients, ", "))
	}
	if len(r.Uses) > 0 {
		fmt.Println("Uses:")
		for _, u := range r.Uses {
			fmt.Println(" -", u)
		}
	}
	if r.Dosage != "" {
		fmt.Println("Dosage:", r.Dosage)
	}
	if len(r.SideEffects) > 0 {
		fmt.Println("Side effects:")
		for _, s := range r.SideEffects {
			fmt.Println(" -", s)
		}
	}
	if len(r.Warnings) > 0 {
		noticeColor.Println("Warnings:")
		for _, w := range r.Warnings {
			noticeColor.Println(" -", w)
		}
	}
	fmt.Printf("Status: %s, confidence: %d%%\n", r.Status, r.Confidence)
}

func imageMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// streamPrinter renders transcript updates as incremental terminal output:
// each snapshot prints only the content the streaming message gained since
// the previous one.
type streamPrinter struct {
	mu      sync.Mutex
	id      string
	printed int
	out     *color.Color
}

func (p *streamPrinter) update(transcript types.Transcript) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := transcript.StreamingMessage()
	if msg == nil {
		if p.id == "" {
			return
		}
		// The stream settled: flush whatever the final content added
		// (cancellation notices land here too).
		if final := transcript.Find(p.id); final != nil && len(final.Content) > p.printed {
			p.out.Print(final.Content[p.printed:])
		}
		fmt.Println()
		p.id, p.printed = "", 0
		return
	}

	if msg.ID != p.id {
		p.id, p.printed = msg.ID, 0
	}
	if len(msg.Content) > p.printed {
		p.out.Print(msg.Content[p.printed:])
		p.printed = len(msg.Content)
	}
}
