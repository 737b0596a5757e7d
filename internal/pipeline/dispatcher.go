// Package pipeline dispatches user actions on an uploaded document to the
// extraction engine and the hosted capabilities.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/joseph-ayodele/doc-assistant/constants"
	"github.com/joseph-ayodele/doc-assistant/internal/capability"
	"github.com/joseph-ayodele/doc-assistant/internal/common"
	"github.com/joseph-ayodele/doc-assistant/internal/ocr"
	"github.com/joseph-ayodele/doc-assistant/internal/prompt"
	"github.com/joseph-ayodele/doc-assistant/internal/session"
)

// TextExtractor turns an uploaded document into text.
type TextExtractor interface {
	Extract(ctx context.Context, doc ocr.Document) (ocr.ExtractionResult, error)
}

type Chat interface {
	Complete(ctx context.Context, model string, messages []prompt.Message) (capability.Response, error)
}

type Speech interface {
	Synthesize(ctx context.Context, voice, text string) (capability.Response, error)
}

type Imager interface {
	Generate(ctx context.Context, prompt string) (capability.Response, error)
}

// Diagnostic prefixes shown in front of a provider's failure body.
const (
	ChatErrorPrefix   = "Error from Groq: "
	SpeechErrorPrefix = "Deepgram error: "
	ImageErrorPrefix  = "Image generation error: "
)

type Options struct {
	AudioDir     string
	ChatModels   []string
	DefaultModel string
	Voices       []string
	DefaultVoice string
}

// Dispatcher owns the sessions and moves each one through
// NoDocument -> DocumentLoaded -> per-tab interactions. Every action is a
// fresh capability call.
type Dispatcher struct {
	store     *session.Store
	extractor TextExtractor
	chat      Chat
	speech    Speech
	imager    Imager
	opts      Options
	logger    *slog.Logger
}

// NewDispatcher wires the collaborators. imager may be nil, which disables
// image generation.
func NewDispatcher(store *session.Store, extractor TextExtractor, chat Chat, speech Speech, imager Imager, opts Options, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = constants.DefaultChatModel
	}
	if len(opts.ChatModels) == 0 {
		opts.ChatModels = []string{opts.DefaultModel}
	}
	if opts.DefaultVoice == "" {
		opts.DefaultVoice = constants.DefaultVoice
	}
	if len(opts.Voices) == 0 {
		opts.Voices = slices.Clone(constants.Voices)
	}
	return &Dispatcher{
		store:     store,
		extractor: extractor,
		chat:      chat,
		speech:    speech,
		imager:    imager,
		opts:      opts,
		logger:    logger,
	}
}

func (d *Dispatcher) ImageEnabled() bool { return d.imager != nil }

func (d *Dispatcher) Models() []string { return slices.Clone(d.opts.ChatModels) }
func (d *Dispatcher) Voices() []string { return slices.Clone(d.opts.Voices) }

// Model returns m when it is on the allow-list, the default otherwise.
func (d *Dispatcher) Model(m string) string {
	if slices.Contains(d.opts.ChatModels, m) {
		return m
	}
	return d.opts.DefaultModel
}

// Voice returns v when it is on the allow-list, the default otherwise.
func (d *Dispatcher) Voice(v string) string {
	if slices.Contains(d.opts.Voices, v) {
		return v
	}
	return d.opts.DefaultVoice
}

// Session returns a snapshot of session id.
func (d *Dispatcher) Session(id string) (session.Session, error) {
	return d.store.Get(id)
}

// Load extracts doc once and opens a session for it. Text that is empty after
// trimming yields an Empty session on which no action can run.
func (d *Dispatcher) Load(ctx context.Context, doc ocr.Document) (session.Session, error) {
	if doc.Ext == "" {
		doc.Ext = constants.ExtFromFilename(doc.Name)
	}
	doc.Ext = constants.NormalizeExt(doc.Ext)
	if !constants.IsAllowedExt(doc.Ext) {
		return session.Session{}, common.NewAppError("EXTRACTION_ERROR",
			fmt.Sprintf("file type %q is not supported; upload a pdf, png, jpg or jpeg", doc.Ext), common.ErrUnsupported)
	}

	d.store.Prune()

	res, err := d.extractor.Extract(ctx, doc)
	if err != nil {
		d.logger.Error("dispatch.extract.failed", "name", doc.Name, "ext", doc.Ext, "err", err)
		return session.Session{}, common.NewAppError("EXTRACTION_ERROR", "could not extract text from "+doc.Name, err)
	}

	state := session.Loaded
	if strings.TrimSpace(res.Text) == "" {
		state = session.Empty
	}
	sess := d.store.Create(session.Session{
		Filename: doc.Name,
		Format:   constants.MapExtToFormat(doc.Ext),
		Text:     res.Text,
		Method:   res.Method,
		Warnings: res.Warnings,
		Degraded: res.Degraded,
		State:    state,
	})

	d.logger.Info("dispatch.loaded",
		"session_id", sess.ID,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"degraded", res.Degraded,
		"state", state.String(),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return sess, nil
}

// loaded fetches a session that accepts actions.
func (d *Dispatcher) loaded(id string) (session.Session, error) {
	sess, err := d.store.Get(id)
	if err != nil {
		return sess, err
	}
	if !sess.HasText() {
		return sess, common.NewAppError("SESSION_ERROR", "no text detected in "+sess.Filename, common.ErrNoText)
	}
	return sess, nil
}

func (d *Dispatcher) record(id string, tab session.Tab, reply session.Reply) (session.Reply, error) {
	reply.At = time.Now()
	_, err := d.store.Update(id, func(s *session.Session) {
		s.Replies[tab] = reply
	})
	return reply, err
}

func capabilityError(c constants.Capability, err error) error {
	return common.NewAppError("CAPABILITY_ERROR", string(c)+" request failed", err)
}

// SpeechPrefill is the first SpeechPrefillChars characters of text.
func SpeechPrefill(text string) string {
	r := []rune(text)
	if len(r) <= constants.SpeechPrefillChars {
		return text
	}
	return string(r[:constants.SpeechPrefillChars])
}
