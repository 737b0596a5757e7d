package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/doc-assistant/constants"
	"github.com/joseph-ayodele/doc-assistant/internal/capability"
	"github.com/joseph-ayodele/doc-assistant/internal/common"
	"github.com/joseph-ayodele/doc-assistant/internal/interpret"
	"github.com/joseph-ayodele/doc-assistant/internal/ocr"
	"github.com/joseph-ayodele/doc-assistant/internal/prompt"
	"github.com/joseph-ayodele/doc-assistant/internal/session"
)

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, doc ocr.Document) (ocr.ExtractionResult, error) {
	f.calls++
	if f.err != nil {
		return ocr.ExtractionResult{}, f.err
	}
	return ocr.ExtractionResult{Text: f.text, Pages: 1, Method: "pdf-text"}, nil
}

type fakeChat struct {
	resp     capability.Response
	err      error
	model    string
	messages []prompt.Message
	calls    int
}

func (f *fakeChat) Complete(_ context.Context, model string, messages []prompt.Message) (capability.Response, error) {
	f.calls++
	f.model = model
	f.messages = messages
	return f.resp, f.err
}

type fakeSpeech struct {
	resp  capability.Response
	voice string
	text  string
}

func (f *fakeSpeech) Synthesize(_ context.Context, voice, text string) (capability.Response, error) {
	f.voice, f.text = voice, text
	return f.resp, nil
}

type fakeImager struct {
	resp capability.Response
}

func (f *fakeImager) Generate(context.Context, string) (capability.Response, error) {
	return f.resp, nil
}

func ok(content string) capability.Response {
	return capability.Response{Outcome: capability.Success, Status: 200, Content: []byte(content)}
}

func failure(status int, body string) capability.Response {
	return capability.Response{Outcome: capability.Failure, Status: status, Diagnostic: body}
}

type fixture struct {
	d      *Dispatcher
	ext    *fakeExtractor
	chat   *fakeChat
	speech *fakeSpeech
}

func newFixture(t *testing.T, text string, imager Imager) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := fixture{
		ext:    &fakeExtractor{text: text},
		chat:   &fakeChat{resp: ok("reply")},
		speech: &fakeSpeech{resp: capability.Response{Outcome: capability.Success, Status: 200, Content: []byte("RIFFdata"), ContentType: "audio/wav"}},
	}
	f.d = NewDispatcher(session.NewStore(time.Hour, logger), f.ext, f.chat, f.speech, imager, Options{
		AudioDir:   t.TempDir(),
		ChatModels: []string{"llama-3.1-8b-instant", "mixtral"},
	}, logger)
	return f
}

func (f fixture) load(t *testing.T) session.Session {
	t.Helper()
	sess, err := f.d.Load(context.Background(), ocr.Document{Name: "doc.pdf", Data: []byte("%PDF")})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return sess
}

func TestLoadRejectsUnsupportedExtension(t *testing.T) {
	f := newFixture(t, "text", nil)
	_, err := f.d.Load(context.Background(), ocr.Document{Name: "notes.docx"})
	if !errors.Is(err, common.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if f.ext.calls != 0 {
		t.Fatal("extractor should not run for unsupported files")
	}
}

func TestLoadExtractionError(t *testing.T) {
	f := newFixture(t, "", nil)
	f.ext.err = errors.New("broken pdf")
	_, err := f.d.Load(context.Background(), ocr.Document{Name: "doc.pdf"})
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "EXTRACTION_ERROR" {
		t.Fatalf("expected EXTRACTION_ERROR, got %v", err)
	}
}

func TestEmptyTextIsTerminal(t *testing.T) {
	f := newFixture(t, "  \n\t ", &fakeImager{resp: ok("png")})
	sess := f.load(t)
	if sess.State != session.Empty || sess.HasText() {
		t.Fatalf("expected empty session, got %v", sess.State)
	}

	ctx := context.Background()
	actions := map[string]func() error{
		"summarize": func() error { _, err := f.d.Summarize(ctx, sess.ID, ""); return err },
		"answer":    func() error { _, err := f.d.Answer(ctx, sess.ID, "", "why?"); return err },
		"visualize": func() error { _, err := f.d.Visualize(ctx, sess.ID, "", "chart"); return err },
		"speak":     func() error { _, err := f.d.Speak(ctx, sess.ID, "", ""); return err },
		"imagine":   func() error { _, err := f.d.Imagine(ctx, sess.ID, "a cat"); return err },
	}
	for name, run := range actions {
		if err := run(); !errors.Is(err, common.ErrNoText) {
			t.Errorf("%s: expected ErrNoText, got %v", name, err)
		}
	}
	if f.chat.calls != 0 {
		t.Fatalf("chat called %d times on an empty document", f.chat.calls)
	}
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t, "text", nil)
	if _, err := f.d.Summarize(context.Background(), "nope", ""); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSummarizeEachCallIsFresh(t *testing.T) {
	f := newFixture(t, "the document", nil)
	sess := f.load(t)

	for i := 0; i < 2; i++ {
		reply, err := f.d.Summarize(context.Background(), sess.ID, "unknown-model")
		if err != nil {
			t.Fatalf("summarize: %v", err)
		}
		if reply.Text != "reply" || reply.Failed() {
			t.Fatalf("unexpected reply %+v", reply)
		}
	}
	if f.chat.calls != 2 {
		t.Fatalf("chat calls = %d, want 2", f.chat.calls)
	}
	if f.chat.model != "llama-3.1-8b-instant" {
		t.Fatalf("unknown model should fall back to default, got %q", f.chat.model)
	}
	if f.chat.messages[0].Content != prompt.SummarizeSystem || f.chat.messages[1].Content != "the document" {
		t.Fatalf("unexpected messages %+v", f.chat.messages)
	}
	if f.ext.calls != 1 {
		t.Fatalf("extraction ran %d times, want once per upload", f.ext.calls)
	}

	got, _ := f.d.Session(sess.ID)
	if r, ok := got.Reply(session.TabSummary); !ok || r.Text != "reply" {
		t.Fatalf("summary not recorded: %+v", r)
	}
}

func TestAnswerUsesSelectedModel(t *testing.T) {
	f := newFixture(t, "doc", nil)
	sess := f.load(t)
	if _, err := f.d.Answer(context.Background(), sess.ID, "mixtral", "Who wrote it?"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if f.chat.model != "mixtral" {
		t.Fatalf("model = %q", f.chat.model)
	}
	if !strings.HasSuffix(f.chat.messages[1].Content, "Question: Who wrote it?") {
		t.Fatalf("question missing from %q", f.chat.messages[1].Content)
	}
}

func TestAnswerRequiresQuestion(t *testing.T) {
	f := newFixture(t, "doc", nil)
	sess := f.load(t)
	if _, err := f.d.Answer(context.Background(), sess.ID, "", "  "); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestChatFailureIsShownInline(t *testing.T) {
	f := newFixture(t, "doc", nil)
	f.chat.resp = failure(401, `{"error":"bad key"}`)
	sess := f.load(t)

	reply, err := f.d.Summarize(context.Background(), sess.ID, "")
	if err != nil {
		t.Fatalf("failure should not be an error: %v", err)
	}
	if reply.Error != `Error from Groq: {"error":"bad key"}` {
		t.Fatalf("diagnostic = %q", reply.Error)
	}
}

func TestChatTransportError(t *testing.T) {
	f := newFixture(t, "doc", nil)
	f.chat.err = errors.New("dial tcp: refused")
	sess := f.load(t)

	_, err := f.d.Summarize(context.Background(), sess.ID, "")
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "CAPABILITY_ERROR" {
		t.Fatalf("expected CAPABILITY_ERROR, got %v", err)
	}
}

func TestVisualize(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		reply       string
		wantChart   bool
		wantSystem  string
	}{
		{"chart", "Draw a Chart of costs", `{"labels":["A","B"],"values":[1,2],"chart_type":"pie"}`, true, prompt.ChartSystem},
		{"table", "Make a table", "| A | B |\n|---|---|\n|1|2|", false, prompt.TableSystem},
		{"chart fallback", "chart please", "sorry, no data", false, prompt.ChartSystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "doc", nil)
			f.chat.resp = ok(tt.reply)
			sess := f.load(t)

			reply, err := f.d.Visualize(context.Background(), sess.ID, "", tt.instruction)
			if err != nil {
				t.Fatalf("visualize: %v", err)
			}
			if f.chat.messages[0].Content != tt.wantSystem {
				t.Fatalf("system prompt = %q", f.chat.messages[0].Content)
			}
			if reply.Visual == nil || reply.Visual.IsChart() != tt.wantChart {
				t.Fatalf("visual = %+v", reply.Visual)
			}
			if tt.wantChart {
				c := reply.Visual.Chart
				if c.ChartType != interpret.Pie || len(c.Labels) != 2 || len(c.Values) != 2 {
					t.Fatalf("chart = %+v", c)
				}
			} else if reply.Visual.RawText != tt.reply {
				t.Fatalf("raw text = %q", reply.Visual.RawText)
			}
		})
	}
}

func TestSpeakDefaultsToPrefillAndReplacesAudio(t *testing.T) {
	long := strings.Repeat("é", constants.SpeechPrefillChars+20)
	f := newFixture(t, long, nil)
	sess := f.load(t)

	if _, err := f.d.Speak(context.Background(), sess.ID, "bogus-voice", ""); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if got := len([]rune(f.speech.text)); got != constants.SpeechPrefillChars {
		t.Fatalf("prefill runes = %d", got)
	}
	if f.speech.voice != constants.DefaultVoice {
		t.Fatalf("voice = %q", f.speech.voice)
	}
	first, _ := f.d.Session(sess.ID)
	data, err := os.ReadFile(first.AudioPath)
	if err != nil || string(data) != "RIFFdata" {
		t.Fatalf("audio file: %q %v", data, err)
	}
	if !strings.HasSuffix(first.AudioPath, ".wav") {
		t.Fatalf("audio path %q", first.AudioPath)
	}

	if _, err := f.d.Speak(context.Background(), sess.ID, "aura-luna-en", "custom text"); err != nil {
		t.Fatalf("speak again: %v", err)
	}
	if f.speech.text != "custom text" || f.speech.voice != "aura-luna-en" {
		t.Fatalf("speech got %q/%q", f.speech.text, f.speech.voice)
	}
	second, _ := f.d.Session(sess.ID)
	if second.AudioPath == first.AudioPath {
		t.Fatal("expected a new audio file")
	}
	if _, err := os.Stat(first.AudioPath); err != nil {
		t.Fatalf("previous audio must outlive the replacement while it may be downloading: %v", err)
	}
	if len(second.StaleAudio) != 1 || second.StaleAudio[0] != first.AudioPath {
		t.Fatalf("stale audio = %v", second.StaleAudio)
	}
}

func TestSpeakFailure(t *testing.T) {
	f := newFixture(t, "doc", nil)
	f.speech.resp = failure(400, "bad voice")
	sess := f.load(t)

	reply, err := f.d.Speak(context.Background(), sess.ID, "", "hi")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if reply.Error != "Deepgram error: bad voice" {
		t.Fatalf("diagnostic = %q", reply.Error)
	}
	got, _ := f.d.Session(sess.ID)
	if got.AudioPath != "" {
		t.Fatal("failed synthesis should not store audio")
	}
}

func TestImagine(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, "doc", nil)
		sess := f.load(t)
		if f.d.ImageEnabled() {
			t.Fatal("image should be disabled")
		}
		if _, err := f.d.Imagine(context.Background(), sess.ID, "a cat"); !errors.Is(err, common.ErrCapabilityDisabled) {
			t.Fatalf("expected ErrCapabilityDisabled, got %v", err)
		}
	})
	t.Run("success", func(t *testing.T) {
		resp := ok("\x89PNG")
		resp.ContentType = "image/png"
		f := newFixture(t, "doc", &fakeImager{resp: resp})
		sess := f.load(t)
		if _, err := f.d.Imagine(context.Background(), sess.ID, "a cat"); err != nil {
			t.Fatalf("imagine: %v", err)
		}
		got, _ := f.d.Session(sess.ID)
		if string(got.Image) != "\x89PNG" || got.ImageType != "image/png" {
			t.Fatalf("image not stored: %q %q", got.Image, got.ImageType)
		}
	})
	t.Run("failure", func(t *testing.T) {
		f := newFixture(t, "doc", &fakeImager{resp: failure(503, "model loading")})
		sess := f.load(t)
		reply, err := f.d.Imagine(context.Background(), sess.ID, "a cat")
		if err != nil {
			t.Fatalf("imagine: %v", err)
		}
		if reply.Error != "Image generation error: model loading" {
			t.Fatalf("diagnostic = %q", reply.Error)
		}
	})
}

func TestSpeechPrefill(t *testing.T) {
	if got := SpeechPrefill("short"); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := SpeechPrefill(strings.Repeat("a", 600)); len(got) != 500 {
		t.Fatalf("len = %d", len(got))
	}
}
