package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/doc-assistant/internal/chart"
	"github.com/joseph-ayodele/doc-assistant/internal/common"
	"github.com/joseph-ayodele/doc-assistant/internal/ocr"
	"github.com/joseph-ayodele/doc-assistant/internal/session"
)

const maxInputChars = 8000

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	p := s.basePage("Document Assistant", r.URL.Query())
	s.render(w, http.StatusOK, "index.html", p)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		s.fail(w, r, uploadError(err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, common.InvalidInputError("choose a file to upload"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, uploadError(err))
		return
	}
	if err := common.ValidateAndReturnError(common.NewValidator().
		Field("file", data, common.Required).
		Field("filename", header.Filename, common.Required, common.MaxLength(255))); err != nil {
		s.fail(w, r, err)
		return
	}

	sess, err := s.dispatch.Load(r.Context(), ocr.Document{Name: header.Filename, Data: data})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, sessionURL(sess.ID, r.FormValue("model"), r.FormValue("voice"), "text"), http.StatusSeeOther)
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return common.NewAppError("INVALID_INPUT", fmt.Sprintf("file is larger than %d MB", maxErr.Limit>>20), err)
	}
	return common.NewAppError("INVALID_INPUT", "could not read upload: "+err.Error(), common.ErrInvalidInput)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	if err := common.ValidateAndReturnError(common.NewValidator().Field("tab", q.Get("tab"), common.OneOf(tabs))); err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.dispatch.Session(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "session.html", s.sessionPage(sess, q))
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "summary", func(id string) (session.Reply, error) {
		return s.dispatch.Summarize(r.Context(), id, r.FormValue("model"))
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "answer", func(id string) (session.Reply, error) {
		q := r.FormValue("question")
		if err := validateText("question", q); err != nil {
			return session.Reply{}, err
		}
		return s.dispatch.Answer(r.Context(), id, r.FormValue("model"), q)
	})
}

func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "visualize", func(id string) (session.Reply, error) {
		in := r.FormValue("instruction")
		if err := validateText("instruction", in); err != nil {
			return session.Reply{}, err
		}
		return s.dispatch.Visualize(r.Context(), id, r.FormValue("model"), in)
	})
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "speech", func(id string) (session.Reply, error) {
		text := r.FormValue("text")
		if err := common.ValidateAndReturnError(common.NewValidator().Field("text", text, common.MaxLength(maxInputChars))); err != nil {
			return session.Reply{}, err
		}
		return s.dispatch.Speak(r.Context(), id, r.FormValue("voice"), text)
	})
}

func (s *Server) handleImagine(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "image", func(id string) (session.Reply, error) {
		p := r.FormValue("prompt")
		if err := validateText("prompt", p); err != nil {
			return session.Reply{}, err
		}
		return s.dispatch.Imagine(r.Context(), id, p)
	})
}

// action runs fn for the session in the path and redirects back to its tab.
// Capability failures are part of the reply and still redirect.
func (s *Server) action(w http.ResponseWriter, r *http.Request, tab string, fn func(id string) (session.Reply, error)) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctx := common.WithSessionID(r.Context(), id)
	r = r.WithContext(ctx)
	if _, err := fn(id); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, sessionURL(id, r.FormValue("model"), r.FormValue("voice"), tab), http.StatusSeeOther)
}

func validateText(field, value string) error {
	return common.ValidateAndReturnError(common.NewValidator().
		Field(field, value, common.Required, common.MaxLength(maxInputChars)))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	reply, found := sess.Reply(session.TabVisual)
	if !found || reply.Visual == nil || !reply.Visual.IsChart() {
		s.fail(w, r, common.NotFoundError("no chart for this document yet"))
		return
	}
	var buf bytes.Buffer
	if err := chart.RenderPNG(*reply.Visual.Chart, &buf); err != nil {
		s.fail(w, r, common.WrapError(err, "render chart"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	reply, found := sess.Reply(session.TabVisual)
	if !found || reply.Visual == nil {
		s.fail(w, r, common.NotFoundError("no table or chart for this document yet"))
		return
	}
	data, err := s.exporter.ResultXLSX(*reply.Visual)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportName(sess.Filename)+`"`)
	_, _ = w.Write(data)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if sess.AudioPath == "" {
		s.fail(w, r, common.NotFoundError("no audio for this document yet"))
		return
	}
	// Serve from the open handle so a concurrent eviction cannot cut the
	// response short.
	f, err := os.Open(sess.AudioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.fail(w, r, common.NotFoundError("audio for this document has expired"))
			return
		}
		s.fail(w, r, common.WrapError(err, "open audio"))
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.fail(w, r, common.WrapError(err, "stat audio"))
		return
	}
	w.Header().Set("Content-Type", sess.AudioType)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, filepath.Base(sess.AudioPath), info.ModTime(), f)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if len(sess.Image) == 0 {
		s.fail(w, r, common.NotFoundError("no image for this document yet"))
		return
	}
	w.Header().Set("Content-Type", sess.ImageType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(sess.Image)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.health != nil && !s.health.Serving() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "shutting down\n")
		return
	}
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, r, err)
		return session.Session{}, false
	}
	sess, err := s.dispatch.Session(id)
	if err != nil {
		s.fail(w, r, err)
		return session.Session{}, false
	}
	return sess, true
}

func sessionID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	v := common.NewValidator().Field("id", id, common.UUID)
	if v.HasErrors() {
		return "", common.NotFoundError(v.ErrorMessage())
	}
	return id, nil
}

func sessionURL(id, model, voice, tab string) string {
	q := url.Values{}
	if model != "" {
		q.Set("model", model)
	}
	if voice != "" {
		q.Set("voice", voice)
	}
	q.Set("tab", tab)
	return "/s/" + id + "?" + q.Encode()
}

func exportName(filename string) string {
	base := filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	base = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r == '/' || r < 0x20 {
			return '_'
		}
		return r
	}, base)
	if base == "" {
		base = "document"
	}
	return base + ".xlsx"
}
