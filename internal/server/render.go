package server

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/joseph-ayodele/doc-assistant/internal/export"
	"github.com/joseph-ayodele/doc-assistant/internal/pipeline"
	"github.com/joseph-ayodele/doc-assistant/internal/session"
)

var tabs = []string{"text", "summary", "answer", "visualize", "speech", "image"}

type pageData struct {
	Title        string
	Theme        string
	Error        string
	ImageEnabled bool
	Models       []string
	Voices       []string
	Model        string
	Voice        string
	Tab          string
	Tabs         []string

	Session  *session.Session
	Prefill  string
	Summary  *replyView
	Answer   *replyView
	Visual   *replyView
	Speech   *replyView
	Image    *replyView
	HasAudio bool
	HasImage bool
}

type replyView struct {
	Input string
	Error string
	HTML  template.HTML
	Chart bool
	Table bool
	At    string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("http.render.error", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// markdown renders model output; raw HTML in the source is dropped.
func (s *Server) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func (s *Server) basePage(title string, q url.Values) pageData {
	d := s.dispatch
	tab := q.Get("tab")
	if tab == "" {
		tab = "summary"
	}
	return pageData{
		Title:        title,
		Theme:        s.opts.Theme,
		ImageEnabled: d.ImageEnabled(),
		Models:       d.Models(),
		Voices:       d.Voices(),
		Model:        d.Model(q.Get("model")),
		Voice:        d.Voice(q.Get("voice")),
		Tab:          tab,
		Tabs:         visibleTabs(d.ImageEnabled()),
	}
}

func visibleTabs(image bool) []string {
	if image {
		return tabs
	}
	return tabs[:len(tabs)-1]
}

func (s *Server) sessionPage(sess session.Session, q url.Values) pageData {
	p := s.basePage(sess.Filename, q)
	p.Session = &sess
	if !sess.HasText() {
		return p
	}
	p.Prefill = pipeline.SpeechPrefill(sess.Text)
	p.HasAudio = sess.AudioPath != ""
	p.HasImage = len(sess.Image) > 0

	if r, ok := sess.Reply(session.TabSummary); ok {
		p.Summary = s.textView(r)
	}
	if r, ok := sess.Reply(session.TabAnswer); ok {
		p.Answer = s.textView(r)
	}
	if r, ok := sess.Reply(session.TabVisual); ok {
		v := s.textView(r)
		if r.Visual != nil && r.Visual.IsChart() {
			v.Chart = true
			v.HTML = ""
		}
		if r.Visual != nil && !r.Visual.IsChart() {
			_, v.Table = export.ParseMarkdownTable(r.Visual.RawText)
		}
		p.Visual = v
	}
	if r, ok := sess.Reply(session.TabSpeech); ok {
		p.Speech = view(r)
	}
	if r, ok := sess.Reply(session.TabImage); ok {
		p.Image = view(r)
	}
	return p
}

func (s *Server) textView(r session.Reply) *replyView {
	v := view(r)
	if !r.Failed() {
		v.HTML = s.markdown(r.Text)
	}
	return v
}

func view(r session.Reply) *replyView {
	return &replyView{Input: r.Input, Error: r.Error, At: r.At.Format(time.Kitchen)}
}
