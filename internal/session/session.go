// Package session keeps the per-upload state of the assistant in memory.
package session

import (
	"maps"
	"slices"
	"time"

	"github.com/joseph-ayodele/doc-assistant/internal/interpret"
)

// State of a session once a document has been extracted.
type State int

const (
	// Loaded sessions have text and accept every action.
	Loaded State = iota + 1
	// Empty sessions extracted no text; they only show a warning.
	Empty
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Tab identifies one of the sub-interactions reachable from a loaded document.
type Tab string

const (
	TabSummary Tab = "summary"
	TabAnswer  Tab = "answer"
	TabVisual  Tab = "visualize"
	TabSpeech  Tab = "speech"
	TabImage   Tab = "image"
)

// Reply is the last outcome of a tab. Error holds the provider diagnostic shown
// inline when the capability failed.
type Reply struct {
	Input  string
	Model  string
	Text   string
	Error  string
	Visual *interpret.Result
	At     time.Time
}

func (r Reply) Failed() bool { return r.Error != "" }

type Session struct {
	ID        string
	Filename  string
	Format    string
	Text      string
	Method    string
	Warnings  []string
	Degraded  bool
	State     State
	CreatedAt time.Time

	Replies map[Tab]Reply

	AudioPath string
	AudioType string
	// StaleAudio holds files replaced by a newer synthesis. They stay on
	// disk until the session is evicted so in-flight downloads complete.
	StaleAudio []string
	Image     []byte
	ImageType string
}

func (s Session) HasText() bool { return s.State == Loaded }

// Reply returns the last reply of tab.
func (s Session) Reply(tab Tab) (Reply, bool) {
	r, ok := s.Replies[tab]
	return r, ok
}

// clone copies the slices and map so callers never share them with the store.
func (s Session) clone() Session {
	s.Warnings = slices.Clone(s.Warnings)
	s.Replies = maps.Clone(s.Replies)
	s.Image = slices.Clone(s.Image)
	s.StaleAudio = slices.Clone(s.StaleAudio)
	return s
}

// ReplaceAudio makes path the current audio file and retires the previous one.
func (s *Session) ReplaceAudio(path, contentType string) {
	if s.AudioPath != "" {
		s.StaleAudio = append(s.StaleAudio, s.AudioPath)
	}
	s.AudioPath = path
	s.AudioType = contentType
}

func (s *Session) audioFiles() []string {
	files := slices.Clone(s.StaleAudio)
	if s.AudioPath != "" {
		files = append(files, s.AudioPath)
	}
	return files
}
