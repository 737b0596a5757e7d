package session

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joseph-ayodele/doc-assistant/internal/common"
)

func quietStore() *Store {
	return quietStoreTTL(time.Hour)
}

func quietStoreTTL(ttl time.Duration) *Store {
	return NewStore(ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeAudio(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// waitGone polls until path is deleted; eviction hooks run asynchronously.
func waitGone(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s was not removed", path)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCreateGet(t *testing.T) {
	s := quietStore()
	created := s.Create(Session{Filename: "a.pdf", Text: "hello", State: Loaded})
	if created.ID == "" {
		t.Fatal("expected an id")
	}
	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != "hello" || !got.HasText() {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := quietStore().Get("missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateIsolatesCopies(t *testing.T) {
	s := quietStore()
	created := s.Create(Session{State: Loaded})
	_, err := s.Update(created.ID, func(sess *Session) {
		sess.Replies[TabSummary] = Reply{Text: "short"}
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.Get(created.ID)
	got.Replies[TabSummary] = Reply{Text: "mutated"}

	again, _ := s.Get(created.ID)
	if r, _ := again.Reply(TabSummary); r.Text != "short" {
		t.Fatalf("store shared its map with a caller: %q", r.Text)
	}
}

func TestPruneRemovesExpiredAndAudio(t *testing.T) {
	s := quietStoreTTL(200 * time.Millisecond)

	current := writeAudio(t, "current.wav")
	stale := writeAudio(t, "stale.wav")
	old := s.Create(Session{State: Loaded, AudioPath: current, StaleAudio: []string{stale}})

	time.Sleep(300 * time.Millisecond)
	fresh := s.Create(Session{State: Loaded})

	if n := s.Prune(); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if _, err := s.Get(old.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("old session still present: %v", err)
	}
	if _, err := s.Get(fresh.ID); err != nil {
		t.Fatalf("fresh session pruned: %v", err)
	}
	waitGone(t, current)
	waitGone(t, stale)
}

func TestExpiredSessionIsNotFoundBeforePrune(t *testing.T) {
	s := quietStoreTTL(50 * time.Millisecond)
	sess := s.Create(Session{State: Loaded})
	time.Sleep(100 * time.Millisecond)

	if _, err := s.Get(sess.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an expired session, got %v", err)
	}
	if _, err := s.Update(sess.ID, func(*Session) {}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestReplaceAudioKeepsPrevious(t *testing.T) {
	s := quietStore()
	sess := s.Create(Session{State: Loaded})
	for _, p := range []string{"a.wav", "b.wav", "c.wav"} {
		if _, err := s.Update(sess.ID, func(x *Session) { x.ReplaceAudio(p, "audio/wav") }); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	got, _ := s.Get(sess.ID)
	if got.AudioPath != "c.wav" || len(got.StaleAudio) != 2 || got.StaleAudio[0] != "a.wav" {
		t.Fatalf("unexpected audio state %q %v", got.AudioPath, got.StaleAudio)
	}
}

func TestPruneDisabled(t *testing.T) {
	s := quietStoreTTL(0)
	s.Create(Session{})
	if n := s.Prune(); n != 0 || s.Len() != 1 {
		t.Fatalf("prune without a ttl removed sessions")
	}
}
