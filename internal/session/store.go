package session

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"github.com/joseph-ayodele/doc-assistant/internal/common"
)

// Store is a concurrency-safe in-memory session cache. Sessions expire ttl
// after creation; reads do not extend their lifetime.
type Store struct {
	mu     sync.RWMutex // guards the stored *Session values
	cache  *ttlcache.Cache[string, *Session]
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore builds a store whose sessions live for ttl. A non-positive ttl
// keeps sessions until the process exits.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []ttlcache.Option[string, *Session]{
		ttlcache.WithDisableTouchOnHit[string, *Session](),
	}
	if ttl > 0 {
		opts = append(opts, ttlcache.WithTTL[string, *Session](ttl))
	}
	s := &Store{
		cache:  ttlcache.New[string, *Session](opts...),
		ttl:    ttl,
		logger: logger,
	}
	s.cache.OnEviction(s.evicted)
	return s
}

func (s *Store) evicted(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
	s.mu.RLock()
	paths := item.Value().audioFiles()
	s.mu.RUnlock()

	for _, p := range paths {
		RemoveAudio(s.logger, p)
	}
	s.logger.Info("session.evicted", "session_id", item.Key(), "reason", int(reason), "audio_files", len(paths))
}

// Create assigns an ID and creation time to sess and stores it.
func (s *Store) Create(sess Session) Session {
	sess.ID = uuid.NewString()
	sess.CreatedAt = time.Now()
	if sess.Replies == nil {
		sess.Replies = make(map[Tab]Reply)
	}
	stored := sess.clone()
	s.cache.Set(sess.ID, &stored, ttlcache.DefaultTTL)

	s.logger.Info("session.created", "session_id", sess.ID, "state", sess.State.String(), "filename", sess.Filename)
	return sess
}

func (s *Store) lookup(id string) (*Session, error) {
	item := s.cache.Get(id)
	if item == nil || item.IsExpired() {
		return nil, common.NotFoundError("session " + id + " not found")
	}
	return item.Value(), nil
}

func (s *Store) Get(id string) (Session, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Session{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sess.clone(), nil
}

// Update applies fn to the stored session under the write lock and returns a
// copy of the result.
func (s *Store) Update(id string, fn func(*Session)) (Session, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Session{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(sess)
	return sess.clone(), nil
}

// Len counts stored sessions, including expired ones not yet pruned.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Prune drops expired sessions. Their audio files are deleted by the
// eviction hook.
func (s *Store) Prune() int {
	if s.ttl <= 0 {
		return 0
	}
	before := s.cache.Len()
	s.cache.DeleteExpired()
	n := max(before-s.cache.Len(), 0)
	if n > 0 {
		s.logger.Info("session.pruned", "count", n, "ttl", s.ttl.String())
	}
	return n
}

// RemoveAudio deletes a temporary audio file, ignoring files already gone.
func RemoveAudio(logger *slog.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("session.audio_remove_failed", "path", path, "error", err)
	}
}
