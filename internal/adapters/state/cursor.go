// Package state holds the round-robin cursor ledger. The rotating cursor is
// deliberately an explicit, lockable resource keyed by rule id rather than a
// shared variable, and it survives restarts through an async JSON snapshot.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/dispatch/pkg/logger"
)

// GlobalKey scopes the cursor used when no rule matched and the global
// default strategy is in force.
const GlobalKey = "global"

// Option applies a configuration option to the CursorStore.
type Option func(*CursorStore)

// WithSnapshotPath enables durability: cursors are flushed to path after
// each commit and restored by Load. Empty path keeps cursors memory-only.
func WithSnapshotPath(path string) Option {
	return func(c *CursorStore) {
		c.path = path
	}
}

// WithLogger sets the logger used for flush failures.
func WithLogger(log logger.Logger) Option {
	return func(c *CursorStore) {
		c.log = log
	}
}

// CursorStore records, per rule, the technician last selected by the
// round-robin strategy. The cursor moves exactly once per committed
// assignment and never on an escalated outcome; the read-rotate-advance
// sequence is atomic per key through Claim.
type CursorStore struct {
	mu     sync.Mutex
	last   map[string]string      // cursor key -> last selected technician id
	claims map[string]*sync.Mutex // cursor key -> claim lock

	// flushMu serializes snapshot writes; each flush re-reads current state
	// after acquiring it, so the file always converges on the latest map.
	flushMu sync.Mutex
	path    string
	log     logger.Logger
}

// NewCursorStore creates a cursor store with configuration options.
func NewCursorStore(opts ...Option) *CursorStore {
	c := &CursorStore{
		last:   make(map[string]string),
		claims: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load restores cursors from the snapshot file. A missing file is not an
// error; the rotation starts fresh.
func (c *CursorStore) Load(ctx context.Context) error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load cursor snapshot: %w", err)
	}

	restored := make(map[string]string)
	if err := json.Unmarshal(data, &restored); err != nil {
		return fmt.Errorf("decode cursor snapshot: %w", err)
	}

	c.mu.Lock()
	c.last = restored
	c.mu.Unlock()
	return nil
}

// Claim acquires the cursor for key and returns a handle whose Ordered
// field is the stable candidate ordering rotated to start at the candidate
// immediately after the cursor, wrapping. With no cursor yet, or a cursor
// pointing at a technician no longer in the ordering, the rotation starts
// at the first candidate.
//
// The cursor stays held until Commit or Abort, so two assignments racing
// through the same rotation window cannot both select the same "next"
// technician.
func (c *CursorStore) Claim(ctx context.Context, key string, ordered []string) *Claim {
	lock := c.keyLock(key)
	lock.Lock()
	return &Claim{
		store:   c,
		key:     key,
		lock:    lock,
		Ordered: c.rotation(key, ordered),
	}
}

// Claim is a held round-robin cursor. Exactly one of Commit or Abort must
// resolve it; Abort after Commit is a no-op, so callers may defer Abort.
type Claim struct {
	store *CursorStore
	key   string
	lock  *sync.Mutex
	done  bool

	// Ordered is the candidate ordering rotated past the cursor; the first
	// entry is the round-robin pick.
	Ordered []string
}

// Commit records technicianID as the winner for the claimed key and
// releases the cursor. Called exactly once per committed round-robin
// assignment; the snapshot flush happens off the assignment path.
func (cl *Claim) Commit(ctx context.Context, technicianID string) {
	if cl.done {
		return
	}
	cl.done = true

	c := cl.store
	c.mu.Lock()
	c.last[cl.key] = technicianID
	c.mu.Unlock()
	cl.lock.Unlock()

	if c.path != "" {
		go c.flush()
	}
}

// Abort releases the cursor without moving it, used when the assignment
// escalated instead of committing.
func (cl *Claim) Abort(ctx context.Context) {
	if cl.done {
		return
	}
	cl.done = true
	cl.lock.Unlock()
}

// keyLock returns the claim lock for key, creating it on first use.
func (c *CursorStore) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.claims[key]
	if !ok {
		lock = &sync.Mutex{}
		c.claims[key] = lock
	}
	return lock
}

func (c *CursorStore) rotation(key string, ordered []string) []string {
	if len(ordered) == 0 {
		return nil
	}

	c.mu.Lock()
	last, ok := c.last[key]
	c.mu.Unlock()

	start := 0
	if ok {
		for i, id := range ordered {
			if id == last {
				start = (i + 1) % len(ordered)
				break
			}
		}
	}

	out := make([]string, 0, len(ordered))
	out = append(out, ordered[start:]...)
	out = append(out, ordered[:start]...)
	return out
}

// Cursors returns a copy of the current cursor map.
func (c *CursorStore) Cursors(ctx context.Context) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.last))
	for k, v := range c.last {
		out[k] = v
	}
	return out
}

// flush writes the current cursor map to the snapshot file via temp-file
// rename, so a crash mid-write never corrupts the restored state.
func (c *CursorStore) flush() {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	snapshot := make(map[string]string, len(c.last))
	for k, v := range c.last {
		snapshot[k] = v
	}
	c.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		c.logError("encode cursor snapshot", err)
		return
	}

	tmp := c.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		c.logError("create cursor snapshot dir", err)
		return
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		c.logError("write cursor snapshot", err)
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		c.logError("rename cursor snapshot", err)
	}
}

func (c *CursorStore) logError(msg string, err error) {
	if c.log == nil {
		return
	}
	c.log.Error(context.Background(), msg, logger.Error(err))
}
