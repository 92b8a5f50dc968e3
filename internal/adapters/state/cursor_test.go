package state_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dispatch/internal/adapters/state"
)

// peek grabs a claim, reads the rotated order and releases without moving
// the cursor.
func peek(ctx context.Context, store *state.CursorStore, key string, ordered []string) []string {
	cl := store.Claim(ctx, key, ordered)
	defer cl.Abort(ctx)
	return cl.Ordered
}

// advance claims the key and commits the given winner.
func advance(ctx context.Context, store *state.CursorStore, key, winner string) {
	store.Claim(ctx, key, nil).Commit(ctx, winner)
}

func TestCursorRotation(t *testing.T) {
	Convey("Given a fresh cursor store", t, func() {
		store := state.NewCursorStore()
		ctx := context.Background()
		ordered := []string{"alice", "bob", "carol"}

		Convey("When no assignment was made yet", func() {
			got := peek(ctx, store, state.GlobalKey, ordered)

			Convey("Then the rotation starts at the first candidate", func() {
				So(got, ShouldResemble, []string{"alice", "bob", "carol"})
			})
		})

		Convey("When the cursor advances past the first candidate", func() {
			advance(ctx, store, state.GlobalKey, "alice")
			got := peek(ctx, store, state.GlobalKey, ordered)

			Convey("Then the rotation starts after the cursor", func() {
				So(got, ShouldResemble, []string{"bob", "carol", "alice"})
			})
		})

		Convey("When the cursor sits at the last candidate", func() {
			advance(ctx, store, state.GlobalKey, "carol")
			got := peek(ctx, store, state.GlobalKey, ordered)

			Convey("Then the rotation wraps to the start", func() {
				So(got, ShouldResemble, []string{"alice", "bob", "carol"})
			})
		})

		Convey("When the cursor points at a removed technician", func() {
			advance(ctx, store, state.GlobalKey, "dave")
			got := peek(ctx, store, state.GlobalKey, ordered)

			Convey("Then the rotation resets to the first candidate", func() {
				So(got, ShouldResemble, []string{"alice", "bob", "carol"})
			})
		})

		Convey("When an aborted claim releases the key", func() {
			store.Claim(ctx, state.GlobalKey, ordered).Abort(ctx)
			got := peek(ctx, store, state.GlobalKey, ordered)

			Convey("Then the cursor did not move", func() {
				So(got, ShouldResemble, []string{"alice", "bob", "carol"})
			})
		})

		Convey("When a claim is aborted after committing", func() {
			cl := store.Claim(ctx, state.GlobalKey, ordered)
			cl.Commit(ctx, "alice")
			cl.Abort(ctx)

			Convey("Then the abort is a no-op and the commit stands", func() {
				So(peek(ctx, store, state.GlobalKey, ordered), ShouldResemble, []string{"bob", "carol", "alice"})
			})
		})

		Convey("When two keys advance independently", func() {
			advance(ctx, store, "rule-1", "alice")
			advance(ctx, store, "rule-2", "bob")

			Convey("Then each key keeps its own cursor", func() {
				So(peek(ctx, store, "rule-1", ordered), ShouldResemble, []string{"bob", "carol", "alice"})
				So(peek(ctx, store, "rule-2", ordered), ShouldResemble, []string{"carol", "alice", "bob"})
			})
		})

		Convey("When the ordering is empty", func() {
			got := peek(ctx, store, state.GlobalKey, nil)

			Convey("Then the rotation is empty", func() {
				So(got, ShouldBeEmpty)
			})
		})
	})
}

func TestCursorFairness(t *testing.T) {
	Convey("Given three candidates and repeated claims", t, func() {
		store := state.NewCursorStore()
		ctx := context.Background()
		ordered := []string{"a", "b", "c"}

		Convey("When simulating 3N assignments", func() {
			counts := map[string]int{}
			for i := 0; i < 9; i++ {
				cl := store.Claim(ctx, state.GlobalKey, ordered)
				winner := cl.Ordered[0]
				counts[winner]++
				cl.Commit(ctx, winner)
			}

			Convey("Then every candidate wins exactly N times", func() {
				So(counts["a"], ShouldEqual, 3)
				So(counts["b"], ShouldEqual, 3)
				So(counts["c"], ShouldEqual, 3)
			})
		})
	})
}

// TestCursorClaimSerializes drives many goroutines through the same key and
// checks that each holder saw the rotation left by the previous committer,
// so no two holders of the window can pick the same head.
func TestCursorClaimSerializes(t *testing.T) {
	store := state.NewCursorStore()
	ctx := context.Background()
	ordered := []string{"a", "b", "c"}

	const rounds = 30
	counts := make(map[string]int)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cl := store.Claim(ctx, state.GlobalKey, ordered)
			winner := cl.Ordered[0]
			mu.Lock()
			counts[winner]++
			mu.Unlock()
			cl.Commit(ctx, winner)
		}()
	}
	wg.Wait()

	for _, id := range ordered {
		if counts[id] != rounds/len(ordered) {
			t.Fatalf("candidate %s won %d of %d rounds, want %d", id, counts[id], rounds, rounds/len(ordered))
		}
	}
}

func TestCursorDurability(t *testing.T) {
	Convey("Given a cursor store with a snapshot path", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "cursors.json")
		ctx := context.Background()

		store := state.NewCursorStore(state.WithSnapshotPath(path))
		So(store.Load(ctx), ShouldBeNil)

		Convey("When a cursor advances", func() {
			advance(ctx, store, "rule-1", "bob")

			// Flush is asynchronous.
			So(waitForFile(path, time.Second), ShouldBeTrue)

			Convey("Then a new store restores it from disk", func() {
				restored := state.NewCursorStore(state.WithSnapshotPath(path))
				So(restored.Load(ctx), ShouldBeNil)
				So(restored.Cursors(ctx)["rule-1"], ShouldEqual, "bob")
			})
		})

		Convey("When the snapshot file is corrupt", func() {
			So(os.WriteFile(path, []byte("{nope"), 0o644), ShouldBeNil)

			restored := state.NewCursorStore(state.WithSnapshotPath(path))

			Convey("Then Load reports the decode failure", func() {
				So(restored.Load(ctx), ShouldNotBeNil)
			})
		})

		Convey("When no snapshot file exists", func() {
			fresh := state.NewCursorStore(state.WithSnapshotPath(filepath.Join(dir, "missing.json")))

			Convey("Then Load succeeds with empty cursors", func() {
				So(fresh.Load(ctx), ShouldBeNil)
				So(fresh.Cursors(ctx), ShouldBeEmpty)
			})
		})
	})
}

func waitForFile(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
