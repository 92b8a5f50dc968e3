package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dispatch/internal/domain/dedupe"
)

func TestDeduperSeenAndRecord(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()

		Convey("When a new id arrives", func() {
			seen := d.SeenAndRecord(ctx, "t-1")

			Convey("Then it is recorded as unseen", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the same id again is a duplicate", func() {
				So(d.SeenAndRecord(ctx, "t-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an id is unrecorded", func() {
			So(d.SeenAndRecord(ctx, "t-2"), ShouldBeFalse)
			d.Unrecord(ctx, "t-2")

			Convey("Then it may be recorded again", func() {
				So(d.SeenAndRecord(ctx, "t-2"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording an unknown id", func() {
			d.Unrecord(ctx, "ghost")

			Convey("Then the size is unchanged", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestDeduperEviction(t *testing.T) {
	Convey("Given a deduper bounded to 3 ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		ctx := context.Background()

		Convey("When a fourth id arrives", func() {
			for _, id := range []string{"a", "b", "c", "d"} {
				So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
			}

			Convey("Then the oldest id was evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})

			Convey("And the newest ids are still remembered", func() {
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
			})
		})
	})
}

func TestDeduperConcurrentAccess(t *testing.T) {
	d := dedupe.NewInMemoryDeduper()
	ctx := context.Background()

	const (
		goroutines = 20
		perG       = 200
	)

	var wg sync.WaitGroup
	var firsts sync.Map
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				id := fmt.Sprintf("t-%d", i)
				if !d.SeenAndRecord(ctx, id) {
					// Only one goroutine may claim first sight of each id.
					if _, loaded := firsts.LoadOrStore(id, struct{}{}); loaded {
						t.Errorf("id %s recorded as new twice", id)
					}
				}
			}
		}()
	}
	wg.Wait()

	if got := d.Size(); got != perG {
		t.Fatalf("size = %d, want %d", got, perG)
	}
}
