package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/SquizAI/humanGLue-brain-sub005/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a key is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, "leadership|survey-1|abc")

			Convey("Then it should report the key as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same key is recorded twice", func() {
			d.SeenAndRecord(ctx, "k")
			seen := d.SeenAndRecord(ctx, "k")

			Convey("Then the second call should report a duplicate", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is unrecorded", func() {
			d.SeenAndRecord(ctx, "k")
			d.Unrecord(ctx, "k")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "k"), ShouldBeFalse)
			})
		})

		Convey("When the deduper is reset", func() {
			for i := 0; i < 10; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("k-%d", i))
			}
			d.Reset(ctx)

			Convey("Then every key should be forgotten", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "k-3"), ShouldBeFalse)
			})
		})

		Convey("When many keys are recorded", func() {
			for i := 0; i < 1000; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("k-%d", i)), ShouldBeFalse)
			}

			Convey("Then nothing should be evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "k-0"), ShouldBeTrue)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, k := range []string{"a", "b", "c"} {
			d.SeenAndRecord(ctx, k)
		}

		Convey("When a fourth key arrives", func() {
			So(d.SeenAndRecord(ctx, "d"), ShouldBeFalse)

			Convey("Then the oldest key should be evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper()
		const workers = 10
		const perWorker = 100

		Convey("When goroutines record distinct keys concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("k-%d-%d", id, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every key should be recorded once", func() {
				So(d.Size(), ShouldEqual, int64(workers*perWorker))
			})
		})

		Convey("When goroutines race on the same key", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(context.Background(), "shared") {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one goroutine should see it as new", func() {
				So(fresh, ShouldEqual, 1)
			})
		})
	})
}
