package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plus3/entarena/entity"
)

// Widget is the payload stored in the arena during the stress run.
type Widget struct {
	ID     int
	Label  string
	Clicks int
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The number of live entities to maintain.")
	workerCount := flag.Int("workers", 8, "The number of goroutines hammering handle lifecycle operations.")
	churn := flag.Int("churn", 100, "The number of entities released and replaced per frame.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	log.Println("Starting arena stress test...")

	// 1. Setup the store and populate the owner's entity pool.
	store := entity.NewStore()
	commands := entity.NewCommands()

	log.Printf("Populating store with %d entities...\n", *entityCount)
	pool := make([]entity.Handle[Widget], 0, *entityCount)
	for i := 0; i < *entityCount; i++ {
		pool = append(pool, spawnWidget(store, i))
	}
	log.Println("Population complete.")

	// 2. Hand each worker its own clones of a small shared set. Workers only
	// touch handle lifecycle (clone/release/downgrade/upgrade), which is safe
	// from any goroutine; value access stays on the owner loop below.
	shared := pool[:min(64, len(pool))]

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var handleOps int64
	var upgradeFailures int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < *workerCount; w++ {
		clones := make([]entity.Handle[Widget], len(shared))
		for i, h := range shared {
			clones[i] = h.Clone()
		}
		g.Go(func() error {
			defer func() {
				for _, h := range clones {
					h.Release()
				}
			}()
			var ops int64
			for {
				select {
				case <-ctx.Done():
					atomic.AddInt64(&handleOps, ops)
					return nil
				default:
				}
				for _, h := range clones {
					clone := h.Clone()
					weak := clone.Downgrade()
					if strong, ok := weak.Upgrade(); ok {
						strong.Release()
					} else {
						atomic.AddInt64(&upgradeFailures, 1)
					}
					clone.Release()
					ops += 4
				}
			}
		})
	}

	// 3. Run the owner loop.
	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		Workers:        *workerCount,
		Churn:          *churn,
		GCPauseMetrics: *gcPauseMetrics,
		FrameTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running owner loop for %s...\n", *duration)
	startTime := time.Now()
	var totalFrames, totalReclaimed, totalTouched int64
	nextID := *entityCount

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			frameStart := time.Now()

			// Release a slice of the pool through the command buffer and
			// replace it, so the arena sees constant slot churn. The shared
			// prefix the workers hold clones of is left alone.
			if len(pool) > len(shared) {
				for i := 0; i < *churn; i++ {
					idx := len(shared) + rand.Intn(len(pool)-len(shared))
					commands.Release(pool[idx].Any())
					pool[idx] = spawnWidget(store, nextID)
					nextID++
				}
			}

			// Mutate a sample of live entities through leases.
			for i := 0; i < *churn && i < len(pool); i++ {
				h := pool[rand.Intn(len(pool))]
				lease := h.Lease(store)
				lease.Value().Clicks++
				lease.End(store)
			}

			totalTouched += int64(len(store.TakeTouched()))
			totalReclaimed += int64(len(commands.Flush(store)))

			report.FrameTime.Samples = append(report.FrameTime.Samples, time.Since(frameStart))
			totalFrames++
		}
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}

	// Drain everything the workers' final releases queued.
	for _, h := range pool {
		h.Release()
	}
	totalReclaimed += int64(len(store.TakeDropped()))

	report.TotalTime = time.Since(startTime)
	report.TotalFrames = totalFrames
	report.TotalReclaimed = totalReclaimed
	report.TotalTouched = totalTouched
	report.HandleOps = atomic.LoadInt64(&handleOps)
	report.UpgradeFailures = atomic.LoadInt64(&upgradeFailures)
	report.FinalStats = store.CollectStats()
	report.FrameTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Println("Owner loop finished.")

	// 4. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")

	store.Close()
	log.Println("Stress test complete.")
}

func spawnWidget(store *entity.Store, id int) entity.Handle[Widget] {
	slot, key := entity.Reserve[Widget](store)
	return slot.Insert(store, Widget{
		ID:    id,
		Label: key.String(),
	})
}
