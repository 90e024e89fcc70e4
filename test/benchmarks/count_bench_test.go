package benchmarks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/services"
	"github.com/ammerola/countsync/internal/offline"
	"github.com/ammerola/countsync/internal/offline/localdb"
	"github.com/ammerola/countsync/internal/pkg/spreadsheet"
)

var discard = slog.New(slog.DiscardHandler)

func BenchmarkConflictDetector(b *testing.B) {
	detector := services.NewConflictDetector()
	product := &domain.Product{ID: uuid.New(), Name: "Widget", CurrentQuantity: 42}
	match, stale := 42, 40

	b.Run("NoExpectation", func(b *testing.B) {
		for b.Loop() {
			_ = detector.Check(product, nil)
		}
	})

	b.Run("Match", func(b *testing.B) {
		for b.Loop() {
			_ = detector.Check(product, &match)
		}
	})

	b.Run("Stale", func(b *testing.B) {
		for b.Loop() {
			_ = detector.Check(product, &stale)
		}
	})
}

func BenchmarkBatchResult(b *testing.B) {
	productID := uuid.New()
	failure := errors.New("product not found")

	for _, size := range []int{10, domain.MaxBatchSize} {
		b.Run(fmt.Sprintf("Size_%d", size), func(b *testing.B) {
			for b.Loop() {
				result := domain.NewBatchResult()
				for i := range size {
					switch i % 10 {
					case 0:
						result.Conflict(i, productID, domain.ConflictData{Expected: 1, Actual: 2})
					case 1:
						result.Fail(i, productID, failure)
					default:
						result.Succeeded(uuid.New())
					}
				}
				_ = result.PartialSuccess()
			}
		})
	}
}

func BenchmarkSpreadsheet(b *testing.B) {
	counts := generateCounts(1000, 50)
	from := counts[0].CountedAt
	to := counts[len(counts)-1].CountedAt.Add(time.Minute)

	b.Run("Summarize", func(b *testing.B) {
		for b.Loop() {
			_ = spreadsheet.Summarize(counts)
		}
	})

	b.Run("CountsWorkbook", func(b *testing.B) {
		for b.Loop() {
			if _, err := spreadsheet.CountsWorkbook(counts); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("VarianceWorkbook", func(b *testing.B) {
		for b.Loop() {
			if _, err := spreadsheet.VarianceWorkbook(counts, from, to); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkOfflineQueue(b *testing.B) {
	stores := map[string]func(b *testing.B) offline.Store{
		"Memory": func(*testing.B) offline.Store { return offline.NewMemoryStore() },
		"SQLite": func(b *testing.B) offline.Store {
			store, err := localdb.Open(localdb.MemoryPath, discard)
			if err != nil {
				b.Fatal(err)
			}
			return store
		},
	}

	for name, open := range stores {
		b.Run(name+"/Enqueue", func(b *testing.B) {
			store := open(b)
			defer store.Close()
			queue := offline.NewQueue(store, offline.DefaultMaxRetries, discard)
			ops, err := countOperations(1)
			if err != nil {
				b.Fatal(err)
			}
			ctx := context.Background()

			for b.Loop() {
				if _, err := queue.Enqueue(ctx, ops[0]); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run(name+"/SyncPass_100", func(b *testing.B) {
			store := open(b)
			defer store.Close()
			queue := offline.NewQueue(store, offline.DefaultMaxRetries, discard)
			online := offline.ConnectivityFunc(func() bool { return true })
			exec := offline.NewExecutor(queue, acceptAll{}, online, offline.DefaultRetryPolicy(), 0, discard)
			ops, err := countOperations(100)
			if err != nil {
				b.Fatal(err)
			}
			ctx := context.Background()

			for b.Loop() {
				b.StopTimer()
				for _, op := range ops {
					if _, err := queue.Enqueue(ctx, op); err != nil {
						b.Fatal(err)
					}
				}
				b.StartTimer()

				report, err := exec.Sync(ctx)
				if err != nil {
					b.Fatal(err)
				}
				if report.Succeeded != len(ops) {
					b.Fatalf("synced %d of %d", report.Succeeded, len(ops))
				}
			}
		})
	}
}
