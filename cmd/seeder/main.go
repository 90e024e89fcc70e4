package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/pkg/config"
	"github.com/ammerola/countsync/internal/pkg/logger"
)

func main() {
	var (
		catalogFile = flag.String("catalog", "", "Excel catalog of products to load")
		businessStr = flag.String("business", "", "Business ID that owns the seeded products")
		generate    = flag.Int("generate", 0, "Generate this many demo products when no catalog is given")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun      = flag.Bool("dry-run", false, "Preview changes without modifying database")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json")

	businessID, err := uuid.Parse(*businessStr)
	if err != nil || businessID == uuid.Nil {
		slogger.Error("a valid -business id is required", slog.String("value", *businessStr))
		os.Exit(2)
	}

	var products []*domain.Product
	switch {
	case *catalogFile != "":
		products, err = LoadCatalog(*catalogFile, businessID, slogger)
		if err != nil {
			slogger.Error("failed to load catalog", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case *generate > 0:
		products = GenerateProducts(businessID, *generate)
	default:
		slogger.Error("nothing to seed: pass -catalog or -generate")
		os.Exit(2)
	}

	fmt.Printf("Prepared %d products for business %s\n", len(products), businessID)

	if *dryRun {
		for _, p := range products {
			fmt.Printf("  %-12s %-40s qty=%d\n", p.SKU, p.Name, p.CurrentQuantity)
		}
		fmt.Println("\n[DRY RUN] No changes were made to the database")
		return
	}

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.GetDatabaseURL())
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	inserted, err := SaveProducts(ctx, pool, products)
	if err != nil {
		slogger.Error("failed to save products", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("Products inserted: %d\n", inserted)
	fmt.Printf("Already present:   %d\n", len(products)-inserted)

	slogger.Info("seed operation completed",
		slog.String("business_id", businessID.String()),
		slog.Int("prepared", len(products)),
		slog.Int("inserted", inserted))
}

// SaveProducts inserts products in one transaction. Rows whose id or SKU
// already exist are skipped, so reruns are safe.
func SaveProducts(ctx context.Context, db *pgxpool.Pool, products []*domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO products (
				id, business_id, name, sku, barcode, category,
				current_quantity, cost, price, location, created_at, updated_at
			) VALUES (
				$1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, NULLIF($10, ''), $11, $12
			) ON CONFLICT DO NOTHING`,
			p.ID, p.BusinessID, p.Name, p.SKU, p.Barcode, string(p.Category),
			p.CurrentQuantity, p.Cost, p.Price, p.Location, p.CreatedAt, p.UpdatedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	inserted := 0
	for range products {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("failed to insert product: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}
