// internal/adapters/db/count_repository.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
)

// CountRepository implements ports.CountRepository
type CountRepository struct {
	db     ports.Database
	logger *slog.Logger
}

var _ ports.CountRepository = (*CountRepository)(nil)

// NewCountRepository creates a new inventory count repository
func NewCountRepository(db ports.Database, logger *slog.Logger) *CountRepository {
	return &CountRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "inventory_count")),
	}
}

// Record locks the product row, runs guard against it and inserts the count.
// When applyQuantity is set the product's current quantity moves to the
// counted value. The count's previous quantity and difference are taken from
// the locked row, and all writes commit together.
func (r *CountRepository) Record(ctx context.Context, count *domain.InventoryCount, applyQuantity bool, guard domain.CountGuard) error {
	deviceInfo, err := marshalJSONB(count.DeviceInfo)
	if err != nil {
		return fmt.Errorf("failed to encode device info: %w", err)
	}
	gps, err := marshalJSONB(count.GPSCoordinates)
	if err != nil {
		return fmt.Errorf("failed to encode gps coordinates: %w", err)
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		locked, err := LockProduct(ctx, tx, count.BusinessID, count.ProductID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(locked); err != nil {
				return err
			}
		}
		count.Rebase(locked.CurrentQuantity)

		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_counts (
				id, business_id, product_id, quantity, previous_quantity, difference,
				location, notes, counted_by, counted_at, session_id, verified,
				device_info, gps_coordinates, images, voice_notes,
				offline_timestamp, network_quality, sync_priority, batch_id, created_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, $19, $20, $21
			)`,
			count.ID, count.BusinessID, count.ProductID, count.Quantity,
			count.PreviousQuantity, count.Difference,
			nullString(count.Location), nullString(count.Notes), count.CountedBy,
			count.CountedAt, count.SessionID, count.Verified,
			deviceInfo, gps, nonNil(count.Images), nonNil(count.VoiceNotes),
			count.OfflineTimestamp, string(count.NetworkQuality), count.SyncPriority,
			nullString(count.BatchID), count.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert inventory count: %w", err)
		}

		if !applyQuantity {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE products SET current_quantity = $1, updated_at = NOW()
			WHERE id = $2 AND business_id = $3`,
			count.Quantity, count.ProductID, count.BusinessID,
		)
		if err != nil {
			return fmt.Errorf("failed to update product quantity: %w", err)
		}

		r.logger.DebugContext(ctx, "count recorded",
			slog.String("count_id", count.ID.String()),
			slog.String("product_id", count.ProductID.String()),
			slog.Int("previous_quantity", count.PreviousQuantity),
			slog.Int("quantity", count.Quantity))

		return nil
	})
}

// FindAll returns counts newest first with a product summary attached
func (r *CountRepository) FindAll(ctx context.Context, filter domain.CountFilter) ([]*domain.InventoryCount, int64, error) {
	filter.Normalize()

	countSQL, countArgs, err := buildCountTotalQuery(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count inventory counts: %w", err)
	}

	query, args, err := buildCountListQuery(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query inventory counts: %w", err)
	}

	counts, err := ScanMany(rows, scanCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan inventory counts: %w", err)
	}

	return counts, total, nil
}

// FindRange returns counts in a time window, oldest first, capped at MaxRows
func (r *CountRepository) FindRange(ctx context.Context, filter domain.CountRangeFilter) ([]*domain.InventoryCount, error) {
	filter.Normalize()

	query, args, err := buildCountRangeQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build range query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory counts: %w", err)
	}

	counts, err := ScanMany(rows, scanCount)
	if err != nil {
		return nil, fmt.Errorf("failed to scan inventory counts: %w", err)
	}

	r.logger.DebugContext(ctx, "count range loaded",
		slog.String("business_id", filter.BusinessID.String()),
		slog.Int("rows", len(counts)))

	return counts, nil
}

// ReferencedEvidence reports which evidence keys are still attached to a count
func (r *CountRepository) ReferencedEvidence(ctx context.Context, keys []string) (map[string]bool, error) {
	referenced := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return referenced, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT k.key
		FROM unnest($1::text[]) AS k(key)
		WHERE EXISTS (
			SELECT 1 FROM inventory_counts c
			WHERE k.key = ANY(c.images) OR k.key = ANY(c.voice_notes)
		)`, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to query referenced evidence: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan evidence key: %w", err)
		}
		referenced[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evidence keys: %w", err)
	}

	return referenced, nil
}

// ActiveBusinesses lists businesses with counts taken in [from, to)
func (r *CountRepository) ActiveBusinesses(ctx context.Context, from, to time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT business_id FROM inventory_counts
		WHERE counted_at >= $1 AND counted_at < $2`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query active businesses: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan business ids: %w", err)
	}

	return ids, nil
}

func countFilterWhere(filter domain.CountFilter) squirrel.And {
	where := squirrel.And{squirrel.Eq{"c.business_id": filter.BusinessID}}
	if filter.ProductID != nil {
		where = append(where, squirrel.Eq{"c.product_id": *filter.ProductID})
	}
	if filter.SessionID != nil {
		where = append(where, squirrel.Eq{"c.session_id": *filter.SessionID})
	}
	return where
}

func buildCountTotalQuery(filter domain.CountFilter) (string, []interface{}, error) {
	return squirrel.Select("COUNT(*)").
		From("inventory_counts c").
		Where(countFilterWhere(filter)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func buildCountListQuery(filter domain.CountFilter) (string, []interface{}, error) {
	return countSelect().
		Where(countFilterWhere(filter)).
		OrderBy("c.created_at DESC", "c.id DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func countSelect() squirrel.SelectBuilder {
	return squirrel.Select(
		"c.id", "c.business_id", "c.product_id", "c.quantity", "c.previous_quantity",
		"c.difference", "c.location", "c.notes", "c.counted_by", "c.counted_at",
		"c.session_id", "c.verified", "c.device_info", "c.gps_coordinates",
		"c.images", "c.voice_notes", "c.offline_timestamp", "c.network_quality",
		"c.sync_priority", "c.batch_id", "c.created_at",
		"p.id", "p.name", "p.sku", "p.barcode", "p.category",
	).
		From("inventory_counts c").
		Join("products p ON p.id = c.product_id")
}

func buildCountRangeQuery(filter domain.CountRangeFilter) (string, []interface{}, error) {
	where := countFilterWhere(domain.CountFilter{
		BusinessID: filter.BusinessID,
		ProductID:  filter.ProductID,
		SessionID:  filter.SessionID,
	})
	if filter.From != nil {
		where = append(where, squirrel.GtOrEq{"c.counted_at": *filter.From})
	}
	if filter.To != nil {
		where = append(where, squirrel.Lt{"c.counted_at": *filter.To})
	}
	if filter.VarianceOnly {
		where = append(where, squirrel.NotEq{"c.difference": 0})
	}

	return countSelect().
		Where(where).
		OrderBy("c.counted_at ASC", "c.id ASC").
		Limit(uint64(filter.MaxRows)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func scanCount(rows pgx.Rows) (*domain.InventoryCount, error) {
	c := &domain.InventoryCount{}
	p := &domain.ProductSummary{}
	var (
		location, notes, batchID, networkQuality sql.NullString
		sku, barcode                             sql.NullString
		deviceInfo, gps                          []byte
	)

	err := rows.Scan(
		&c.ID, &c.BusinessID, &c.ProductID, &c.Quantity, &c.PreviousQuantity,
		&c.Difference, &location, &notes, &c.CountedBy, &c.CountedAt,
		&c.SessionID, &c.Verified, &deviceInfo, &gps,
		&c.Images, &c.VoiceNotes, &c.OfflineTimestamp, &networkQuality,
		&c.SyncPriority, &batchID, &c.CreatedAt,
		&p.ID, &p.Name, &sku, &barcode, &p.Category,
	)
	if err != nil {
		return nil, err
	}

	c.Location = location.String
	c.Notes = notes.String
	c.BatchID = batchID.String
	c.NetworkQuality = domain.NetworkQuality(networkQuality.String)
	p.SKU = sku.String
	p.Barcode = barcode.String
	c.Product = p

	if len(deviceInfo) > 0 {
		if err := json.Unmarshal(deviceInfo, &c.DeviceInfo); err != nil {
			return nil, fmt.Errorf("failed to decode device info: %w", err)
		}
	}
	if len(gps) > 0 && string(gps) != "null" {
		c.GPSCoordinates = &domain.GPSCoordinates{}
		if err := json.Unmarshal(gps, c.GPSCoordinates); err != nil {
			return nil, fmt.Errorf("failed to decode gps coordinates: %w", err)
		}
	}

	return c, nil
}

// marshalJSONB encodes a JSONB column value, mapping empty values to NULL
func marshalJSONB(v any) ([]byte, error) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return nil, nil
		}
	case *domain.GPSCoordinates:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
