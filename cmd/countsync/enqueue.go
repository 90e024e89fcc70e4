package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/offline"
)

func newEnqueueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue an operation for the next sync",
		Long: `Queue an operation for the next sync.

The operation is stored on the device and nothing is sent by default. A
"countsync run" process on the same queue picks it up within sync_interval.
Pass --sync to attempt one pass right away; it is skipped when the server is
unreachable or another countsync is syncing.`,
	}
	cmd.PersistentFlags().BoolVar(&a.syncAfterEnqueue, "sync", false, "run one sync pass after queueing")
	cmd.AddCommand(newEnqueueCountCmd(a))
	cmd.AddCommand(newEnqueueProductCmd(a, offline.KindProductCreate))
	cmd.AddCommand(newEnqueueProductCmd(a, offline.KindProductUpdate))
	cmd.AddCommand(newEnqueueDeleteCmd(a))
	return cmd
}

func newEnqueueCountCmd(a *app) *cobra.Command {
	var (
		productID string
		quantity  int
		expected  int
		location  string
		notes     string
		sessionID string
		priority  int
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Queue a physical count of one product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(productID)
			if err != nil {
				return fmt.Errorf("invalid --product %q", productID)
			}

			now := time.Now().UTC()
			sub := &domain.CountSubmission{
				ProductID:        id,
				Quantity:         &quantity,
				Location:         location,
				Notes:            notes,
				SyncPriority:     priority,
				OfflineTimestamp: &now,
			}
			if cmd.Flags().Changed("expected") {
				sub.ExpectedPreviousQuantity = &expected
			}
			if sessionID != "" {
				sid, err := uuid.Parse(sessionID)
				if err != nil {
					return fmt.Errorf("invalid --session %q", sessionID)
				}
				sub.SessionID = &sid
			}

			op, err := offline.NewCountOperation(sub)
			if err != nil {
				return err
			}
			return a.enqueue(cmd, op)
		},
	}

	cmd.Flags().StringVar(&productID, "product", "", "product id")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "counted quantity")
	cmd.Flags().IntVar(&expected, "expected", 0, "quantity the device last saw; the server rejects the count if it changed")
	cmd.Flags().StringVar(&location, "location", "", "where the count was taken")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&sessionID, "session", "", "count session id")
	cmd.Flags().IntVar(&priority, "priority", domain.MinSyncPriority, "sync priority (1-10)")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("quantity")

	return cmd
}

func newEnqueueProductCmd(a *app, kind offline.Kind) *cobra.Command {
	var (
		id      string
		payload offline.ProductPayload
		cost    string
		price   string
	)

	use, short := "product-create", "Queue a new product"
	if kind == offline.KindProductUpdate {
		use, short = "product-update", "Queue changes to an existing product"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if id != "" {
				parsed, err := uuid.Parse(id)
				if err != nil {
					return fmt.Errorf("invalid --id %q", id)
				}
				payload.ID = &parsed
			}

			var err error
			if payload.Cost, err = parseDecimal("cost", cost); err != nil {
				return err
			}
			if payload.Price, err = parseDecimal("price", price); err != nil {
				return err
			}

			op, err := offline.NewProductOperation(kind, payload)
			if err != nil {
				return err
			}
			return a.enqueue(cmd, op)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "product id (generated for new products when empty)")
	cmd.Flags().StringVar(&payload.Name, "name", "", "product name")
	cmd.Flags().StringVar(&payload.SKU, "sku", "", "stock keeping unit")
	cmd.Flags().StringVar(&payload.Barcode, "barcode", "", "barcode")
	cmd.Flags().StringVar(&payload.Category, "category", "", "category")
	cmd.Flags().IntVar(&payload.CurrentQuantity, "quantity", 0, "quantity on hand")
	cmd.Flags().StringVar(&cost, "cost", "", "unit cost")
	cmd.Flags().StringVar(&price, "price", "", "unit price")
	cmd.Flags().StringVar(&payload.Location, "location", "", "storage location")
	_ = cmd.MarkFlagRequired("name")
	if kind == offline.KindProductUpdate {
		_ = cmd.MarkFlagRequired("id")
	}

	return cmd
}

func newEnqueueDeleteCmd(a *app) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "product-delete",
		Short: "Queue removal of a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := uuid.Parse(id)
			if err != nil {
				return fmt.Errorf("invalid --id %q", id)
			}
			op, err := offline.NewProductDeleteOperation(parsed)
			if err != nil {
				return err
			}
			return a.enqueue(cmd, op)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "product id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (a *app) enqueue(cmd *cobra.Command, op offline.Operation) error {
	ctx := cmd.Context()
	id, err := a.engine.Queue.Enqueue(ctx, op)
	if err != nil {
		return err
	}

	var report *offline.SyncReport
	if a.syncAfterEnqueue {
		r, err := a.engine.SyncOnce(ctx)
		if err != nil {
			return fmt.Errorf("queued %s but sync failed: %w", id, err)
		}
		report = &r
	}

	if a.jsonOutput {
		return printJSON(a.out, struct {
			ID   string              `json:"id"`
			Kind string              `json:"kind"`
			Sync *offline.SyncReport `json:"sync,omitempty"`
		}{ID: id, Kind: string(op.Kind), Sync: report})
	}
	fmt.Fprintf(a.out, "queued %s %s\n", op.Kind, id)
	if report != nil {
		fmt.Fprintln(a.out, describeReport(*report))
	}
	return nil
}

func parseDecimal(field, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q", field, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("--%s cannot be negative", field)
	}
	return &d, nil
}
