// internal/core/services/counts_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
	"github.com/ammerola/countsync/internal/core/services"
	"github.com/ammerola/countsync/test/helpers"
	"github.com/ammerola/countsync/test/mocks"
)

type countMocks struct {
	products *mocks.MockProductRepository
	counts   *mocks.MockCountRepository
	receipts *mocks.MockBatchReceiptStore
	events   *mocks.MockCountEventPublisher
}

func newCountService(t *testing.T) (*services.CountService, countMocks) {
	ctrl := gomock.NewController(t)
	m := countMocks{
		products: mocks.NewMockProductRepository(ctrl),
		counts:   mocks.NewMockCountRepository(ctrl),
		receipts: mocks.NewMockBatchReceiptStore(ctrl),
		events:   mocks.NewMockCountEventPublisher(ctrl),
	}
	svc := services.NewCountService(m.products, m.counts, m.receipts, m.events, helpers.TestLogger())
	return svc, m
}

func TestCountService_SubmitCount(t *testing.T) {
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.CurrentQuantity = 40
	})
	cc := domain.CountContext{BusinessID: product.BusinessID, CountedBy: "device"}

	tests := []struct {
		name          string
		sub           *domain.CountSubmission
		setupMocks    func(countMocks)
		expectedError error
		errorContains string
		check         func(*testing.T, *domain.CountResult)
	}{
		{
			name: "records_count_and_reports_change",
			sub:  helpers.CreateTestSubmission(product.ID, 45),
			setupMocks: func(m countMocks) {
				m.products.EXPECT().FindByID(gomock.Any(), product.BusinessID, product.ID).Return(product, nil)
				m.counts.EXPECT().
					Record(gomock.Any(), gomock.Any(), true, gomock.Any()).
					DoAndReturn(func(_ context.Context, c *domain.InventoryCount, _ bool, _ domain.CountGuard) error {
						assert.Equal(t, 45, c.Quantity)
						assert.Equal(t, 40, c.PreviousQuantity)
						assert.Equal(t, 5, c.Difference)
						assert.Equal(t, "device", c.CountedBy)
						return nil
					})
				m.events.EXPECT().CountRecorded(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, res *domain.CountResult) {
				assert.Equal(t, 40, res.PreviousQuantity)
				assert.Equal(t, 5, res.QuantityChange)
				assert.NotEqual(t, uuid.Nil, res.Count.ID)
			},
		},
		{
			name: "unverified_count_does_not_move_quantity",
			sub: helpers.CreateTestSubmission(product.ID, 38, func(s *domain.CountSubmission) {
				verified := false
				s.Verified = &verified
			}),
			setupMocks: func(m countMocks) {
				m.products.EXPECT().FindByID(gomock.Any(), product.BusinessID, product.ID).Return(product, nil)
				m.counts.EXPECT().Record(gomock.Any(), gomock.Any(), false, gomock.Any()).Return(nil)
				m.events.EXPECT().CountRecorded(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, res *domain.CountResult) {
				assert.Equal(t, -2, res.QuantityChange)
				assert.False(t, res.Count.Verified)
			},
		},
		{
			name: "matching_expectation_is_accepted",
			sub: helpers.CreateTestSubmission(product.ID, 41, func(s *domain.CountSubmission) {
				s.ExpectedPreviousQuantity = helpers.IntPtr(40)
			}),
			setupMocks: func(m countMocks) {
				m.products.EXPECT().FindByID(gomock.Any(), product.BusinessID, product.ID).Return(product, nil)
				m.counts.EXPECT().Record(gomock.Any(), gomock.Any(), true, gomock.Any()).Return(nil)
				m.events.EXPECT().CountRecorded(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "stale_expectation_is_a_conflict_and_nothing_is_written",
			sub: helpers.CreateTestSubmission(product.ID, 12, func(s *domain.CountSubmission) {
				s.ExpectedPreviousQuantity = helpers.IntPtr(10)
			}),
			setupMocks: func(m countMocks) {
				m.products.EXPECT().FindByID(gomock.Any(), product.BusinessID, product.ID).Return(product, nil)
				m.events.EXPECT().
					CountConflicted(gomock.Any(), product.BusinessID, product.ID, domain.ConflictData{
						Expected: 10, Actual: 40, ProductName: product.Name,
					}).
					Return(nil)
			},
			expectedError: domain.ErrConflict,
		},
		{
			name: "quantity_changed_before_lock_is_a_conflict",
			sub: helpers.CreateTestSubmission(product.ID, 45, func(s *domain.CountSubmission) {
				s.ExpectedPreviousQuantity = helpers.IntPtr(40)
			}),
			setupMocks: func(m countMocks) {
				m.products.EXPECT().FindByID(gomock.Any(), product.BusinessID, product.ID).Return(product, nil)
				m.counts.EXPECT().
					Record(gomock.Any(), gomock.Any(), true, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ *domain.InventoryCount, _ bool, guard domain.CountGuard) error {
						// Another device recorded 42 between the read and the lock
						return guard(&domain.Product{ID: product.ID, Name: product.Name, CurrentQuantity: 42})
					})
				m.events.EXPECT().
					CountConflicted(gomock.Any(), product.BusinessID, product.ID, domain.ConflictData{
						Expected: 40, Actual: 42, ProductName: product.Name,
					}).
					Return(nil)
			},
			expectedError: domain.ErrConflict,
		},
		{
			name: "previous_quantity_comes_from_locked_row",
			sub:  helpers.CreateTestSubmission(product.ID, 45),
			setupMocks: func(m countMocks) {
				m.products.EXPECT().FindByID(gomock.Any(), product.BusinessID, product.ID).Return(product, nil)
				m.counts.EXPECT().
					Record(gomock.Any(), gomock.Any(), true, gomock.Any()).
					DoAndReturn(func(_ context.Context, c *domain.InventoryCount, _ bool, guard domain.CountGuard) error {
						locked := &domain.Product{ID: product.ID, Name: product.Name, CurrentQuantity: 43}
						require.NoError(t, guard(locked))
						c.Rebase(locked.CurrentQuantity)
						return nil
					})
				m.events.EXPECT().CountRecorded(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, res *domain.CountResult) {
				assert.Equal(t, 43, res.PreviousQuantity)
				assert.Equal(t, 2, res.QuantityChange)
				assert.Equal(t, 2, res.Count.Difference)
			},
		},
		{
			name:          "missing_quantity_is_rejected",
			sub:           &domain.CountSubmission{ProductID: product.ID},
			setupMocks:    func(m countMocks) {},
			expectedError: domain.ErrValidation,
			errorContains: "quantity is required",
		},
		{
			name: "too_many_images_is_rejected",
			sub: helpers.CreateTestSubmission(product.ID, 1, func(s *domain.CountSubmission) {
				s.Images = []string{"a", "b", "c", "d"}
			}),
			setupMocks:    func(m countMocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name: "product_from_other_business_is_not_found",
			sub:  helpers.CreateTestSubmission(uuid.New(), 5),
			setupMocks: func(m countMocks) {
				m.products.EXPECT().FindByID(gomock.Any(), product.BusinessID, gomock.Any()).Return(nil, nil)
			},
			expectedError: domain.ErrProductNotFound,
		},
		{
			name: "repository_error_is_wrapped",
			sub:  helpers.CreateTestSubmission(product.ID, 45),
			setupMocks: func(m countMocks) {
				m.products.EXPECT().FindByID(gomock.Any(), product.BusinessID, product.ID).Return(product, nil)
				m.counts.EXPECT().Record(gomock.Any(), gomock.Any(), true, gomock.Any()).Return(errors.New("connection reset"))
			},
			errorContains: "failed to record count",
		},
		{
			name: "publish_failure_does_not_fail_the_count",
			sub:  helpers.CreateTestSubmission(product.ID, 45),
			setupMocks: func(m countMocks) {
				m.products.EXPECT().FindByID(gomock.Any(), product.BusinessID, product.ID).Return(product, nil)
				m.counts.EXPECT().Record(gomock.Any(), gomock.Any(), true, gomock.Any()).Return(nil)
				m.events.EXPECT().CountRecorded(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newCountService(t)
			tt.setupMocks(m)

			res, err := svc.SubmitCount(context.Background(), cc, tt.sub)

			if tt.expectedError != nil || tt.errorContains != "" {
				require.Error(t, err)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				assert.Nil(t, res)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, res)
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestCountService_SubmitCount_ConflictCarriesData(t *testing.T) {
	svc, m := newCountService(t)
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.Name = "Widget A"
		p.CurrentQuantity = 8
	})

	m.products.EXPECT().FindByID(gomock.Any(), product.BusinessID, product.ID).Return(product, nil)
	m.events.EXPECT().CountConflicted(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	sub := helpers.CreateTestSubmission(product.ID, 12, func(s *domain.CountSubmission) {
		s.ExpectedPreviousQuantity = helpers.IntPtr(10)
	})
	_, err := svc.SubmitCount(context.Background(), domain.CountContext{BusinessID: product.BusinessID}, sub)

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domain.ConflictData{Expected: 10, Actual: 8, ProductName: "Widget A"}, conflict.Data)
}

func TestCountService_SubmitBatch(t *testing.T) {
	businessID := uuid.New()
	cc := domain.CountContext{BusinessID: businessID, CountedBy: "device"}
	meta := domain.SyncMetadata{DeviceID: "dev-1", BatchID: "batch-1", NetworkQuality: domain.NetworkGood}

	t.Run("mixed_batch_reports_each_entry", func(t *testing.T) {
		svc, m := newCountService(t)
		products := helpers.CreateTestProducts(businessID, 3)
		missing := []uuid.UUID{uuid.New(), uuid.New()}

		req := &domain.BatchRequest{SyncMetadata: meta}
		req.Counts = []domain.CountSubmission{
			*helpers.CreateTestSubmission(products[0].ID, 1),
			*helpers.CreateTestSubmission(missing[0], 2),
			*helpers.CreateTestSubmission(products[1].ID, 3),
			*helpers.CreateTestSubmission(missing[1], 4),
			*helpers.CreateTestSubmission(products[2].ID, 5),
		}

		m.receipts.EXPECT().Get(gomock.Any(), businessID, "batch-1").Return(nil, ports.ErrCacheMiss)
		for _, p := range products {
			m.products.EXPECT().FindByID(gomock.Any(), businessID, p.ID).Return(p, nil)
		}
		for _, id := range missing {
			m.products.EXPECT().FindByID(gomock.Any(), businessID, id).Return(nil, nil)
		}
		m.counts.EXPECT().
			Record(gomock.Any(), gomock.Any(), true, gomock.Any()).
			DoAndReturn(func(_ context.Context, c *domain.InventoryCount, _ bool, _ domain.CountGuard) error {
				assert.Equal(t, "batch-1", c.BatchID)
				assert.Equal(t, domain.NetworkGood, c.NetworkQuality)
				assert.Equal(t, "dev-1", c.DeviceInfo["device_id"])
				return nil
			}).
			Times(3)
		m.events.EXPECT().CountRecorded(gomock.Any(), gomock.Any()).Return(nil).Times(3)
		m.receipts.EXPECT().Save(gomock.Any(), businessID, "batch-1", gomock.Any()).Return(nil)

		out, err := svc.SubmitBatch(context.Background(), cc, req)
		require.NoError(t, err)
		assert.False(t, out.Replayed)

		res := out.Result
		assert.Equal(t, 3, res.Processed)
		assert.Equal(t, 2, res.Failed)
		assert.Equal(t, 0, res.Conflicts)
		assert.Len(t, res.CountIDs, 3)
		require.Len(t, res.Errors, 2)
		assert.Equal(t, 1, res.Errors[0].Index)
		assert.Equal(t, missing[0], res.Errors[0].ProductID)
		assert.Equal(t, 3, res.Errors[1].Index)
		assert.True(t, res.PartialSuccess())
	})

	t.Run("conflicts_count_as_failures", func(t *testing.T) {
		svc, m := newCountService(t)
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.BusinessID = businessID
			p.CurrentQuantity = 8
		})

		req := &domain.BatchRequest{SyncMetadata: meta, Counts: []domain.CountSubmission{
			*helpers.CreateTestSubmission(product.ID, 12, func(s *domain.CountSubmission) {
				s.ExpectedPreviousQuantity = helpers.IntPtr(10)
			}),
		}}

		m.receipts.EXPECT().Get(gomock.Any(), businessID, "batch-1").Return(nil, ports.ErrCacheMiss)
		m.products.EXPECT().FindByID(gomock.Any(), businessID, product.ID).Return(product, nil)
		m.events.EXPECT().CountConflicted(gomock.Any(), businessID, product.ID, gomock.Any()).Return(nil)
		m.receipts.EXPECT().Save(gomock.Any(), businessID, "batch-1", gomock.Any()).Return(nil)

		out, err := svc.SubmitBatch(context.Background(), cc, req)
		require.NoError(t, err)

		res := out.Result
		assert.Equal(t, 0, res.Processed)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, 1, res.Conflicts)
		require.Len(t, res.Errors, 1)
		require.NotNil(t, res.Errors[0].ConflictData)
		assert.Equal(t, 10, res.Errors[0].ConflictData.Expected)
		assert.Equal(t, 8, res.Errors[0].ConflictData.Actual)
	})

	t.Run("invalid_entry_does_not_stop_the_rest", func(t *testing.T) {
		svc, m := newCountService(t)
		product := helpers.CreateTestProduct(func(p *domain.Product) { p.BusinessID = businessID })

		req := &domain.BatchRequest{SyncMetadata: meta, Counts: []domain.CountSubmission{
			{ProductID: product.ID},
			*helpers.CreateTestSubmission(product.ID, 7),
		}}

		m.receipts.EXPECT().Get(gomock.Any(), businessID, "batch-1").Return(nil, ports.ErrCacheMiss)
		m.products.EXPECT().FindByID(gomock.Any(), businessID, product.ID).Return(product, nil)
		m.counts.EXPECT().Record(gomock.Any(), gomock.Any(), true, gomock.Any()).Return(nil)
		m.events.EXPECT().CountRecorded(gomock.Any(), gomock.Any()).Return(nil)
		m.receipts.EXPECT().Save(gomock.Any(), businessID, "batch-1", gomock.Any()).Return(nil)

		out, err := svc.SubmitBatch(context.Background(), cc, req)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Result.Processed)
		assert.Equal(t, 1, out.Result.Failed)
		assert.Equal(t, 0, out.Result.Errors[0].Index)
		assert.Contains(t, out.Result.Errors[0].Error, "quantity is required")
	})

	t.Run("replayed_batch_returns_stored_result", func(t *testing.T) {
		svc, m := newCountService(t)
		stored := domain.NewBatchResult()
		stored.Succeeded(uuid.New())

		req := &domain.BatchRequest{SyncMetadata: meta, Counts: []domain.CountSubmission{
			*helpers.CreateTestSubmission(uuid.New(), 1),
		}}

		m.receipts.EXPECT().Get(gomock.Any(), businessID, "batch-1").Return(&domain.BatchReceipt{Result: stored}, nil)

		out, err := svc.SubmitBatch(context.Background(), cc, req)
		require.NoError(t, err)
		assert.True(t, out.Replayed)
		assert.Same(t, stored, out.Result)
	})

	t.Run("infrastructure_failure_is_left_pending", func(t *testing.T) {
		svc, m := newCountService(t)
		product := helpers.CreateTestProduct(func(p *domain.Product) { p.BusinessID = businessID })

		req := &domain.BatchRequest{SyncMetadata: meta, Counts: []domain.CountSubmission{
			*helpers.CreateTestSubmission(product.ID, 1),
		}}

		m.receipts.EXPECT().Get(gomock.Any(), businessID, "batch-1").Return(nil, ports.ErrCacheMiss)
		m.products.EXPECT().FindByID(gomock.Any(), businessID, product.ID).Return(nil, errors.New("pool exhausted"))
		m.receipts.EXPECT().
			Save(gomock.Any(), businessID, "batch-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _ string, r *domain.BatchReceipt) error {
				assert.Equal(t, []int{0}, r.Pending)
				assert.False(t, r.Complete())
				return nil
			})

		out, err := svc.SubmitBatch(context.Background(), cc, req)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Result.Failed)
		assert.Equal(t, "internal error", out.Result.Errors[0].Error)
	})

	t.Run("resend_evaluates_only_pending_entries", func(t *testing.T) {
		svc, m := newCountService(t)
		products := helpers.CreateTestProducts(businessID, 3)
		missing := uuid.New()

		req := &domain.BatchRequest{SyncMetadata: meta, Counts: []domain.CountSubmission{
			*helpers.CreateTestSubmission(products[0].ID, 4),
			*helpers.CreateTestSubmission(products[1].ID, 5),
			*helpers.CreateTestSubmission(missing, 6),
			*helpers.CreateTestSubmission(products[2].ID, 7),
		}}

		recorded := map[uuid.UUID]int{}
		record := func(_ context.Context, c *domain.InventoryCount, _ bool, _ domain.CountGuard) error {
			recorded[c.ProductID]++
			return nil
		}

		var saved *domain.BatchReceipt
		save := func(_ context.Context, _ uuid.UUID, _ string, r *domain.BatchReceipt) error {
			saved = r
			return nil
		}

		// First submission: entry 1 hits a dropped connection
		m.receipts.EXPECT().Get(gomock.Any(), businessID, "batch-1").Return(nil, ports.ErrCacheMiss)
		m.products.EXPECT().FindByID(gomock.Any(), businessID, products[0].ID).Return(products[0], nil)
		m.products.EXPECT().FindByID(gomock.Any(), businessID, products[1].ID).Return(products[1], nil)
		m.products.EXPECT().FindByID(gomock.Any(), businessID, missing).Return(nil, nil)
		m.products.EXPECT().FindByID(gomock.Any(), businessID, products[2].ID).Return(products[2], nil)
		gomock.InOrder(
			m.counts.EXPECT().Record(gomock.Any(), gomock.Any(), true, gomock.Any()).DoAndReturn(record),
			m.counts.EXPECT().Record(gomock.Any(), gomock.Any(), true, gomock.Any()).Return(errors.New("connection reset")),
			m.counts.EXPECT().Record(gomock.Any(), gomock.Any(), true, gomock.Any()).DoAndReturn(record),
		)
		m.events.EXPECT().CountRecorded(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		m.receipts.EXPECT().Save(gomock.Any(), businessID, "batch-1", gomock.Any()).DoAndReturn(save)

		out, err := svc.SubmitBatch(context.Background(), cc, req)
		require.NoError(t, err)
		assert.Equal(t, 2, out.Result.Processed)
		assert.Equal(t, 2, out.Result.Failed)
		require.NotNil(t, saved)
		assert.Equal(t, []int{1}, saved.Pending)

		// Resend: only entry 1 is evaluated again
		m.receipts.EXPECT().Get(gomock.Any(), businessID, "batch-1").Return(saved, nil)
		m.products.EXPECT().FindByID(gomock.Any(), businessID, products[1].ID).Return(products[1], nil)
		m.counts.EXPECT().Record(gomock.Any(), gomock.Any(), true, gomock.Any()).DoAndReturn(record)
		m.events.EXPECT().CountRecorded(gomock.Any(), gomock.Any()).Return(nil)
		m.receipts.EXPECT().Save(gomock.Any(), businessID, "batch-1", gomock.Any()).DoAndReturn(save)

		out, err = svc.SubmitBatch(context.Background(), cc, req)
		require.NoError(t, err)
		assert.False(t, out.Replayed)

		res := out.Result
		assert.Equal(t, 3, res.Processed)
		assert.Equal(t, 1, res.Failed)
		assert.Len(t, res.CountIDs, 3)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 2, res.Errors[0].Index)
		assert.Equal(t, missing, res.Errors[0].ProductID)
		assert.True(t, saved.Complete())

		for _, p := range products {
			assert.Equal(t, 1, recorded[p.ID], "product %s recorded once", p.Name)
		}

		// A third send is a pure replay
		m.receipts.EXPECT().Get(gomock.Any(), businessID, "batch-1").Return(saved, nil)
		out, err = svc.SubmitBatch(context.Background(), cc, req)
		require.NoError(t, err)
		assert.True(t, out.Replayed)
		assert.Equal(t, 3, out.Result.Processed)
	})

	t.Run("cancelled_batch_keeps_recorded_entries", func(t *testing.T) {
		svc, m := newCountService(t)
		products := helpers.CreateTestProducts(businessID, 2)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := &domain.BatchRequest{SyncMetadata: meta, Counts: []domain.CountSubmission{
			*helpers.CreateTestSubmission(products[0].ID, 1),
			*helpers.CreateTestSubmission(products[1].ID, 2),
		}}

		m.receipts.EXPECT().Get(gomock.Any(), businessID, "batch-1").Return(nil, ports.ErrCacheMiss)
		m.products.EXPECT().FindByID(gomock.Any(), businessID, products[0].ID).Return(products[0], nil)
		m.counts.EXPECT().Record(gomock.Any(), gomock.Any(), true, gomock.Any()).Return(nil)
		m.events.EXPECT().CountRecorded(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, *domain.InventoryCount) error {
			cancel()
			return nil
		})
		m.receipts.EXPECT().
			Save(gomock.Any(), businessID, "batch-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _ string, r *domain.BatchReceipt) error {
				assert.Equal(t, 1, r.Result.Processed)
				assert.Equal(t, []int{1}, r.Pending)
				return nil
			})

		_, err := svc.SubmitBatch(ctx, cc, req)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("envelope_errors_reject_the_whole_batch", func(t *testing.T) {
		tests := []struct {
			name          string
			req           *domain.BatchRequest
			expectedError error
		}{
			{
				name:          "empty",
				req:           &domain.BatchRequest{SyncMetadata: meta},
				expectedError: domain.ErrEmptyBatch,
			},
			{
				name: "over_fifty",
				req: &domain.BatchRequest{
					SyncMetadata: meta,
					Counts:       make([]domain.CountSubmission, domain.MaxBatchSize+1),
				},
				expectedError: domain.ErrBatchTooLarge,
			},
			{
				name: "missing_batch_id",
				req: &domain.BatchRequest{
					SyncMetadata: domain.SyncMetadata{DeviceID: "dev-1"},
					Counts:       []domain.CountSubmission{*helpers.CreateTestSubmission(uuid.New(), 1)},
				},
				expectedError: domain.ErrValidation,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, _ := newCountService(t)
				_, err := svc.SubmitBatch(context.Background(), cc, tt.req)
				assert.ErrorIs(t, err, tt.expectedError)
			})
		}
	})
}

func TestCountService_ListCounts(t *testing.T) {
	svc, m := newCountService(t)
	businessID := uuid.New()

	m.counts.EXPECT().
		FindAll(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f domain.CountFilter) ([]*domain.InventoryCount, int64, error) {
			assert.Equal(t, domain.MaxCountLimit, f.Limit)
			assert.Equal(t, 0, f.Offset)
			return nil, 0, nil
		})

	res, err := svc.ListCounts(context.Background(), domain.CountFilter{BusinessID: businessID, Limit: 500, Offset: -3})
	require.NoError(t, err)
	assert.NotNil(t, res.Counts)
	assert.Empty(t, res.Counts)
	assert.Equal(t, domain.MaxCountLimit, res.Limit)
}

func TestCountService_ExportCounts(t *testing.T) {
	t.Run("rejects_inverted_range", func(t *testing.T) {
		svc, _ := newCountService(t)
		from := helpers.CreateTestProduct().CreatedAt
		to := from.Add(-1)

		_, err := svc.ExportCounts(context.Background(), domain.CountRangeFilter{From: &from, To: &to})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("applies_default_row_cap", func(t *testing.T) {
		svc, m := newCountService(t)
		m.counts.EXPECT().
			FindRange(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, f domain.CountRangeFilter) ([]*domain.InventoryCount, error) {
				assert.Equal(t, domain.DefaultExportRows, f.MaxRows)
				return []*domain.InventoryCount{}, nil
			})

		counts, err := svc.ExportCounts(context.Background(), domain.CountRangeFilter{BusinessID: uuid.New()})
		require.NoError(t, err)
		assert.Empty(t, counts)
	})
}
