//go:build integration
// +build integration

package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/countsync/internal/adapters/db"
	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
	"github.com/ammerola/countsync/internal/core/services"
	"github.com/ammerola/countsync/test/helpers"
)

type RepositorySuite struct {
	suite.Suite
	testDB   *helpers.TestDB
	products *db.ProductRepository
	counts   *db.CountRepository
	ctx      context.Context
}

func (s *RepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.products = db.NewProductRepository(s.testDB.Database, helpers.TestLogger())
	s.counts = db.NewCountRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *RepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *RepositorySuite) newCount(p *domain.Product, quantity int, verified bool) *domain.InventoryCount {
	sub := helpers.CreateTestSubmission(p.ID, quantity, func(sub *domain.CountSubmission) {
		sub.Verified = &verified
		sub.DeviceInfo = map[string]any{"model": "TC52"}
		sub.GPSCoordinates = &domain.GPSCoordinates{Latitude: 51.5, Longitude: -0.12}
		sub.Images = []string{"evidence/a.jpg"}
	})
	meta := &domain.SyncMetadata{DeviceID: "dev-1", BatchID: "batch-1", NetworkQuality: domain.NetworkFair}
	cc := domain.CountContext{BusinessID: p.BusinessID, CountedBy: "device", Metadata: meta}
	return domain.NewInventoryCount(sub, cc, p.CurrentQuantity, time.Now().UTC())
}

func (s *RepositorySuite) TestProductSaveAndFind() {
	product := helpers.CreateTestProduct()
	s.Require().NoError(s.products.Save(s.ctx, product))

	found, err := s.products.FindByID(s.ctx, product.BusinessID, product.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(product.Name, found.Name)
	s.Equal(product.SKU, found.SKU)
	s.Equal(10, found.CurrentQuantity)
	s.True(product.Price.Equal(found.Price))

	other, err := s.products.FindByID(s.ctx, uuid.New(), product.ID)
	s.NoError(err)
	s.Nil(other, "products are scoped to their business")
}

func (s *RepositorySuite) TestProductUpdateAndSoftDelete() {
	product := helpers.CreateTestProduct()
	s.Require().NoError(s.products.Save(s.ctx, product))

	product.Name = "Widget B"
	product.CurrentQuantity = 12
	s.Require().NoError(s.products.Update(s.ctx, product))

	found, err := s.products.FindByID(s.ctx, product.BusinessID, product.ID)
	s.Require().NoError(err)
	s.Equal("Widget B", found.Name)
	s.Equal(12, found.CurrentQuantity)

	s.Require().NoError(s.products.SoftDelete(s.ctx, product.BusinessID, product.ID))
	s.ErrorIs(s.products.SoftDelete(s.ctx, product.BusinessID, product.ID), domain.ErrProductNotFound)

	found, err = s.products.FindByID(s.ctx, product.BusinessID, product.ID)
	s.NoError(err)
	s.Nil(found)
}

func (s *RepositorySuite) TestProductFindAll() {
	businessID := uuid.New()
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, helpers.CreateTestProducts(businessID, 5))
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, helpers.CreateTestProducts(uuid.New(), 2))

	all, total, err := s.products.FindAll(s.ctx, ports.ProductListParams{BusinessID: businessID, Limit: 3})
	s.Require().NoError(err)
	s.Equal(int64(5), total)
	s.Len(all, 3)

	found, total, err := s.products.FindAll(s.ctx, ports.ProductListParams{BusinessID: businessID, Search: "sku-004"})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("Test Product 4", found[0].Name)
}

func (s *RepositorySuite) TestRecordVerifiedCountMovesQuantity() {
	product := helpers.CreateTestProduct(func(p *domain.Product) { p.CurrentQuantity = 40 })
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})

	count := s.newCount(product, 45, true)
	s.Require().NoError(s.counts.Record(s.ctx, count, true, nil))

	found, err := s.products.FindByID(s.ctx, product.BusinessID, product.ID)
	s.Require().NoError(err)
	s.Equal(45, found.CurrentQuantity)

	list, total, err := s.counts.FindAll(s.ctx, domain.CountFilter{BusinessID: product.BusinessID})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(list, 1)

	got := list[0]
	s.Equal(count.ID, got.ID)
	s.Equal(40, got.PreviousQuantity)
	s.Equal(5, got.Difference)
	s.Equal("batch-1", got.BatchID)
	s.Equal(domain.NetworkFair, got.NetworkQuality)
	s.Equal("dev-1", got.DeviceInfo["device_id"])
	s.Require().NotNil(got.GPSCoordinates)
	s.InDelta(51.5, got.GPSCoordinates.Latitude, 0.0001)
	s.Equal([]string{"evidence/a.jpg"}, got.Images)
	s.Require().NotNil(got.Product)
	s.Equal(product.Name, got.Product.Name)
}

func (s *RepositorySuite) TestRecordUnverifiedCountLeavesQuantity() {
	product := helpers.CreateTestProduct(func(p *domain.Product) { p.CurrentQuantity = 40 })
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})

	s.Require().NoError(s.counts.Record(s.ctx, s.newCount(product, 30, false), false, nil))

	found, err := s.products.FindByID(s.ctx, product.BusinessID, product.ID)
	s.Require().NoError(err)
	s.Equal(40, found.CurrentQuantity)
}

func (s *RepositorySuite) TestRecordRollsBackWhenProductDeleted() {
	product := helpers.CreateTestProduct()
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})
	s.Require().NoError(s.products.SoftDelete(s.ctx, product.BusinessID, product.ID))

	err := s.counts.Record(s.ctx, s.newCount(product, 3, true), true, nil)
	s.ErrorIs(err, domain.ErrProductNotFound)

	_, total, err := s.counts.FindAll(s.ctx, domain.CountFilter{BusinessID: product.BusinessID})
	s.Require().NoError(err)
	s.Zero(total, "no count is written for a deleted product")
}

func expectQuantity(expected int) domain.CountGuard {
	detector := services.NewConflictDetector()
	return func(locked *domain.Product) error {
		return detector.Check(locked, &expected).Err()
	}
}

func (s *RepositorySuite) TestRecordRebasesOnLockedQuantity() {
	product := helpers.CreateTestProduct(func(p *domain.Product) { p.CurrentQuantity = 40 })
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})

	// Built from a stale read of 40; the row now holds 50
	count := s.newCount(product, 45, true)
	_, err := s.testDB.PgxPool.Exec(s.ctx, `UPDATE products SET current_quantity = 50 WHERE id = $1`, product.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.counts.Record(s.ctx, count, true, nil))
	s.Equal(50, count.PreviousQuantity)
	s.Equal(-5, count.Difference)

	list, _, err := s.counts.FindAll(s.ctx, domain.CountFilter{BusinessID: product.BusinessID})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(50, list[0].PreviousQuantity)
	s.Equal(-5, list[0].Difference)
}

func (s *RepositorySuite) TestRecordGuardRejectsChangedRow() {
	product := helpers.CreateTestProduct(func(p *domain.Product) { p.CurrentQuantity = 40 })
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})
	_, err := s.testDB.PgxPool.Exec(s.ctx, `UPDATE products SET current_quantity = 42 WHERE id = $1`, product.ID)
	s.Require().NoError(err)

	err = s.counts.Record(s.ctx, s.newCount(product, 45, true), true, expectQuantity(40))
	var conflict *domain.ConflictError
	s.Require().ErrorAs(err, &conflict)
	s.Equal(domain.ConflictData{Expected: 40, Actual: 42, ProductName: product.Name}, conflict.Data)

	found, err := s.products.FindByID(s.ctx, product.BusinessID, product.ID)
	s.Require().NoError(err)
	s.Equal(42, found.CurrentQuantity)

	_, total, err := s.counts.FindAll(s.ctx, domain.CountFilter{BusinessID: product.BusinessID})
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *RepositorySuite) TestConcurrentCountsOfOneProductSerialize() {
	product := helpers.CreateTestProduct(func(p *domain.Product) { p.CurrentQuantity = 40 })
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})

	const devices = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		recorded  int
		conflicts int
	)
	for i := 0; i < devices; i++ {
		wg.Add(1)
		go func(quantity int) {
			defer wg.Done()
			err := s.counts.Record(s.ctx, s.newCount(product, quantity, true), true, expectQuantity(40))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				recorded++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}(41 + i)
	}
	wg.Wait()

	s.Equal(1, recorded, "only one device saw 40 under the lock")
	s.Equal(devices-1, conflicts)

	list, total, err := s.counts.FindAll(s.ctx, domain.CountFilter{BusinessID: product.BusinessID})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(40, list[0].PreviousQuantity)
}

func (s *RepositorySuite) TestFindAllNewestFirstAndFilters() {
	product := helpers.CreateTestProduct()
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})
	session := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		c := s.newCount(product, i+1, false)
		c.CreatedAt = c.CreatedAt.Add(time.Duration(i) * time.Second)
		if i == 2 {
			c.SessionID = &session
		}
		s.Require().NoError(s.counts.Record(s.ctx, c, false, nil))
		ids = append(ids, c.ID)
	}

	list, _, err := s.counts.FindAll(s.ctx, domain.CountFilter{BusinessID: product.BusinessID})
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal(ids[2], list[0].ID)
	s.Equal(ids[0], list[2].ID)

	list, total, err := s.counts.FindAll(s.ctx, domain.CountFilter{BusinessID: product.BusinessID, SessionID: &session})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(ids[2], list[0].ID)
}

func (s *RepositorySuite) TestFindRangeAndReferencedEvidence() {
	product := helpers.CreateTestProduct()
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []*domain.Product{product})

	s.Require().NoError(s.counts.Record(s.ctx, s.newCount(product, 10, false), false, nil))
	s.Require().NoError(s.counts.Record(s.ctx, s.newCount(product, 7, false), false, nil))

	all, err := s.counts.FindRange(s.ctx, domain.CountRangeFilter{BusinessID: product.BusinessID})
	s.Require().NoError(err)
	s.Len(all, 2)

	variance, err := s.counts.FindRange(s.ctx, domain.CountRangeFilter{BusinessID: product.BusinessID, VarianceOnly: true})
	s.Require().NoError(err)
	s.Require().Len(variance, 1)
	s.Equal(-3, variance[0].Difference)

	refs, err := s.counts.ReferencedEvidence(s.ctx, []string{"evidence/a.jpg", "evidence/orphan.jpg"})
	s.Require().NoError(err)
	s.True(refs["evidence/a.jpg"])
	s.False(refs["evidence/orphan.jpg"])
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(RepositorySuite))
}
