//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/countsync/internal/adapters/db"
	redis_a "github.com/ammerola/countsync/internal/adapters/redis_adapter"
	"github.com/ammerola/countsync/internal/adapters/storage"
	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/services"
	"github.com/ammerola/countsync/internal/handlers"
	"github.com/ammerola/countsync/internal/handlers/middleware"
	"github.com/ammerola/countsync/internal/offline"
	"github.com/ammerola/countsync/internal/offline/localdb"
	"github.com/ammerola/countsync/internal/workers"
	"github.com/ammerola/countsync/test/helpers"
)

type CountSyncE2ESuite struct {
	suite.Suite
	server     *httptest.Server
	client     *http.Client
	testDB     *helpers.TestDB
	testRedis  *helpers.TestRedis
	asynq      *asynq.Client
	businessID uuid.UUID
}

func (s *CountSyncE2ESuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())
	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
}

func (s *CountSyncE2ESuite) TearDownSuite() {
	s.server.Close()
	_ = s.asynq.Close()
}

func (s *CountSyncE2ESuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.testRedis.Server.FlushAll()
	s.businessID = uuid.New()
}

func (s *CountSyncE2ESuite) seedProduct(quantity int) *domain.Product {
	p := helpers.CreateTestProduct(func(p *domain.Product) {
		p.BusinessID = s.businessID
		p.CurrentQuantity = quantity
	})
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []*domain.Product{p})
	return p
}

func (s *CountSyncE2ESuite) TestCountWorkflow() {
	product := s.seedProduct(40)

	resp := s.makeRequest(http.MethodPost, "/api/v1/inventory/counts", helpers.CreateTestSubmission(product.ID, 37))
	s.Equal(http.StatusCreated, resp.StatusCode)
	var first domain.CountResult
	s.decodeResponse(resp, &first)
	s.Equal(40, first.PreviousQuantity)
	s.Equal(-3, first.QuantityChange)

	resp = s.makeRequest(http.MethodPost, "/api/v1/inventory/counts", helpers.CreateTestSubmission(product.ID, 41))
	s.Equal(http.StatusCreated, resp.StatusCode)
	var second domain.CountResult
	s.decodeResponse(resp, &second)
	s.Equal(37, second.PreviousQuantity)

	resp = s.makeRequest(http.MethodGet, "/api/v1/inventory/counts?product_id="+product.ID.String(), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var list struct {
		Counts     []domain.InventoryCount `json:"counts"`
		TotalCount int64                   `json:"total_count"`
	}
	s.decodeResponse(resp, &list)
	s.Equal(int64(2), list.TotalCount)
}

func (s *CountSyncE2ESuite) TestStaleCountConflicts() {
	product := s.seedProduct(20)

	sub := helpers.CreateTestSubmission(product.ID, 18, func(c *domain.CountSubmission) {
		c.ExpectedPreviousQuantity = helpers.IntPtr(15)
	})
	resp := s.makeRequest(http.MethodPost, "/api/v1/inventory/counts", sub)
	s.Equal(http.StatusConflict, resp.StatusCode)

	var conflict handlers.ConflictResponse
	s.decodeResponse(resp, &conflict)
	s.Equal(15, conflict.ConflictData.Expected)
	s.Equal(20, conflict.ConflictData.Actual)
	s.Equal(product.Name, conflict.ConflictData.ProductName)
}

func (s *CountSyncE2ESuite) TestBatchPartialFailureAndReplay() {
	product := s.seedProduct(10)

	batch := domain.BatchRequest{
		Counts: []domain.CountSubmission{
			*helpers.CreateTestSubmission(product.ID, 12),
			*helpers.CreateTestSubmission(uuid.New(), 3),
			*helpers.CreateTestSubmission(product.ID, 11, func(c *domain.CountSubmission) {
				c.ExpectedPreviousQuantity = helpers.IntPtr(10)
			}),
		},
		SyncMetadata: domain.SyncMetadata{DeviceID: "scanner-1", BatchID: "batch-" + uuid.NewString()},
	}

	resp := s.makeRequest(http.MethodPost, "/api/v1/inventory/counts/batch", batch)
	s.Equal(http.StatusMultiStatus, resp.StatusCode)
	var result domain.BatchResult
	s.decodeResponse(resp, &result)
	s.Equal(1, result.Processed)
	s.Equal(2, result.Failed)
	s.Equal(1, result.Conflicts)

	resp = s.makeRequest(http.MethodPost, "/api/v1/inventory/counts/batch", batch)
	s.Equal(http.StatusMultiStatus, resp.StatusCode)
	s.Equal("true", resp.Header.Get(handlers.HeaderIdempotentReply))
	var replay domain.BatchResult
	s.decodeResponse(resp, &replay)
	s.Equal(result.CountIDs, replay.CountIDs)
}

func (s *CountSyncE2ESuite) TestOfflineDeviceSync() {
	ctx := context.Background()
	product := s.seedProduct(5)

	store, err := localdb.Open(localdb.MemoryPath, helpers.TestLogger())
	s.Require().NoError(err)
	defer store.Close()

	cfg := offline.Config{
		APIURL:        s.server.URL,
		BusinessID:    s.businessID,
		DeviceID:      "scanner-e2e",
		MaxRetries:    3,
		SyncInterval:  time.Hour,
		ProbeInterval: time.Hour,
		ProbeTimeout:  2 * time.Second,
	}
	client, err := offline.NewClient(offline.ClientConfig{
		BaseURL:    cfg.APIURL,
		BusinessID: cfg.BusinessID,
		UserID:     "e2e",
		DeviceID:   cfg.DeviceID,
	}, s.client, helpers.TestLogger())
	s.Require().NoError(err)
	engine := offline.NewEngine(store, client, client, cfg, helpers.TestLogger())

	newID := uuid.New()
	create, err := offline.NewProductOperation(offline.KindProductCreate, offline.ProductPayload{
		ID: &newID, Name: "Shelf bracket", CurrentQuantity: 0,
	})
	s.Require().NoError(err)

	ops := []offline.Operation{create}
	for _, qty := range []int{7, 9} {
		op, err := offline.NewCountOperation(helpers.CreateTestSubmission(product.ID, qty))
		s.Require().NoError(err)
		ops = append(ops, op)
	}
	stale, err := offline.NewCountOperation(helpers.CreateTestSubmission(product.ID, 1, func(c *domain.CountSubmission) {
		c.ExpectedPreviousQuantity = helpers.IntPtr(5)
	}))
	s.Require().NoError(err)
	ops = append(ops, stale)

	for _, op := range ops {
		_, err := engine.Queue.Enqueue(ctx, op)
		s.Require().NoError(err)
	}

	report, err := engine.SyncOnce(ctx)
	s.Require().NoError(err)
	s.Equal(3, report.Succeeded)
	s.Equal(1, report.Conflicted)
	s.Zero(report.Remaining)

	dead, err := engine.Queue.DeadLetters(ctx)
	s.Require().NoError(err)
	s.Require().Len(dead, 1)
	s.Equal(offline.ReasonConflict, dead[0].Reason)
	s.Require().NotNil(dead[0].Conflict)
	s.Equal(9, dead[0].Conflict.Actual)

	resp := s.makeRequest(http.MethodGet, "/api/v1/products/"+product.ID.String(), nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var got domain.Product
	s.decodeResponse(resp, &got)
	s.Equal(9, got.CurrentQuantity)

	// Replaying the create is harmless
	_, err = engine.Queue.Enqueue(ctx, create)
	s.Require().NoError(err)
	report, err = engine.SyncOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Succeeded)
}

func (s *CountSyncE2ESuite) TestHealthCheck() {
	resp := s.makeRequest(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]any
	s.decodeResponse(resp, &health)
	s.Contains(health, "services")
}

func (s *CountSyncE2ESuite) startTestServer() *httptest.Server {
	logger := helpers.TestLogger()
	cfg := helpers.LoadTestConfig()

	s.asynq = asynq.NewClient(asynq.RedisClientOpt{Addr: s.testRedis.Server.Addr()})
	publisher := workers.NewPublisher(s.asynq, cfg.Counts.ConflictNotifyQueue, logger)

	cache := redis_a.NewCache(s.testRedis.Client, time.Minute, logger)
	evidence, err := storage.NewLocalStorage(s.T().TempDir(), logger)
	s.Require().NoError(err)

	productRepo := db.NewProductRepository(s.testDB.Database, logger)
	countRepo := db.NewCountRepository(s.testDB.Database, logger)
	cachedProducts := redis_a.NewCachedProductRepository(productRepo, cache, time.Minute, logger)
	receipts := redis_a.NewBatchReceipts(cache, time.Hour)

	countService := services.NewCountService(productRepo, countRepo, receipts, publisher, logger)
	productService := services.NewProductService(cachedProducts, logger)

	router := &handlers.Router{
		Health:   handlers.NewHealthHandler(s.testDB.Database, s.testRedis.Client, nil, cfg.App, logger),
		Counts:   handlers.NewCountHandler(countService, logger),
		Reports:  handlers.NewReportHandler(countService, publisher, cache, cfg.Counts.ExportMaxRows, logger),
		Products: handlers.NewProductHandler(productService, logger),
		Evidence: handlers.NewEvidenceHandler(evidence, 5<<20, time.Minute, logger),
	}

	mux := http.NewServeMux()
	router.Register(mux)

	return httptest.NewServer(middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
	))
}

func (s *CountSyncE2ESuite) makeRequest(method, path string, body any) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reqBody)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.HeaderBusinessID, s.businessID.String())
	req.Header.Set(middleware.HeaderUserID, "e2e")

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *CountSyncE2ESuite) decodeResponse(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func TestCountSyncE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(CountSyncE2ESuite))
}
