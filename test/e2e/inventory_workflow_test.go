//go:build e2e
// +build e2e

package e2e_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/inventory-service/internal/adapters/db"
	"github.com/ammerola/inventory-service/internal/adapters/queue"
	redis_a "github.com/ammerola/inventory-service/internal/adapters/redis_adapter"
	"github.com/ammerola/inventory-service/internal/adapters/storage"
	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/services"
	"github.com/ammerola/inventory-service/internal/handlers"
	"github.com/ammerola/inventory-service/internal/handlers/middleware"
	"github.com/ammerola/inventory-service/internal/pkg/logger"
	"github.com/ammerola/inventory-service/pkg/inventoryclient"
	"github.com/ammerola/inventory-service/test/helpers"
)

// taskRecorder stands in for the asynq client
type taskRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *taskRecorder) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, task.Type())
	return &asynq.TaskInfo{ID: "test", Queue: "default", Type: task.Type()}, nil
}

func (r *taskRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = nil
}

func (r *taskRecorder) count(taskType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.types {
		if t == taskType {
			n++
		}
	}
	return n
}

type InventoryE2ESuite struct {
	suite.Suite
	server    *httptest.Server
	client    *inventoryclient.Client
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis
	tasks     *taskRecorder
}

func (s *InventoryE2ESuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())
	s.tasks = &taskRecorder{}

	s.server = s.startTestServer()
	s.client = inventoryclient.New(inventoryclient.Config{BaseURL: s.server.URL, Timeout: 10 * time.Second})
}

func (s *InventoryE2ESuite) TearDownSuite() {
	s.server.Close()
}

func (s *InventoryE2ESuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.testRedis.Server.FlushAll()
	s.tasks.reset()
}

func (s *InventoryE2ESuite) TestCompleteInventoryWorkflow() {
	ctx := context.Background()

	// 1. Create items
	item, err := s.client.AddItem(ctx, helpers.NewItemRequest("E2E-BOOK", 5))
	s.Require().NoError(err)
	s.NotZero(item.ID)
	s.Equal(5, item.Quantity)

	_, err = s.client.AddItem(ctx, helpers.NewItemRequest("E2E-PEN", 0))
	s.Require().NoError(err)

	_, err = s.client.AddItem(ctx, helpers.NewItemRequest("E2E-BOOK", 1))
	s.ErrorIs(err, domain.ErrItemExists)

	// 2. Read them back
	got, err := s.client.GetItem(ctx, "E2E-BOOK")
	s.Require().NoError(err)
	s.Equal(domain.ItemResponse{ItemCode: "E2E-BOOK", Quantity: 5, IsInStock: true}, got)

	all, err := s.client.GetAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	inStock, err := s.client.GetAllItemsInStock(ctx)
	s.Require().NoError(err)
	s.Equal([]domain.ItemResponse{{ItemCode: "E2E-BOOK", Quantity: 5, IsInStock: true}}, inStock)

	// 3. Restock the pen
	pen, err := s.client.ChangeAmount(ctx, "E2E-PEN", 3)
	s.Require().NoError(err)
	s.True(pen.IsInStock)

	many, err := s.client.IsInStockManyItems(ctx, []string{"E2E-BOOK", "E2E-PEN"})
	s.Require().NoError(err)
	s.Len(many, 2)

	// 4. Decrease both, retrying with the same idempotency key
	adjustments := []domain.StockAdjustment{
		{ItemCode: "E2E-BOOK", Amount: 2},
		{ItemCode: "E2E-PEN", Amount: 3},
	}
	keyed := inventoryclient.WithIdempotencyKey(ctx, "order-1")

	_, err = s.client.DecreaseQuantityManyItems(keyed, adjustments)
	s.Require().NoError(err)
	_, err = s.client.DecreaseQuantityManyItems(keyed, adjustments)
	s.Require().NoError(err)

	got, err = s.client.GetItem(ctx, "E2E-BOOK")
	s.Require().NoError(err)
	s.Equal(3, got.Quantity, "replayed decrease must not apply twice")

	got, err = s.client.GetItem(ctx, "E2E-PEN")
	s.Require().NoError(err)
	s.False(got.IsInStock)
	s.Equal(1, s.tasks.count(queue.TypeStockDepleted))

	// 5. Rejected decreases change nothing
	_, err = s.client.DecreaseQuantityManyItems(ctx, []domain.StockAdjustment{
		{ItemCode: "E2E-BOOK", Amount: 1},
		{ItemCode: "E2E-PEN", Amount: 1},
	})
	s.ErrorIs(err, domain.ErrInsufficientStock)

	_, err = s.client.DecreaseQuantityManyItems(ctx, []domain.StockAdjustment{
		{ItemCode: "E2E-BOOK", Amount: 1},
		{ItemCode: "MISSING", Amount: 1},
	})
	s.ErrorIs(err, domain.ErrItemNotFound)

	got, err = s.client.GetItem(ctx, "E2E-BOOK")
	s.Require().NoError(err)
	s.Equal(3, got.Quantity)

	// 6. Export
	resp, err := http.Get(s.server.URL + "/inventory/export/xlsx")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(domain.SnapshotContentType, resp.Header.Get("Content-Type"))

	// 7. Delete
	s.Require().NoError(s.client.DeleteItem(ctx, "E2E-BOOK"))
	s.ErrorIs(s.client.DeleteItem(ctx, "E2E-BOOK"), domain.ErrItemNotFound)

	got, err = s.client.GetItem(ctx, "E2E-BOOK")
	s.Require().NoError(err)
	s.Equal(domain.ItemResponse{}, got)
}

func (s *InventoryE2ESuite) TestConcurrentDecrements() {
	ctx := context.Background()

	_, err := s.client.AddItem(ctx, helpers.NewItemRequest("HOT-ITEM", 10))
	s.Require().NoError(err)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.client.DecreaseQuantityManyItems(ctx, []domain.StockAdjustment{{ItemCode: "HOT-ITEM", Amount: 1}})
			if err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(10), succeeded.Load())

	got, err := s.client.GetItem(ctx, "HOT-ITEM")
	s.Require().NoError(err)
	s.Equal(0, got.Quantity)
}

func (s *InventoryE2ESuite) TestHealthCheck() {
	resp, err := http.Get(s.server.URL + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&health))
	s.Equal("healthy", health["status"])

	services := health["services"].(map[string]any)
	s.Contains(services, "database")
	s.Contains(services, "redis")
	s.NotEmpty(resp.Header.Get("X-Request-ID"))
}

// startTestServer assembles the API the way cmd/api does, with the asynq
// client swapped for a recorder and snapshots kept on local disk
func (s *InventoryE2ESuite) startTestServer() *httptest.Server {
	cfg := helpers.LoadTestConfig()
	log := helpers.TestLogger()

	cache := redis_a.NewCache(s.testRedis.Client, cfg.Redis.IdempotencyTTL, log)
	repo := db.NewItemRepository(s.testDB.Database, log)
	publisher := queue.NewPublisher(s.tasks, 1, time.Minute, log)

	inventory := services.NewInventoryService(repo, publisher, log)
	snapshots := services.NewSnapshotService(repo, storage.NewLocalStorage(s.T().TempDir(), log), "snapshots", log)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(s.testDB.Database, cache, nil, cfg, log).RegisterRoutes(mux)
	handlers.NewInventoryHandler(inventory, redis_a.NewIdempotencyStore(cache, log), cfg.Redis.IdempotencyTTL, log).RegisterRoutes(mux)
	handlers.NewExportHandler(snapshots, cache, time.Second, log).RegisterRoutes(mux)

	appLogger := logger.NewLogger(&logger.LogConfig{Level: "error", Format: "text"})

	return httptest.NewServer(middleware.Chain(mux,
		middleware.RequestID(cfg.Server.RequestIDHeader),
		middleware.Tracing(mux),
		middleware.Logger(appLogger),
		middleware.Recovery(log),
		middleware.SecureHeaders,
		middleware.Timeout(cfg.Server.RequestTimeout),
	))
}

func TestInventoryE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(InventoryE2ESuite))
}
