// internal/handlers/health_test.go
package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/countsync/internal/handlers"
	"github.com/ammerola/countsync/internal/pkg/config"
	"github.com/ammerola/countsync/test/helpers"
	"github.com/ammerola/countsync/test/mocks"
)

type fakeInspector struct {
	err error
}

func (f fakeInspector) Queues() ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"default"}, nil
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Size: 2, Pending: 2}, nil
}

func (f fakeInspector) Servers() ([]*asynq.ServerInfo, error) {
	return nil, nil
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		stopRedis      bool
		queueErr       error
		expectedStatus int
		expectedState  string
	}{
		{name: "healthy", expectedStatus: http.StatusOK, expectedState: "healthy"},
		{name: "database_down", dbErr: errors.New("refused"), expectedStatus: http.StatusServiceUnavailable, expectedState: "unhealthy"},
		{name: "redis_down_is_degraded", stopRedis: true, expectedStatus: http.StatusOK, expectedState: "degraded"},
		{name: "queue_down_is_degraded", queueErr: errors.New("no queues"), expectedStatus: http.StatusOK, expectedState: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			db := mocks.NewMockDatabase(ctrl)
			db.EXPECT().Ping(gomock.Any()).Return(tt.dbErr)
			if tt.dbErr == nil {
				db.EXPECT().Health(gomock.Any()).Return(map[string]interface{}{"total_conns": 1})
			}

			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			if tt.stopRedis {
				mr.Close()
			}

			h := handlers.NewHealthHandler(db, client, fakeInspector{err: tt.queueErr},
				config.AppConfig{Version: "1.2.3", Environment: "test"}, helpers.TestLogger())

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeBody[handlers.HealthStatus](t, w)
			assert.Equal(t, tt.expectedState, body.Status)
			assert.Equal(t, "1.2.3", body.Version)
			require.Contains(t, body.Services, "database")
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDatabase(ctrl)
	db.EXPECT().Ping(gomock.Any()).Return(errors.New("refused"))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := handlers.NewHealthHandler(db, client, nil, config.AppConfig{}, helpers.TestLogger())

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, false, body["ready"])
}
