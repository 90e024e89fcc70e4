package offline_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/offline"
	"github.com/ammerola/countsync/test/helpers"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    offline.Kind
		wantErr bool
	}{
		{in: "count", want: offline.KindCount},
		{in: "product-create", want: offline.KindProductCreate},
		{in: " Product_Update ", want: offline.KindProductUpdate},
		{in: "product-delete", want: offline.KindProductDelete},
		{in: "restock", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := offline.ParseKind(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, offline.ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOperation_Validate(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name    string
		op      offline.Operation
		wantErr error
	}{
		{
			name: "valid_count",
			op:   offline.Operation{Kind: offline.KindCount, Payload: mustJSON(t, helpers.CreateTestSubmission(productID, 4))},
		},
		{
			name:    "count_without_quantity",
			op:      offline.Operation{Kind: offline.KindCount, Payload: json.RawMessage(`{"product_id":"` + productID.String() + `"}`)},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "count_with_negative_quantity",
			op:      offline.Operation{Kind: offline.KindCount, Payload: mustJSON(t, helpers.CreateTestSubmission(productID, -1))},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "empty_payload",
			op:      offline.Operation{Kind: offline.KindCount},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "malformed_payload",
			op:      offline.Operation{Kind: offline.KindProductCreate, Payload: json.RawMessage(`{"name":`)},
			wantErr: domain.ErrValidation,
		},
		{
			name: "create_without_id",
			op:   offline.Operation{Kind: offline.KindProductCreate, Payload: json.RawMessage(`{"name":"Widget","current_quantity":2}`)},
		},
		{
			name:    "create_without_name",
			op:      offline.Operation{Kind: offline.KindProductCreate, Payload: json.RawMessage(`{"current_quantity":2}`)},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "update_without_id",
			op:      offline.Operation{Kind: offline.KindProductUpdate, Payload: json.RawMessage(`{"name":"Widget"}`)},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "delete_with_nil_id",
			op:      offline.Operation{Kind: offline.KindProductDelete, Payload: mustJSON(t, offline.ProductRef{})},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown_kind",
			op:      offline.Operation{Kind: "restock", Payload: json.RawMessage(`{}`)},
			wantErr: offline.ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewProductOperation(t *testing.T) {
	t.Run("create_assigns_id", func(t *testing.T) {
		op, err := offline.NewProductOperation(offline.KindProductCreate, offline.ProductPayload{Name: "Widget"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, op.ProductID())
	})

	t.Run("update_keeps_id", func(t *testing.T) {
		id := uuid.New()
		op, err := offline.NewProductOperation(offline.KindProductUpdate, offline.ProductPayload{ID: &id, Name: "Widget"})
		require.NoError(t, err)
		assert.Equal(t, id, op.ProductID())
	})

	t.Run("rejects_delete_kind", func(t *testing.T) {
		_, err := offline.NewProductOperation(offline.KindProductDelete, offline.ProductPayload{Name: "Widget"})
		assert.ErrorIs(t, err, offline.ErrUnknownKind)
	})

	t.Run("count_targets_product", func(t *testing.T) {
		id := uuid.New()
		op, err := offline.NewCountOperation(helpers.CreateTestSubmission(id, 3))
		require.NoError(t, err)
		assert.Equal(t, id, op.ProductID())
	})
}

func TestOperation_Clone(t *testing.T) {
	op := offline.Operation{Kind: offline.KindCount, Payload: json.RawMessage(`{"a":1}`)}
	c := op.Clone()
	c.Payload[2] = 'b'
	assert.Equal(t, `{"a":1}`, string(op.Payload))
}

func TestRetryPolicy(t *testing.T) {
	policy := offline.RetryPolicy{MaxRetries: 2}

	assert.Equal(t, 2, policy.Ceiling(offline.Operation{}))
	assert.Equal(t, 5, policy.Ceiling(offline.Operation{MaxRetries: 5}))
	assert.Equal(t, offline.DefaultMaxRetries, offline.RetryPolicy{}.Ceiling(offline.Operation{}))

	assert.True(t, policy.ShouldRetry(offline.Operation{RetryCount: 1}))
	assert.False(t, policy.ShouldRetry(offline.Operation{RetryCount: 2}))
	assert.True(t, policy.Exhausted(offline.Operation{RetryCount: 3}))
}

func TestOutcome(t *testing.T) {
	assert.False(t, offline.Accepted(201).Retryable())
	assert.True(t, offline.Transient(503, "unavailable").Retryable())
	assert.False(t, offline.Terminal(400, "bad").Retryable())

	c := offline.Conflicted(domain.ConflictData{Expected: 10, Actual: 12, ProductName: "Widget"})
	assert.False(t, c.Retryable())
	assert.Equal(t, 409, c.StatusCode)
	assert.Equal(t, "conflict: expected 10 but server has 12", c.String())
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
