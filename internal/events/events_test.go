package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	placed  []OrderPlaced
	changed []OrderStatusChanged
	err     error
}

func (r *recordingPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error {
	r.placed = append(r.placed, ev)
	return r.err
}

func (r *recordingPublisher) PublishOrderStatusChanged(ctx context.Context, ev OrderStatusChanged) error {
	r.changed = append(r.changed, ev)
	return r.err
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{err: errors.New("broker down")}
	p := Multi(a, b, NopPublisher{})

	err := p.PublishOrderPlaced(context.Background(), OrderPlaced{OrderID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, a.placed, 1)
	assert.Len(t, b.placed, 1)

	err = Multi(a).PublishOrderStatusChanged(context.Background(), OrderStatusChanged{OrderID: 1, To: "completed"})
	assert.NoError(t, err)
	assert.Len(t, a.changed, 1)
}

func TestEnvelope_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env := newEnvelope(OrderPlacedQueue, 77, OrderPlaced{OrderID: 77, TotalAmount: decimal.RequireFromString("12.5")}, now)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var got Envelope[OrderPlaced]
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.NoError(t, got.Validate(OrderPlacedQueue, 1))
	assert.Equal(t, "77", got.PartitionKey)
	assert.NotEmpty(t, got.EventID)
	assert.True(t, got.Payload.TotalAmount.Equal(decimal.RequireFromString("12.5")))
	assert.Error(t, got.Validate(OrderStatusChangedQueue, 1))
}
