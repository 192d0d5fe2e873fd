package events

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const producer = "storefront-api"

// 全イベント共通の封筒
type Envelope[T any] struct {
	EventName    string    `json:"eventName"`
	EventVersion int       `json:"eventVersion"`
	EventID      string    `json:"eventId"`
	Producer     string    `json:"producer"`
	PartitionKey string    `json:"partitionKey"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      T         `json:"payload"`
}

func newEnvelope[T any](name string, orderID int64, payload T, now time.Time) Envelope[T] {
	return Envelope[T]{
		EventName:    name,
		EventVersion: 1,
		EventID:      uuid.NewString(),
		Producer:     producer,
		PartitionKey: strconv.FormatInt(orderID, 10),
		OccurredAt:   now.UTC(),
		Payload:      payload,
	}
}

// Validate は受信側で名前とバージョンを確かめる
func (e Envelope[T]) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName: %s", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion: %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	return nil
}
