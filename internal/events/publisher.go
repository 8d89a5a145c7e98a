package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonredis "owl-hotel/common/redis"

	"github.com/go-redis/redis/v8"
)

// Type identifies an inventory or booking change.
type Type string

const (
	BookingCreated       Type = "booking.created"
	BookingStatusChanged Type = "booking.status_changed"
	InventoryChanged     Type = "inventory.changed"
	BedStatusChanged     Type = "bed.status_changed"
)

// Event is published after a write commits. Consumers must treat it as
// a hint and re-read state; delivery is best effort.
type Event struct {
	Type       Type      `json:"type"`
	HotelID    string    `json:"hotel_id"`
	FloorID    string    `json:"floor_id,omitempty"`
	RoomID     string    `json:"room_id,omitempty"`
	BedID      string    `json:"bed_id,omitempty"`
	BookingID  string    `json:"booking_id,omitempty"`
	Action     string    `json:"action,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StreamPublisher appends events to a Redis stream (XADD, capped).
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamPublisher(client *redis.Client, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, e Event) error {
	if _, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, p.maxLen, string(e.Type), e); err != nil {
		return fmt.Errorf("failed to publish %s to stream %s: %w", e.Type, p.stream, err)
	}
	return nil
}

// mqttClient is the part of common/mqtt.Client used here.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher sends events to <prefix>/hotels/<hotel>/events/<type>.
type MQTTPublisher struct {
	client mqttClient
	prefix string
	qos    byte
}

func NewMQTTPublisher(client mqttClient, prefix string, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, qos: qos}
}

func (p *MQTTPublisher) Topic(e Event) string {
	return fmt.Sprintf("%s/hotels/%s/events/%s", p.prefix, e.HotelID, e.Type)
}

func (p *MQTTPublisher) Publish(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.client.Publish(p.Topic(e), p.qos, false, payload)
}
