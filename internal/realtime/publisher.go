package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slotwise/bookingd/internal/scheduling"
)

// Topic naming for the two dashboard audiences.
func ProviderTopic(id uuid.UUID) string { return fmt.Sprintf("provider:%s", id) }
func ClientTopic(id uuid.UUID) string   { return fmt.Sprintf("client:%s", id) }

// Publisher adapts the hub to the engine's publish interface. Every booking
// event reaches both sides of the appointment.
type Publisher struct {
	hub *Hub
}

// NewPublisher creates a hub-backed event publisher.
func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

// Publish broadcasts the event to the appointment's provider and client
// topics. It never blocks and never fails delivery-wise; only a marshalling
// problem is reported.
func (p *Publisher) Publish(_ context.Context, event scheduling.Event) error {
	if event.Appointment == nil {
		return fmt.Errorf("realtime: event %s has no appointment", event.Type)
	}
	data, err := json.Marshal(event.Appointment)
	if err != nil {
		return fmt.Errorf("realtime: marshal appointment: %w", err)
	}
	wire := WireEvent{
		Type:      event.Type,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	p.hub.Broadcast(ProviderTopic(event.Appointment.ProviderID), wire)
	p.hub.Broadcast(ClientTopic(event.Appointment.ClientID), wire)
	return nil
}
