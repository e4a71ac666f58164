package notification

import (
	"context"
	"log"

	"studiorent/internal/domain"
)

// Sender delivers reservation lifecycle notifications. Calls are
// fire-and-forget from the engine's perspective: a failed notification must
// never roll back a reservation state change.
type Sender interface {
	NotifyReservationCreated(ctx context.Context, res *domain.Reservation) error
	NotifyPaymentCompleted(ctx context.Context, res *domain.Reservation) error
	NotifyReservationCancelled(ctx context.Context, res *domain.Reservation, reason string) error
}

// LogSender writes notifications to the process log.
type LogSender struct{}

func (LogSender) NotifyReservationCreated(_ context.Context, res *domain.Reservation) error {
	log.Printf("notify reservation_created ref=%s kind=%s customer=%s", res.Reference, res.Kind, res.Customer.Email)
	return nil
}

func (LogSender) NotifyPaymentCompleted(_ context.Context, res *domain.Reservation) error {
	log.Printf("notify payment_completed ref=%s total=%.2f", res.Reference, res.Total)
	return nil
}

func (LogSender) NotifyReservationCancelled(_ context.Context, res *domain.Reservation, reason string) error {
	log.Printf("notify reservation_cancelled ref=%s reason=%q", res.Reference, reason)
	return nil
}

// HubSender pushes events to the staff websocket feed.
type HubSender struct {
	hub *Hub
}

func NewHubSender(hub *Hub) *HubSender {
	return &HubSender{hub: hub}
}

func (s *HubSender) NotifyReservationCreated(_ context.Context, res *domain.Reservation) error {
	s.hub.Broadcast(&Event{Type: EventReservationCreated, Reference: res.Reference, Payload: res})
	return nil
}

func (s *HubSender) NotifyPaymentCompleted(_ context.Context, res *domain.Reservation) error {
	s.hub.Broadcast(&Event{Type: EventPaymentCompleted, Reference: res.Reference, Payload: res})
	return nil
}

func (s *HubSender) NotifyReservationCancelled(_ context.Context, res *domain.Reservation, reason string) error {
	s.hub.Broadcast(&Event{
		Type:      EventReservationCancelled,
		Reference: res.Reference,
		Payload:   map[string]string{"reason": reason},
	})
	return nil
}

// Fanout sends each notification to every configured sender.
type Fanout []Sender

func (f Fanout) NotifyReservationCreated(ctx context.Context, res *domain.Reservation) error {
	for _, s := range f {
		_ = s.NotifyReservationCreated(ctx, res)
	}
	return nil
}

func (f Fanout) NotifyPaymentCompleted(ctx context.Context, res *domain.Reservation) error {
	for _, s := range f {
		_ = s.NotifyPaymentCompleted(ctx, res)
	}
	return nil
}

func (f Fanout) NotifyReservationCancelled(ctx context.Context, res *domain.Reservation, reason string) error {
	for _, s := range f {
		_ = s.NotifyReservationCancelled(ctx, res, reason)
	}
	return nil
}
