// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package tickets implements the ticket reservation domain behind the
// protected resource endpoint: a catalog of events with finite seat
// inventory and per-subject reservations against that inventory.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Domain errors. Handlers map these to tool-level failures rather than
// transport errors.
var (
	ErrEventNotFound       = errors.New("event not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrNotEnoughSeats      = errors.New("not enough seats left")
	ErrNotOwner            = errors.New("reservation belongs to another subject")
)

// Event is a bookable event with a fixed seat inventory.
type Event struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Venue      string `json:"venue"`
	Date       string `json:"date"`
	TotalSeats int    `json:"total_seats"`
	SeatsLeft  int    `json:"seats_left"`
}

// Reservation records seats held by a subject for an event.
type Reservation struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Subject   string    `json:"subject"`
	Seats     int       `json:"seats"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the reservation state the tool surface operates on.
type Store interface {
	// ListEvents returns all events ordered by ID.
	ListEvents(ctx context.Context) ([]Event, error)

	// GetEvent returns a single event or ErrEventNotFound.
	GetEvent(ctx context.Context, eventID string) (Event, error)

	// Reserve atomically decrements the event's seat inventory and records
	// a reservation for the subject. It returns ErrNotEnoughSeats without
	// modifying anything when the inventory cannot cover the request.
	Reserve(ctx context.Context, subject, eventID string, seats int) (Reservation, error)

	// CancelReservation releases the seats held by a reservation. Only the
	// owning subject may cancel; anyone else gets ErrNotOwner.
	CancelReservation(ctx context.Context, subject, reservationID string) error

	// ListReservations returns the subject's reservations, oldest first.
	ListReservations(ctx context.Context, subject string) ([]Reservation, error)
}

// MemoryStore keeps events and reservations in process memory.
type MemoryStore struct {
	mu           sync.RWMutex
	events       map[string]*Event
	reservations map[string]*Reservation
}

// NewMemoryStore creates a MemoryStore seeded with the given events.
// Events with a zero SeatsLeft inherit their TotalSeats as the starting
// inventory.
func NewMemoryStore(events []Event) *MemoryStore {
	s := &MemoryStore{
		events:       make(map[string]*Event, len(events)),
		reservations: make(map[string]*Reservation),
	}
	for _, ev := range events {
		e := ev
		if e.SeatsLeft == 0 {
			e.SeatsLeft = e.TotalSeats
		}
		s.events[e.ID] = &e
	}
	return s
}

// ListEvents implements Store.
func (s *MemoryStore) ListEvents(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		events = append(events, *ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

// GetEvent implements Store.
func (s *MemoryStore) GetEvent(_ context.Context, eventID string) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[eventID]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return *ev, nil
}

// Reserve implements Store.
func (s *MemoryStore) Reserve(_ context.Context, subject, eventID string, seats int) (Reservation, error) {
	if seats < 1 {
		return Reservation{}, fmt.Errorf("seat count must be positive, got %d", seats)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return Reservation{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	if ev.SeatsLeft < seats {
		return Reservation{}, fmt.Errorf("%w: %d requested, %d left", ErrNotEnoughSeats, seats, ev.SeatsLeft)
	}

	ev.SeatsLeft -= seats
	res := &Reservation{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Subject:   subject,
		Seats:     seats,
		CreatedAt: time.Now().UTC(),
	}
	s.reservations[res.ID] = res
	return *res, nil
}

// CancelReservation implements Store.
func (s *MemoryStore) CancelReservation(_ context.Context, subject, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[reservationID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrReservationNotFound, reservationID)
	}
	if res.Subject != subject {
		// Do not leak whose reservation it is.
		return ErrNotOwner
	}

	if ev, ok := s.events[res.EventID]; ok {
		ev.SeatsLeft += res.Seats
	}
	delete(s.reservations, reservationID)
	return nil
}

// ListReservations implements Store.
func (s *MemoryStore) ListReservations(_ context.Context, subject string) ([]Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Reservation
	for _, res := range s.reservations {
		if res.Subject == subject {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DemoEvents is the catalog the server ships with when no external
// inventory is configured.
func DemoEvents() []Event {
	return []Event{
		{ID: "evt-001", Name: "Go Conference Keynote", Venue: "Main Hall", Date: "2026-10-12", TotalSeats: 500},
		{ID: "evt-002", Name: "Distributed Systems Workshop", Venue: "Room B", Date: "2026-10-13", TotalSeats: 40},
		{ID: "evt-003", Name: "Closing Concert", Venue: "Arena", Date: "2026-10-14", TotalSeats: 1200},
	}
}
