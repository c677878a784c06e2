// SPDX-FileCopyrightText: Copyright 2026 Seatwise, Inc.
// SPDX-License-Identifier: Apache-2.0

package tickets

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *MemoryStore {
	return NewMemoryStore([]Event{
		{ID: "evt-1", Name: "Keynote", Venue: "Main Hall", TotalSeats: 100},
		{ID: "evt-2", Name: "Workshop", Venue: "Room B", TotalSeats: 2},
	})
}

func TestListEventsOrdered(t *testing.T) {
	t.Parallel()

	store := testStore()
	events, err := store.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "evt-2", events[1].ID)
	assert.Equal(t, 100, events[0].SeatsLeft)
}

func TestReserveDecrementsInventory(t *testing.T) {
	t.Parallel()

	store := testStore()
	ctx := context.Background()

	res, err := store.Reserve(ctx, "alice", "evt-1", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "alice", res.Subject)
	assert.Equal(t, 3, res.Seats)

	ev, err := store.GetEvent(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 97, ev.SeatsLeft)
}

func TestReserveFailures(t *testing.T) {
	t.Parallel()

	store := testStore()
	ctx := context.Background()

	_, err := store.Reserve(ctx, "alice", "evt-missing", 1)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = store.Reserve(ctx, "alice", "evt-2", 3)
	assert.ErrorIs(t, err, ErrNotEnoughSeats)

	// Failed oversell leaves the inventory untouched.
	ev, err := store.GetEvent(ctx, "evt-2")
	require.NoError(t, err)
	assert.Equal(t, 2, ev.SeatsLeft)

	_, err = store.Reserve(ctx, "alice", "evt-1", 0)
	assert.Error(t, err)
}

func TestCancelReleasesSeats(t *testing.T) {
	t.Parallel()

	store := testStore()
	ctx := context.Background()

	res, err := store.Reserve(ctx, "alice", "evt-2", 2)
	require.NoError(t, err)

	_, err = store.Reserve(ctx, "bob", "evt-2", 1)
	assert.ErrorIs(t, err, ErrNotEnoughSeats)

	require.NoError(t, store.CancelReservation(ctx, "alice", res.ID))

	ev, err := store.GetEvent(ctx, "evt-2")
	require.NoError(t, err)
	assert.Equal(t, 2, ev.SeatsLeft)

	// Cancelling again reports the reservation as gone.
	assert.ErrorIs(t, store.CancelReservation(ctx, "alice", res.ID), ErrReservationNotFound)
}

func TestCancelOwnerOnly(t *testing.T) {
	t.Parallel()

	store := testStore()
	ctx := context.Background()

	res, err := store.Reserve(ctx, "alice", "evt-1", 1)
	require.NoError(t, err)

	assert.ErrorIs(t, store.CancelReservation(ctx, "bob", res.ID), ErrNotOwner)

	// Alice's reservation survives Bob's attempt.
	mine, err := store.ListReservations(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestListReservationsPerSubject(t *testing.T) {
	t.Parallel()

	store := testStore()
	ctx := context.Background()

	_, err := store.Reserve(ctx, "alice", "evt-1", 1)
	require.NoError(t, err)
	_, err = store.Reserve(ctx, "bob", "evt-1", 2)
	require.NoError(t, err)

	mine, err := store.ListReservations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "alice", mine[0].Subject)

	none, err := store.ListReservations(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore([]Event{{ID: "evt-hot", Name: "Hot Show", TotalSeats: 50}})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Reserve(ctx, "alice", "evt-hot", 1)
		}()
	}
	wg.Wait()

	ev, err := store.GetEvent(ctx, "evt-hot")
	require.NoError(t, err)
	assert.Equal(t, 0, ev.SeatsLeft)

	reservations, err := store.ListReservations(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, reservations, 50)
}
