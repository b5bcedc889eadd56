package availability

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/item"
	"gearshare/internal/domain/shared/daterange"
)

var (
	ErrOverlappingRange = errors.New("availability: range overlaps an existing window or active rental")
	ErrWindowNotFound   = errors.New("availability: window not found")
)

// ConflictError reports which rentals and windows block a proposed interval.
type ConflictError struct {
	RentalIDs []string
	WindowIDs []string
}

func (e *ConflictError) Error() string {
	return "availability: interval conflicts with existing reservations"
}

func (e *ConflictError) Unwrap() error { return ErrOverlappingRange }

// Window is an owner-declared interval during which the owner reserves the item's
// time. Active rentals and windows are mutually exclusive reservations: a proposed
// rental conflicts with either.
type Window struct {
	ID        string
	ItemID    item.ItemID
	Range     daterange.DateRange
	CreatedAt time.Time
}

type WindowRepository interface {
	ByItem(ctx context.Context, id item.ItemID) ([]Window, error)
	OverlappingRange(ctx context.Context, id item.ItemID, dr daterange.DateRange) ([]Window, error)
	Add(ctx context.Context, w Window) error
	Remove(ctx context.Context, id item.ItemID, windowID string) error
}

// RentalRef identifies an active rental occupying an interval, enough for a
// caller to report which booking is in the way.
type RentalRef struct {
	ID    string
	Range daterange.DateRange
}

// RentalSource exposes the active (pending or approved) rentals overlapping a range.
type RentalSource interface {
	ActiveOverlapping(ctx context.Context, id item.ItemID, dr daterange.DateRange) ([]RentalRef, error)
}

// Conflict carries the result of a conflict check with enough detail for the
// client to react.
type Conflict struct {
	Conflicts bool
	RentalIDs []string
	WindowIDs []string
}

// Resolver decides whether a proposed interval may be reserved on an item.
// Reads only; the caller owns the transaction/lock scope around check-then-insert.
type Resolver struct {
	Windows WindowRepository
	Rentals RentalSource
}

// CheckConflict reports every active rental and owner window overlapping the
// proposed half-open interval. Touching endpoints never conflict.
func (r Resolver) CheckConflict(ctx context.Context, id item.ItemID, dr daterange.DateRange) (Conflict, error) {
	if err := dr.Validate(); err != nil {
		return Conflict{}, err
	}
	var result Conflict
	rentals, err := r.Rentals.ActiveOverlapping(ctx, id, dr)
	if err != nil {
		return Conflict{}, err
	}
	for _, ref := range rentals {
		result.RentalIDs = append(result.RentalIDs, ref.ID)
	}
	windows, err := r.Windows.OverlappingRange(ctx, id, dr)
	if err != nil {
		return Conflict{}, err
	}
	for _, w := range windows {
		result.WindowIDs = append(result.WindowIDs, w.ID)
	}
	result.Conflicts = len(result.RentalIDs) > 0 || len(result.WindowIDs) > 0
	return result, nil
}
