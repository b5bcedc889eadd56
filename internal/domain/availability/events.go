package availability

import (
	"time"

	"gearshare/internal/domain/shared/daterange"
)

type WindowAdded struct {
	ItemID   string
	WindowID string
	Range    daterange.DateRange
	At       time.Time
}

func (e WindowAdded) EventName() string     { return "availability.window_added" }
func (e WindowAdded) AggregateID() string   { return e.ItemID }
func (e WindowAdded) OccurredAt() time.Time { return e.At }

type WindowRemoved struct {
	ItemID   string
	WindowID string
	At       time.Time
}

func (e WindowRemoved) EventName() string     { return "availability.window_removed" }
func (e WindowRemoved) AggregateID() string   { return e.ItemID }
func (e WindowRemoved) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	ItemID string
	Range  daterange.DateRange
	At     time.Time
}

func (e OverbookingPrevented) EventName() string     { return "availability.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return e.ItemID }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
