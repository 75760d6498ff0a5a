package types

import (
	"errors"
	"time"
)

// Error kinds carried through the module so callers can decide
// surface vs retry vs skip. Wrapped with pkg/errors at call sites,
// matched with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrStorage             = errors.New("storage error")
	ErrSnapshotUnavailable = errors.New("rate snapshot unavailable")
	ErrDelivery            = errors.New("delivery error")
)

// Direction of a threshold alert. Comparisons are inclusive on both sides.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// ParseDirection validates a user supplied direction string.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionAbove:
		return DirectionAbove, true
	case DirectionBelow:
		return DirectionBelow, true
	}
	return "", false
}

// User is a chat identity known to the bot, upserted on first interaction.
type User struct {
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Alert is a standing "notify me once" instruction. It is deleted when it
// fires, when its owner clears it, or when the owning user row is removed.
type Alert struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	Threshold    float64   `json:"threshold"`
	Direction    Direction `json:"direction"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConditionMet reports whether the alert should fire against an observed rate.
func (a Alert) ConditionMet(rate float64) bool {
	switch a.Direction {
	case DirectionAbove:
		return rate >= a.Threshold
	case DirectionBelow:
		return rate <= a.Threshold
	}
	return false
}

// Snapshot is one observed (value, as-of) pair for a single instrument.
// All alerts on that instrument within a sweep see the same snapshot.
type Snapshot struct {
	Value float64   `json:"value"`
	AsOf  time.Time `json:"as_of"`
}
