package statemachine

import (
	"fmt"
	"strings"

	"table-reservation-api/models"
)

// Actor names who is allowed to drive a transition
type Actor string

const (
	ActorAdmin Actor = "admin"
	ActorOwner Actor = "owner"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.BookingStatus `json:"from"`
	To    models.BookingStatus `json:"to"`
	Actor Actor                `json:"actor"`
}

// validTransitions is the authoritative booking lifecycle
var validTransitions = []Transition{
	{From: models.BookingPending, To: models.BookingConfirmed, Actor: ActorAdmin},
	{From: models.BookingPending, To: models.BookingCancelled, Actor: ActorAdmin},
	{From: models.BookingPending, To: models.BookingCancelled, Actor: ActorOwner},
	{From: models.BookingConfirmed, To: models.BookingCompleted, Actor: ActorAdmin},
	{From: models.BookingConfirmed, To: models.BookingCancelled, Actor: ActorAdmin},
	{From: models.BookingConfirmed, To: models.BookingCancelled, Actor: ActorOwner},
}

type transitionKey struct {
	From  models.BookingStatus
	To    models.BookingStatus
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.BookingStatus) []models.BookingStatus {
	var nexts []models.BookingStatus
	seen := map[models.BookingStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move a booking from one state to another
func CanTransition(from, to models.BookingStatus, actor Actor) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("invalid transition: %s -> %s is not allowed for %s; valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from))
}

// IsTerminal is true when no transition leaves the state.
func IsTerminal(status models.BookingStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

func describeValidFrom(status models.BookingStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full lifecycle for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}
