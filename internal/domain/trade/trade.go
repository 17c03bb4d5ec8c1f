package trade

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a trade.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotParticipant    = errors.New("user is not a participant of this trade")
	ErrWrongActor        = errors.New("actor may not perform this action on the trade")
)

// Trade represents a proposed or executed exchange of two items.
type Trade struct {
	ID             uuid.UUID `json:"id"`
	ProposerID     uuid.UUID `json:"proposer_id"`
	ReceiverID     uuid.UUID `json:"receiver_id"`
	ProposerItemID uuid.UUID `json:"proposer_item_id"`
	ReceiverItemID uuid.UUID `json:"receiver_item_id"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// New creates a pending trade proposal.
func New(proposerID, receiverID, proposerItemID, receiverItemID uuid.UUID) *Trade {
	now := time.Now().UTC()
	return &Trade{
		ID:             uuid.New(),
		ProposerID:     proposerID,
		ReceiverID:     receiverID,
		ProposerItemID: proposerItemID,
		ReceiverItemID: receiverItemID,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (t *Trade) IsParticipant(userID uuid.UUID) bool {
	return t.ProposerID == userID || t.ReceiverID == userID
}

// OtherParticipant returns the counterpart of userID on this trade.
func (t *Trade) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if userID == t.ProposerID {
		return t.ReceiverID
	}
	return t.ProposerID
}

// IsTerminal reports whether the trade allows no further transitions.
func (t *Trade) IsTerminal() bool {
	return t.Status == StatusRejected || t.Status == StatusCancelled || t.Status == StatusCompleted
}

// ChatOpen reports whether the message channel of the trade is open.
func (t *Trade) ChatOpen() bool {
	return t.Status == StatusAccepted || t.Status == StatusCompleted
}

// CanTransitionTo checks if a transition to the target status is valid.
func (t *Trade) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusAccepted, StatusRejected, StatusCancelled},
		StatusAccepted:  {StatusCompleted, StatusCancelled, StatusRejected},
		StatusRejected:  {},
		StatusCancelled: {},
		StatusCompleted: {},
	}

	allowed, ok := transitions[t.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// EventKind names a domain event emitted by a trade transition.
type EventKind string

const (
	EventRequested EventKind = "trade_requested"
	EventAccepted  EventKind = "trade_accepted"
	EventRejected  EventKind = "trade_rejected"
	EventCancelled EventKind = "trade_cancelled"
	EventCompleted EventKind = "trade_completed"
)

// Event records a state change of a trade together with the actor that
// caused it and the status the trade was in before.
type Event struct {
	Kind       EventKind
	Trade      *Trade
	ActorID    uuid.UUID
	FromStatus Status
	OccurredAt time.Time
}

// Requested builds the creation event for a freshly proposed trade.
func (t *Trade) Requested() *Event {
	return &Event{
		Kind:       EventRequested,
		Trade:      t,
		ActorID:    t.ProposerID,
		FromStatus: StatusPending,
		OccurredAt: t.CreatedAt,
	}
}

// Accept moves a pending trade to accepted. Only the receiver may accept.
func (t *Trade) Accept(actorID uuid.UUID, now time.Time) (*Event, error) {
	if !t.IsParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	if actorID != t.ReceiverID {
		return nil, ErrWrongActor
	}
	return t.transition(StatusAccepted, EventAccepted, actorID, now)
}

// Reject declines a pending or accepted trade. Only the receiver may reject.
func (t *Trade) Reject(actorID uuid.UUID, now time.Time) (*Event, error) {
	if !t.IsParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	if actorID != t.ReceiverID {
		return nil, ErrWrongActor
	}
	return t.transition(StatusRejected, EventRejected, actorID, now)
}

// Cancel withdraws a pending or accepted trade. Only the proposer may cancel.
func (t *Trade) Cancel(actorID uuid.UUID, now time.Time) (*Event, error) {
	if !t.IsParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	if actorID != t.ProposerID {
		return nil, ErrWrongActor
	}
	return t.transition(StatusCancelled, EventCancelled, actorID, now)
}

// Complete finishes an accepted trade. Either participant may complete.
func (t *Trade) Complete(actorID uuid.UUID, now time.Time) (*Event, error) {
	if !t.IsParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	return t.transition(StatusCompleted, EventCompleted, actorID, now)
}

func (t *Trade) transition(target Status, kind EventKind, actorID uuid.UUID, now time.Time) (*Event, error) {
	if !t.CanTransitionTo(target) {
		return nil, ErrInvalidTransition
	}
	from := t.Status
	t.Status = target
	t.UpdatedAt = now
	return &Event{
		Kind:       kind,
		Trade:      t,
		ActorID:    actorID,
		FromStatus: from,
		OccurredAt: now,
	}, nil
}
