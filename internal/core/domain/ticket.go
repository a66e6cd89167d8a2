package domain

import (
	"errors"
	"strings"
	"time"
)

// Pre-defined errors for domain-specific validation.
var (
	ErrTicketIDRequired = errors.New("ticket ID is required")
	ErrInvalidPriority  = errors.New("priority must be between 1 and 4")
	ErrInvalidStatus    = errors.New("invalid ticket status")
	ErrCreatedAtZero    = errors.New("createdAt is required")
)

// TicketStatus represents the lifecycle state of a ticket as reported
// by the upstream classification collaborator.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

// IsTerminal reports whether the ticket is done; terminal tickets carry
// zero breach probability regardless of elapsed time.
func (s TicketStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// ParseTicketStatus validates a raw status string.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch TicketStatus(strings.ToLower(raw)) {
	case StatusOpen:
		return StatusOpen, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusResolved:
		return StatusResolved, nil
	case StatusClosed:
		return StatusClosed, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Well-known ticket categories. Category is an open set; these constants
// are the ones the action resolver branches on.
const (
	CategoryHardware       = "hardware"
	CategorySoftware       = "software"
	CategoryInfrastructure = "infrastructure"
	CategoryAccess         = "access"
)

// TicketSnapshot is a point-in-time view of an already-classified ticket.
// Snapshots are never mutated; a fresh one is taken per evaluation.
type TicketSnapshot struct {
	TicketID  string
	Priority  int
	Status    TicketStatus
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTicketSnapshot is a factory function that validates and normalizes
// an incoming ticket record.
func NewTicketSnapshot(ticketID string, priority int, status TicketStatus, category string, createdAt, updatedAt time.Time) (*TicketSnapshot, error) {
	if strings.TrimSpace(ticketID) == "" {
		return nil, ErrTicketIDRequired
	}
	if priority < 1 || priority > 4 {
		return nil, ErrInvalidPriority
	}
	if _, err := ParseTicketStatus(string(status)); err != nil {
		return nil, err
	}
	if createdAt.IsZero() {
		return nil, ErrCreatedAtZero
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	return &TicketSnapshot{
		TicketID:  ticketID,
		Priority:  priority,
		Status:    status,
		Category:  strings.ToLower(strings.TrimSpace(category)),
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}
