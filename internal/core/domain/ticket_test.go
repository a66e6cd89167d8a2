package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/sla-sentinel/internal/core/domain"
)

func TestNewTicketSnapshot(t *testing.T) {
	created := fixedClock().Add(-time.Hour)

	t.Run("normalizes category and timezones", func(t *testing.T) {
		loc := time.FixedZone("UTC+2", 2*60*60)
		ticket, err := domain.NewTicketSnapshot("TCK-1001", 2, domain.StatusOpen, "  Hardware ", created.In(loc), time.Time{})

		require.NoError(t, err)
		assert.Equal(t, "hardware", ticket.Category)
		assert.Equal(t, time.UTC, ticket.CreatedAt.Location())
		assert.True(t, ticket.CreatedAt.Equal(created))
		// Missing updatedAt falls back to createdAt.
		assert.True(t, ticket.UpdatedAt.Equal(created))
	})

	t.Run("requires a ticket ID", func(t *testing.T) {
		_, err := domain.NewTicketSnapshot("   ", 2, domain.StatusOpen, "software", created, created)
		assert.ErrorIs(t, err, domain.ErrTicketIDRequired)
	})

	t.Run("rejects out-of-range priorities", func(t *testing.T) {
		for _, priority := range []int{0, 5, -1} {
			_, err := domain.NewTicketSnapshot("TCK-1001", priority, domain.StatusOpen, "software", created, created)
			assert.ErrorIs(t, err, domain.ErrInvalidPriority, "priority %d", priority)
		}
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		_, err := domain.NewTicketSnapshot("TCK-1001", 2, "pending", "software", created, created)
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})

	t.Run("requires createdAt", func(t *testing.T) {
		_, err := domain.NewTicketSnapshot("TCK-1001", 2, domain.StatusOpen, "software", time.Time{}, time.Time{})
		assert.ErrorIs(t, err, domain.ErrCreatedAtZero)
	})
}

func TestParseTicketStatus(t *testing.T) {
	t.Run("accepts known statuses case-insensitively", func(t *testing.T) {
		status, err := domain.ParseTicketStatus("In_Progress")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, status)
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		_, err := domain.ParseTicketStatus("reopened")
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, domain.StatusOpen.IsTerminal())
	assert.False(t, domain.StatusInProgress.IsTerminal())
	assert.True(t, domain.StatusResolved.IsTerminal())
	assert.True(t, domain.StatusClosed.IsTerminal())
}
