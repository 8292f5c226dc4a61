package conversion

import (
	"context"
	"fmt"

	"go-crm-core/internal/features/lifecycle"
	"go-crm-core/internal/models"
	"go-crm-core/pkg/condition"

	"github.com/google/uuid"
)

const ticketNumberAttempts = 5

// TicketNumberer proposes ticket numbers. Uniqueness is checked by the
// caller.
type TicketNumberer interface {
	Next() string
}

type randomTicketNumberer struct{}

// NewTicketNumberer returns a numberer yielding TIC- plus six uppercase
// hex digits drawn from a random UUID.
func NewTicketNumberer() TicketNumberer { return randomTicketNumberer{} }

func (randomTicketNumberer) Next() string {
	u := uuid.New()
	return fmt.Sprintf("TIC-%X", u[:3])
}

// uniqueTicketNumber draws numbers until one is unused inside the current
// transaction.
func uniqueTicketNumber(ctx context.Context, uow *lifecycle.UnitOfWork, numberer TicketNumberer) (string, error) {
	for attempt := 0; attempt < ticketNumberAttempts; attempt++ {
		candidate := numberer.Next()
		taken, err := uow.List(ctx, models.KindTicket, condition.Eq("ticket_number", candidate))
		if err != nil {
			return "", err
		}
		if len(taken) == 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free ticket number after %d attempts", ticketNumberAttempts)
}
