package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"payment-instructions/internal/domain"
)

// Publisher delivers outcome notifications.
type Publisher interface {
	Publish(ctx context.Context, event domain.InstructionProcessed) error
	Close() error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, domain.InstructionProcessed) error { return nil }
func (Nop) Close() error                                               { return nil }

func NewInstructionProcessed(correlationID string, out domain.Outcome, at time.Time) domain.InstructionProcessed {
	return domain.InstructionProcessed{
		EventID:       uuid.New(),
		CorrelationID: correlationID,
		Outcome:       out,
		OccurredAt:    at.UTC(),
	}
}
