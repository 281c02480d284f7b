package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is one entry of the caller-supplied snapshot. Balance is in minor units.
type Account struct {
	ID       string `json:"id"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

type AccountSnapshot struct {
	ID            string `json:"id"`
	Balance       int64  `json:"balance"`
	BalanceBefore int64  `json:"balance_before"`
	Currency      string `json:"currency"`
}

// PaymentInstructionRequest is the core input once the request body passed schema validation.
type PaymentInstructionRequest struct {
	Accounts    []Account `json:"accounts"`
	Instruction string    `json:"instruction"`
}

// Outcome is the result of processing one instruction. Nil pointers serialize as null.
type Outcome struct {
	Type          *string           `json:"type"`
	Amount        *int64            `json:"amount"`
	Currency      *string           `json:"currency"`
	DebitAccount  *string           `json:"debit_account"`
	CreditAccount *string           `json:"credit_account"`
	ExecuteBy     *string           `json:"execute_by"`
	Status        Status            `json:"status"`
	StatusReason  string            `json:"status_reason"`
	StatusCode    StatusCode        `json:"status_code"`
	Accounts      []AccountSnapshot `json:"accounts"`
}

// PaymentInstructionResponse is the HTTP envelope around an Outcome.
type PaymentInstructionResponse struct {
	Status  Status  `json:"status"`
	Message string  `json:"message"`
	Data    Outcome `json:"data"`
}

// InstructionProcessed is published once per processed instruction.
type InstructionProcessed struct {
	EventID       uuid.UUID `json:"event_id"`
	CorrelationID string    `json:"correlation_id"`
	Outcome       Outcome   `json:"outcome"`
	OccurredAt    time.Time `json:"occurred_at"`
}
