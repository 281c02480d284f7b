package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"payment-instructions/internal/domain"
)

var ErrInvalidRequest = errors.New("invalid request")

var (
	minBalance = decimal.NewFromInt(math.MinInt64)
	maxBalance = decimal.NewFromInt(math.MaxInt64)
)

// Wire shapes. Pointers distinguish a missing field from a zero value.
type accountBody struct {
	ID       *string          `json:"id"`
	Balance  *json.RawMessage `json:"balance"`
	Currency *string          `json:"currency"`
}

type paymentInstructionBody struct {
	Accounts    *[]accountBody `json:"accounts"`
	Instruction *string        `json:"instruction"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// toRequest checks the body against the request schema and converts it into
// the core input. Content (amounts, dates, currencies, even a blank
// instruction) is not judged here.
func (b paymentInstructionBody) toRequest() (domain.PaymentInstructionRequest, error) {
	if b.Accounts == nil {
		return domain.PaymentInstructionRequest{}, invalid("accounts is required")
	}
	if b.Instruction == nil {
		return domain.PaymentInstructionRequest{}, invalid("instruction is required")
	}
	instr := strings.TrimSpace(*b.Instruction)

	accounts := make([]domain.Account, 0, len(*b.Accounts))
	for i, a := range *b.Accounts {
		switch {
		case a.ID == nil:
			return domain.PaymentInstructionRequest{}, invalid("accounts[%d].id is required", i)
		case a.Balance == nil:
			return domain.PaymentInstructionRequest{}, invalid("accounts[%d].balance is required", i)
		case a.Currency == nil:
			return domain.PaymentInstructionRequest{}, invalid("accounts[%d].currency is required", i)
		}
		bal, err := balanceOf(*a.Balance)
		if err != nil {
			return domain.PaymentInstructionRequest{}, invalid("accounts[%d].balance %s", i, err)
		}
		accounts = append(accounts, domain.Account{
			ID:       *a.ID,
			Balance:  bal,
			Currency: *a.Currency,
		})
	}

	return domain.PaymentInstructionRequest{Accounts: accounts, Instruction: instr}, nil
}

// balanceOf converts a raw JSON value into whole minor units. Only number
// tokens qualify; a quoted "10" is a string.
func balanceOf(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, errors.New("must be a number")
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return 0, errors.New("must be a number")
	}
	if !d.IsInteger() {
		return 0, errors.New("must be a whole number of minor units")
	}
	if d.LessThan(minBalance) || d.GreaterThan(maxBalance) {
		return 0, errors.New("is out of range")
	}
	return d.IntPart(), nil
}
