package payment

import (
	"errors"
	"fmt"
	"math"
	"time"

	"payment-instructions/internal/domain"
	"payment-instructions/internal/instruction"
)

var errBalanceOverflow = errors.New("balance overflow")

type settlement struct {
	execute bool
	after   func(domain.Account) int64
}

// settle executes the transfer now unless executeBy names a date after
// today (UTC). Deferred transfers leave every balance untouched.
func settle(debit, credit domain.Account, amount int64, executeBy string, now time.Time) (settlement, error) {
	if executeBy != "" {
		d, err := instruction.ParseDate(executeBy)
		if err != nil {
			return settlement{}, err
		}
		if d.IsFuture(now) {
			return settlement{execute: false}, nil
		}
	}

	if credit.Balance > math.MaxInt64-amount {
		return settlement{}, fmt.Errorf("%w: crediting %d to account %s", errBalanceOverflow, amount, credit.ID)
	}

	return settlement{
		execute: true,
		after: func(a domain.Account) int64 {
			if a.ID == debit.ID {
				return a.Balance - amount
			}
			return a.Balance + amount
		},
	}, nil
}

func (s settlement) status() (domain.Status, domain.StatusCode, string) {
	if s.execute {
		return domain.StatusSuccessful, domain.CodeExecuted, msgTransactionSuccessful
	}
	return domain.StatusPending, domain.CodeScheduled, msgTransactionPending
}
