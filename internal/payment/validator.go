package payment

import (
	"strings"

	"payment-instructions/internal/domain"
)

type rejection struct {
	code   domain.StatusCode
	reason string
}

// validateTransfer applies the business rules in order; the first failing
// rule wins. A nil result lets the transfer settle.
func validateTransfer(debit, credit domain.Account, currency string, amount int64) *rejection {
	if debit.ID == credit.ID {
		return &rejection{domain.CodeSameAccount, msgSameAccount}
	}
	// Account currencies are taken as given; only the instruction's is upper-cased.
	if debit.Currency != credit.Currency {
		return &rejection{domain.CodeCurrencyMismatch, msgCurrencyMismatch}
	}
	if debit.Currency != strings.ToUpper(currency) {
		return &rejection{domain.CodeCurrencyMismatch, msgCurrencyMismatch}
	}
	if debit.Balance < amount {
		return &rejection{domain.CodeInsufficientFunds, msgInsufficientFunds}
	}
	return nil
}
