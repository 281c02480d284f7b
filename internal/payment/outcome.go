package payment

import (
	"strconv"
	"strings"

	"payment-instructions/internal/domain"
	"payment-instructions/internal/instruction"
)

func ptr[T any](v T) *T { return &v }

// outcomeFor carries the fields the instruction determined so far into a
// fresh Outcome.
func outcomeFor(in instruction.Instruction) domain.Outcome {
	out := domain.Outcome{Accounts: []domain.AccountSnapshot{}}
	if in.Kind != instruction.KindUnknown {
		out.Type = ptr(in.Kind.String())
	}
	if in.Amount != "" {
		if n, ok := leadingInt(in.Amount); ok {
			out.Amount = ptr(n)
		}
	}
	if in.Currency != "" {
		out.Currency = ptr(strings.ToUpper(in.Currency))
	}
	if in.DebitAccount != "" {
		out.DebitAccount = ptr(in.DebitAccount)
	}
	if in.CreditAccount != "" {
		out.CreditAccount = ptr(in.CreditAccount)
	}
	if in.ExecuteBy != "" {
		out.ExecuteBy = ptr(in.ExecuteBy)
	}
	return out
}

// leadingInt reads an optional sign and the run of digits that starts lit,
// ignoring whatever follows ("12.5" is 12, "1O0" is 1). It reports false
// when there are no leading digits or the value overflows int64.
func leadingInt(lit string) (int64, bool) {
	s := strings.TrimSpace(lit)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func failed(out domain.Outcome, code domain.StatusCode, reason string, accounts []domain.AccountSnapshot) domain.Outcome {
	out.Status = domain.StatusFailed
	out.StatusCode = code
	out.StatusReason = reason
	if accounts != nil {
		out.Accounts = accounts
	}
	return out
}
