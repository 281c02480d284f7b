package payment

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"payment-instructions/internal/domain"
)

var fixedNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestProcessor(opts ...Option) *Processor {
	return New(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func twoUSDAccounts() []domain.Account {
	return []domain.Account{
		{ID: "acc1", Balance: 500, Currency: "USD"},
		{ID: "acc2", Balance: 200, Currency: "USD"},
	}
}

func process(t *testing.T, p *Processor, accounts []domain.Account, instr string) domain.Outcome {
	t.Helper()
	out, err := p.Process(context.Background(), domain.PaymentInstructionRequest{
		Accounts:    accounts,
		Instruction: instr,
	})
	require.NoError(t, err)
	return out
}

func ids(snaps []domain.AccountSnapshot) []string {
	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.ID)
	}
	return out
}

func TestProcess_DebitExecutesImmediately(t *testing.T) {
	out := process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 100 USD from account acc1 for credit to account acc2")

	assert.Equal(t, domain.StatusSuccessful, out.Status)
	assert.Equal(t, domain.CodeExecuted, out.StatusCode)
	assert.Equal(t, msgTransactionSuccessful, out.StatusReason)
	require.NotNil(t, out.Type)
	assert.Equal(t, "DEBIT", *out.Type)
	require.NotNil(t, out.Amount)
	assert.EqualValues(t, 100, *out.Amount)
	assert.Equal(t, "USD", *out.Currency)
	assert.Equal(t, "acc1", *out.DebitAccount)
	assert.Equal(t, "acc2", *out.CreditAccount)
	assert.Nil(t, out.ExecuteBy)
	assert.Equal(t, []domain.AccountSnapshot{
		{ID: "acc1", Balance: 400, BalanceBefore: 500, Currency: "USD"},
		{ID: "acc2", Balance: 300, BalanceBefore: 200, Currency: "USD"},
	}, out.Accounts)
}

func TestProcess_CreditShapeKeepsSnapshotOrder(t *testing.T) {
	out := process(t, newTestProcessor(), twoUSDAccounts(),
		"credit 50 usd to account acc1 for debit from account acc2")

	assert.Equal(t, domain.CodeExecuted, out.StatusCode)
	assert.Equal(t, "CREDIT", *out.Type)
	assert.Equal(t, "USD", *out.Currency)
	assert.Equal(t, "acc2", *out.DebitAccount)
	assert.Equal(t, []domain.AccountSnapshot{
		{ID: "acc1", Balance: 550, BalanceBefore: 500, Currency: "USD"},
		{ID: "acc2", Balance: 150, BalanceBefore: 200, Currency: "USD"},
	}, out.Accounts)
}

func TestProcess_DisclosureFollowsSnapshotOrder(t *testing.T) {
	accounts := []domain.Account{
		{ID: "z", Balance: 10, Currency: "GBP"},
		{ID: "other", Balance: 1, Currency: "GBP"},
		{ID: "a", Balance: 10, Currency: "GBP"},
	}
	out := process(t, newTestProcessor(), accounts,
		"debit 5 GBP from account a for credit to account z")
	assert.Equal(t, []string{"z", "a"}, ids(out.Accounts))
	assert.EqualValues(t, 15, out.Accounts[0].Balance)
	assert.EqualValues(t, 5, out.Accounts[1].Balance)
}

func TestProcess_FutureDateIsPending(t *testing.T) {
	out := process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 100 USD from account acc1 for credit to account acc2 on 2099-01-01")

	assert.Equal(t, domain.StatusPending, out.Status)
	assert.Equal(t, domain.CodeScheduled, out.StatusCode)
	assert.Equal(t, msgTransactionPending, out.StatusReason)
	require.NotNil(t, out.ExecuteBy)
	assert.Equal(t, "2099-01-01", *out.ExecuteBy)
	for _, s := range out.Accounts {
		assert.Equal(t, s.BalanceBefore, s.Balance, s.ID)
	}
	assert.Len(t, out.Accounts, 2)
}

func TestProcess_TodayAndPastDatesExecute(t *testing.T) {
	for _, date := range []string{"2025-03-10", "2025-03-09", "2020-01-01"} {
		out := process(t, newTestProcessor(), twoUSDAccounts(),
			"debit 100 USD from account acc1 for credit to account acc2 on "+date)
		assert.Equal(t, domain.CodeExecuted, out.StatusCode, date)
		assert.Equal(t, date, *out.ExecuteBy)
		assert.EqualValues(t, 400, out.Accounts[0].Balance)
	}

	out := process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 100 USD from account acc1 for credit to account acc2 on 2025-03-11")
	assert.Equal(t, domain.CodeScheduled, out.StatusCode)
}

func TestProcess_MalformedInstruction(t *testing.T) {
	out := process(t, newTestProcessor(), twoUSDAccounts(),
		"send 100 USD from account acc1 for credit to account acc2")

	assert.Equal(t, domain.StatusFailed, out.Status)
	assert.Equal(t, domain.CodeMalformedInstruction, out.StatusCode)
	assert.Equal(t, msgMalformedInstruction, out.StatusReason)
	assert.Nil(t, out.Type)
	assert.Nil(t, out.Amount)
	assert.Nil(t, out.Currency)
	assert.Nil(t, out.DebitAccount)
	assert.Nil(t, out.CreditAccount)
	assert.NotNil(t, out.Accounts)
	assert.Empty(t, out.Accounts)

	out = process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 100 USD from account acc1 for credit to account acc2 tomorrow")
	assert.Equal(t, domain.CodeMalformedInstruction, out.StatusCode)
	require.NotNil(t, out.Type)
	assert.Equal(t, "DEBIT", *out.Type)
	assert.Nil(t, out.Amount)
	assert.Empty(t, out.Accounts)
}

func TestProcess_InvalidCalendarDate(t *testing.T) {
	out := process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 100 USD from account acc1 for credit to account acc2 on 2025-02-30")

	assert.Equal(t, domain.CodeMalformedInstruction, out.StatusCode)
	assert.Equal(t, msgInvalidDateFormat, out.StatusReason)
	assert.Empty(t, out.Accounts)
}

func TestProcess_InvalidAmount(t *testing.T) {
	cases := []struct {
		lit        string
		wantAmount *int64
	}{
		{"-50", ptr(int64(-50))},
		{"0", ptr(int64(0))},
		{"12.5", ptr(int64(12))},
		{"1O0", ptr(int64(1))},
		{"+7x", ptr(int64(7))},
		{"abc", nil},
		{"99999999999999999999", nil},
	}
	for _, tc := range cases {
		out := process(t, newTestProcessor(), twoUSDAccounts(),
			"debit "+tc.lit+" USD from account acc1 for credit to account acc2")
		assert.Equal(t, domain.CodeInvalidAmount, out.StatusCode, tc.lit)
		assert.Equal(t, msgInvalidAmount, out.StatusReason)
		assert.Equal(t, tc.wantAmount, out.Amount, tc.lit)
		assert.Equal(t, []string{"acc1", "acc2"}, ids(out.Accounts))
		for _, s := range out.Accounts {
			assert.Equal(t, s.BalanceBefore, s.Balance)
		}
	}
}

func TestProcess_UnsupportedCurrencyCheckedBeforeAccounts(t *testing.T) {
	out := process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 100 EUR from account acc1 for credit to account acc2")
	assert.Equal(t, domain.CodeUnsupportedCurrency, out.StatusCode)
	assert.Equal(t, "Unsupported currency. Only NGN, USD, GBP, and GHS are supported", out.StatusReason)
	assert.Equal(t, "EUR", *out.Currency)

	// Missing accounts do not mask the currency failure.
	out = process(t, newTestProcessor(), nil,
		"debit 100 eur from account x for credit to account y")
	assert.Equal(t, domain.CodeUnsupportedCurrency, out.StatusCode)
	assert.Empty(t, out.Accounts)
}

func TestProcess_AccountNotFound(t *testing.T) {
	accounts := []domain.Account{{ID: "acc1", Balance: 500, Currency: "USD"}}

	out := process(t, newTestProcessor(), accounts,
		"debit 100 USD from account acc1 for credit to account acc2")
	assert.Equal(t, domain.CodeAccountNotFound, out.StatusCode)
	assert.Equal(t, "Account not found: acc2", out.StatusReason)
	assert.Equal(t, []string{"acc1"}, ids(out.Accounts))

	out = process(t, newTestProcessor(), accounts,
		"debit 100 USD from account ghost for credit to account nobody")
	assert.Equal(t, "Account not found: ghost", out.StatusReason)
	assert.Empty(t, out.Accounts)
}

func TestProcess_AccountIDsAreCaseSensitive(t *testing.T) {
	out := process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 100 USD from account ACC1 for credit to account acc2")
	assert.Equal(t, domain.CodeAccountNotFound, out.StatusCode)
	assert.Equal(t, "Account not found: ACC1", out.StatusReason)
}

func TestProcess_SameAccount(t *testing.T) {
	accounts := []domain.Account{{ID: "acc1", Balance: 50, Currency: "GHS"}}

	// Same-account wins over the currency and funds rules.
	out := process(t, newTestProcessor(), accounts,
		"debit 100 USD from account acc1 for credit to account acc1")
	assert.Equal(t, domain.CodeSameAccount, out.StatusCode)
	assert.Equal(t, msgSameAccount, out.StatusReason)
	assert.Equal(t, []domain.AccountSnapshot{
		{ID: "acc1", Balance: 50, BalanceBefore: 50, Currency: "GHS"},
	}, out.Accounts)
}

func TestProcess_CurrencyMismatch(t *testing.T) {
	mixed := []domain.Account{
		{ID: "a", Balance: 500, Currency: "USD"},
		{ID: "b", Balance: 500, Currency: "NGN"},
	}
	out := process(t, newTestProcessor(), mixed,
		"debit 1 USD from account a for credit to account b")
	assert.Equal(t, domain.CodeCurrencyMismatch, out.StatusCode)
	assert.Equal(t, msgCurrencyMismatch, out.StatusReason)
	assert.Equal(t, []string{"a", "b"}, ids(out.Accounts))

	out = process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 1 GBP from account acc1 for credit to account acc2")
	assert.Equal(t, domain.CodeCurrencyMismatch, out.StatusCode)

	// Account currencies are compared exactly; only the instruction's
	// currency is upper-cased.
	lower := []domain.Account{
		{ID: "a", Balance: 500, Currency: "usd"},
		{ID: "b", Balance: 500, Currency: "usd"},
	}
	out = process(t, newTestProcessor(), lower,
		"debit 1 usd from account a for credit to account b")
	assert.Equal(t, domain.CodeCurrencyMismatch, out.StatusCode)
	assert.Equal(t, []string{"USD", "USD"}, []string{out.Accounts[0].Currency, out.Accounts[1].Currency})
	assert.EqualValues(t, 500, out.Accounts[0].Balance)

	mixedCase := []domain.Account{
		{ID: "a", Balance: 500, Currency: "USD"},
		{ID: "b", Balance: 500, Currency: "usd"},
	}
	out = process(t, newTestProcessor(), mixedCase,
		"debit 1 USD from account a for credit to account b")
	assert.Equal(t, domain.CodeCurrencyMismatch, out.StatusCode)
}

func TestProcess_InsufficientFunds(t *testing.T) {
	out := process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 501 USD from account acc1 for credit to account acc2")
	assert.Equal(t, domain.CodeInsufficientFunds, out.StatusCode)
	assert.Equal(t, msgInsufficientFunds, out.StatusReason)
	assert.EqualValues(t, 501, *out.Amount)

	out = process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 500 USD from account acc1 for credit to account acc2")
	assert.Equal(t, domain.CodeExecuted, out.StatusCode)
	assert.EqualValues(t, 0, out.Accounts[0].Balance)
}

func TestProcess_ScheduledTransferStillNeedsFunds(t *testing.T) {
	out := process(t, newTestProcessor(), twoUSDAccounts(),
		"debit 900 USD from account acc1 for credit to account acc2 on 2099-01-01")
	assert.Equal(t, domain.CodeInsufficientFunds, out.StatusCode)
	assert.Equal(t, "2099-01-01", *out.ExecuteBy)
}

func TestProcess_DuplicateIDsFirstOccurrenceWins(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc2", Balance: 200, Currency: "USD"},
		{ID: "acc1", Balance: 10, Currency: "USD"},
		{ID: "acc1", Balance: 10_000, Currency: "USD"},
	}
	out := process(t, newTestProcessor(), accounts,
		"debit 100 USD from account acc1 for credit to account acc2")
	assert.Equal(t, domain.CodeInsufficientFunds, out.StatusCode)
	assert.Equal(t, []domain.AccountSnapshot{
		{ID: "acc2", Balance: 200, BalanceBefore: 200, Currency: "USD"},
		{ID: "acc1", Balance: 10, BalanceBefore: 10, Currency: "USD"},
	}, out.Accounts)
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	accounts := twoUSDAccounts()
	before := append([]domain.Account(nil), accounts...)

	out := process(t, newTestProcessor(), accounts,
		"debit 100 USD from account acc1 for credit to account acc2")
	require.Equal(t, domain.CodeExecuted, out.StatusCode)
	assert.Equal(t, before, accounts)
}

func TestProcess_ReplayingOutcomeDebitsAgain(t *testing.T) {
	p := newTestProcessor()
	const instr = "debit 200 USD from account acc1 for credit to account acc2"

	first := process(t, p, twoUSDAccounts(), instr)
	require.Equal(t, domain.CodeExecuted, first.StatusCode)

	next := make([]domain.Account, 0, len(first.Accounts))
	for _, s := range first.Accounts {
		next = append(next, domain.Account{ID: s.ID, Balance: s.Balance, Currency: s.Currency})
	}

	second := process(t, p, next, instr)
	require.Equal(t, domain.CodeExecuted, second.StatusCode)
	assert.NotEqual(t, first.Accounts, second.Accounts)
	assert.EqualValues(t, 300, second.Accounts[0].BalanceBefore)
	assert.EqualValues(t, 100, second.Accounts[0].Balance)
	assert.EqualValues(t, 600, second.Accounts[1].Balance)

	third := process(t, p, []domain.Account{
		{ID: "acc1", Balance: second.Accounts[0].Balance, Currency: "USD"},
		{ID: "acc2", Balance: second.Accounts[1].Balance, Currency: "USD"},
	}, instr)
	assert.Equal(t, domain.CodeInsufficientFunds, third.StatusCode)
}

func TestProcess_InjectedCurrencySet(t *testing.T) {
	p := newTestProcessor(WithCurrencies(NewCurrencySet("eur")))
	accounts := []domain.Account{
		{ID: "a", Balance: 10, Currency: "EUR"},
		{ID: "b", Balance: 0, Currency: "EUR"},
	}

	out := process(t, p, accounts, "debit 10 eur from account a for credit to account b")
	assert.Equal(t, domain.CodeExecuted, out.StatusCode)

	out = process(t, p, twoUSDAccounts(), "debit 10 USD from account acc1 for credit to account acc2")
	assert.Equal(t, domain.CodeUnsupportedCurrency, out.StatusCode)
	assert.Equal(t, "Unsupported currency. Only EUR is supported", out.StatusReason)
}

func TestProcess_FaultIsLoggedAndReturned(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	p := newTestProcessor(WithLogger(zap.New(core)))

	_, err := p.Process(context.Background(), domain.PaymentInstructionRequest{
		Accounts: []domain.Account{
			{ID: "a", Balance: 10, Currency: "USD"},
			{ID: "b", Balance: math.MaxInt64, Currency: "USD"},
		},
		Instruction: "debit 1 USD from account a for credit to account b",
	})
	require.ErrorIs(t, err, ErrInternal)
	require.ErrorIs(t, err, errBalanceOverflow)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "payment instruction processing failed", entries[0].Message)
	assert.Contains(t, entries[0].ContextMap()["error"], "balance overflow")
}

func TestProcess_BusinessFailuresAreNotLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := newTestProcessor(WithLogger(zap.New(core)))

	out := process(t, p, nil, "nonsense")
	assert.Equal(t, domain.CodeMalformedInstruction, out.StatusCode)
	assert.Zero(t, logs.Len())
}

func TestOutcome_JSONShape(t *testing.T) {
	out := process(t, newTestProcessor(), nil, "nonsense")

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": null,
		"amount": null,
		"currency": null,
		"debit_account": null,
		"credit_account": null,
		"execute_by": null,
		"status": "failed",
		"status_reason": "Malformed instruction: unable to parse keywords",
		"status_code": "SY03",
		"accounts": []
	}`, string(b))
}

func TestProcess_ConcurrentCallsAreIndependent(t *testing.T) {
	p := newTestProcessor()
	done := make(chan domain.Outcome, 32)
	for i := 0; i < cap(done); i++ {
		go func() {
			out, _ := p.Process(context.Background(), domain.PaymentInstructionRequest{
				Accounts:    twoUSDAccounts(),
				Instruction: "debit 100 USD from account acc1 for credit to account acc2",
			})
			done <- out
		}()
	}
	for i := 0; i < cap(done); i++ {
		out := <-done
		assert.Equal(t, domain.CodeExecuted, out.StatusCode)
		assert.EqualValues(t, 400, out.Accounts[0].Balance)
	}
}
