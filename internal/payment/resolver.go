package payment

import (
	"sort"
	"strings"

	"payment-instructions/internal/domain"
)

// accountIndex looks accounts up by id. The first occurrence of a duplicated
// id wins; later duplicates are ignored.
type accountIndex struct {
	accounts []domain.Account
	pos      map[string]int
}

func newAccountIndex(accounts []domain.Account) accountIndex {
	pos := make(map[string]int, len(accounts))
	for i, a := range accounts {
		if _, dup := pos[a.ID]; !dup {
			pos[a.ID] = i
		}
	}
	return accountIndex{accounts: accounts, pos: pos}
}

func (x accountIndex) find(id string) (domain.Account, bool) {
	i, ok := x.pos[id]
	if !ok {
		return domain.Account{}, false
	}
	return x.accounts[i], true
}

// ordered returns the resolvable ids once each, in snapshot order.
func (x accountIndex) ordered(ids ...string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := x.pos[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return x.pos[out[i]] < x.pos[out[j]] })
	return out
}

// snapshots renders the ordered accounts; balanceAfter may be nil for an
// unchanged disclosure.
func (x accountIndex) snapshots(ids []string, balanceAfter func(domain.Account) int64) []domain.AccountSnapshot {
	out := make([]domain.AccountSnapshot, 0, len(ids))
	for _, id := range ids {
		a, _ := x.find(id)
		bal := a.Balance
		if balanceAfter != nil {
			bal = balanceAfter(a)
		}
		out = append(out, domain.AccountSnapshot{
			ID:            a.ID,
			Balance:       bal,
			BalanceBefore: a.Balance,
			Currency:      strings.ToUpper(a.Currency),
		})
	}
	return out
}
