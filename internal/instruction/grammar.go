// Package instruction parses the two fixed payment instruction sentences
// and validates their amount and date literals.
package instruction

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformed   = errors.New("malformed instruction")
	ErrInvalidDate = errors.New("invalid date format")
)

// Kind tags which sentence shape an Instruction was parsed from.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDebit
	KindCredit
)

func (k Kind) String() string {
	switch k {
	case KindDebit:
		return "DEBIT"
	case KindCredit:
		return "CREDIT"
	default:
		return ""
	}
}

// Instruction holds the raw literals extracted from a well-formed sentence.
// Amount, Currency and the account ids keep their original case.
type Instruction struct {
	Kind          Kind
	Amount        string
	Currency      string
	DebitAccount  string
	CreditAccount string
	ExecuteBy     string // empty when no "on <date>" clause
}

func (in Instruction) Scheduled() bool { return in.ExecuteBy != "" }

type slot uint8

const (
	slotKeyword slot = iota
	slotAmount
	slotCurrency
	slotDebitAccount
	slotCreditAccount
)

type term struct {
	slot    slot
	keyword string
}

func kw(s string) term { return term{slot: slotKeyword, keyword: s} }

// Mandatory portion of each shape after the leading keyword.
var shapes = map[Kind][]term{
	KindDebit: {
		{slot: slotAmount}, {slot: slotCurrency},
		kw("from"), kw("account"), {slot: slotDebitAccount},
		kw("for"), kw("credit"), kw("to"), kw("account"), {slot: slotCreditAccount},
	},
	KindCredit: {
		{slot: slotAmount}, {slot: slotCurrency},
		kw("to"), kw("account"), {slot: slotCreditAccount},
		kw("for"), kw("debit"), kw("from"), kw("account"), {slot: slotDebitAccount},
	},
}

var leaders = map[string]Kind{
	"debit":  KindDebit,
	"credit": KindCredit,
}

const minTokens = 8

type cursor struct {
	tokens []string
	pos    int
}

func (c *cursor) next() (string, bool) {
	if c.pos >= len(c.tokens) {
		return "", false
	}
	tok := c.tokens[c.pos]
	c.pos++
	return tok, true
}

func (c *cursor) done() bool { return c.pos >= len(c.tokens) }

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
}

// Parse matches raw against the debit and credit sentence shapes.
// On error the returned Instruction carries only Kind, and only when the
// leading keyword resolved it.
func Parse(raw string) (Instruction, error) {
	c := &cursor{tokens: strings.Fields(strings.TrimSpace(raw))}
	if len(c.tokens) < minTokens {
		return Instruction{}, malformed("expected at least %d tokens, got %d", minTokens, len(c.tokens))
	}

	lead, _ := c.next()
	kind, ok := leaders[strings.ToLower(lead)]
	if !ok {
		return Instruction{}, malformed("unknown leading keyword %q", lead)
	}

	in, err := extract(c, kind)
	if err != nil {
		return Instruction{Kind: kind}, err
	}
	return in, nil
}

func extract(c *cursor, kind Kind) (Instruction, error) {
	in := Instruction{Kind: kind}
	for _, t := range shapes[kind] {
		at := c.pos
		tok, ok := c.next()
		if !ok {
			return Instruction{}, malformed("instruction ends at token %d", at)
		}
		switch t.slot {
		case slotKeyword:
			if !strings.EqualFold(tok, t.keyword) {
				return Instruction{}, malformed("expected %q at token %d, got %q", t.keyword, at, tok)
			}
		case slotAmount:
			in.Amount = tok
		case slotCurrency:
			in.Currency = tok
		case slotDebitAccount:
			in.DebitAccount = tok
		case slotCreditAccount:
			in.CreditAccount = tok
		}
	}

	if c.done() {
		return in, nil
	}

	at := c.pos
	if tok, _ := c.next(); !strings.EqualFold(tok, "on") {
		return Instruction{}, malformed("unexpected %q at token %d", tok, at)
	}
	date, ok := c.next()
	if !ok {
		return Instruction{}, malformed("missing date after %q", "on")
	}
	if _, err := ParseDate(date); err != nil {
		return Instruction{}, err
	}
	if !c.done() {
		return Instruction{}, malformed("unexpected %q after date", c.tokens[c.pos])
	}
	in.ExecuteBy = date
	return in, nil
}
