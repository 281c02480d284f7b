package domain

import "fmt"

type Status uint8

const (
	StatusFailed Status = iota
	StatusSuccessful
	StatusPending
)

var statusNames = map[Status]string{
	StatusFailed:     "failed",
	StatusSuccessful: "successful",
	StatusPending:    "pending",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	n, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown status %d", uint8(s))
	}
	return []byte(n), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for k, n := range statusNames {
		if n == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

// StatusCode classifies an outcome. The wire strings only appear at the
// serialization boundary.
type StatusCode uint8

const (
	CodeMalformedInstruction StatusCode = iota + 1 // SY03
	CodeInvalidAmount                              // AM01
	CodeUnsupportedCurrency                        // CU02
	CodeAccountNotFound                            // AC03
	CodeSameAccount                                // AC02
	CodeCurrencyMismatch                           // CU01
	CodeInsufficientFunds                          // AC01
	CodeExecuted                                   // AP00
	CodeScheduled                                  // AP02
)

var statusCodes = map[StatusCode]string{
	CodeMalformedInstruction: "SY03",
	CodeInvalidAmount:        "AM01",
	CodeUnsupportedCurrency:  "CU02",
	CodeAccountNotFound:      "AC03",
	CodeSameAccount:          "AC02",
	CodeCurrencyMismatch:     "CU01",
	CodeInsufficientFunds:    "AC01",
	CodeExecuted:             "AP00",
	CodeScheduled:            "AP02",
}

func (c StatusCode) String() string {
	if s, ok := statusCodes[c]; ok {
		return s
	}
	return fmt.Sprintf("StatusCode(%d)", uint8(c))
}

func (c StatusCode) MarshalText() ([]byte, error) {
	s, ok := statusCodes[c]
	if !ok {
		return nil, fmt.Errorf("unknown status code %d", uint8(c))
	}
	return []byte(s), nil
}

func (c *StatusCode) UnmarshalText(b []byte) error {
	for k, s := range statusCodes {
		if s == string(b) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown status code %q", string(b))
}
