package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"payment-instructions/internal/domain"
	"payment-instructions/internal/payment"
)

func readAccounts(path string) ([]domain.Account, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = bufio.NewReader(f)
	}

	var accounts []domain.Account
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("instruct", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		accountsPath = fs.String("accounts", "", `JSON array of {"id","balance","currency"}; "-" reads stdin`)
		instr        = fs.String("instruction", "", "payment instruction text")
		currencies   = fs.String("currencies", "", "comma-separated supported currencies (default NGN,USD,GBP,GHS)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *accountsPath == "" {
		fmt.Fprintln(stderr, "missing -accounts")
		return 2
	}
	if strings.TrimSpace(*instr) == "" {
		fmt.Fprintln(stderr, "missing -instruction")
		return 2
	}

	accounts, err := readAccounts(*accountsPath)
	if err != nil {
		fmt.Fprintln(stderr, "read accounts:", err)
		return 2
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(stderr, "logger:", err)
		return 2
	}
	defer log.Sync()

	opts := []payment.Option{payment.WithLogger(log)}
	if *currencies != "" {
		opts = append(opts, payment.WithCurrencies(payment.NewCurrencySet(strings.Split(*currencies, ",")...)))
	}

	out, err := payment.New(opts...).Process(context.Background(), domain.PaymentInstructionRequest{
		Accounts:    accounts,
		Instruction: *instr,
	})
	if err != nil {
		fmt.Fprintln(stderr, "process:", err)
		return 2
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(stderr, "encode:", err)
		return 2
	}

	if out.Status == domain.StatusFailed {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
