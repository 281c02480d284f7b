// Package payment turns a parsed payment instruction and an account snapshot
// into a transaction outcome.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"payment-instructions/internal/domain"
	"payment-instructions/internal/instruction"
)

// ErrInternal wraps every unexpected fault surfaced by Process. Business rule
// failures are never errors; they are reported in the Outcome.
var ErrInternal = errors.New("payment processing fault")

const tracerName = "payment-instructions/internal/payment"

// Processor is stateless between calls and safe for concurrent use.
type Processor struct {
	currencies CurrencySet
	now        func() time.Time
	logger     *zap.Logger
	tracer     trace.Tracer
}

type Option func(*Processor)

// WithCurrencies replaces the supported currency set.
func WithCurrencies(set CurrencySet) Option {
	return func(p *Processor) { p.currencies = set }
}

// WithClock sets the source of "today" for scheduled instructions.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Processor) { p.tracer = t }
}

func New(opts ...Option) *Processor {
	p := &Processor{
		currencies: DefaultCurrencies(),
		now:        time.Now,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.currencies == nil {
		p.currencies = DefaultCurrencies()
	}
	return p
}

// Process runs one instruction end to end. It is the only place faults are
// logged: a returned error (or recovered panic) is logged once and handed
// back wrapped in ErrInternal.
func (p *Processor) Process(ctx context.Context, req domain.PaymentInstructionRequest) (out domain.Outcome, err error) {
	_, span := p.tracer.Start(ctx, "payment.Process", trace.WithAttributes(
		attribute.Int("payment.accounts", len(req.Accounts)),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInternal, r)
		}
		if err != nil {
			fields := []zap.Field{zap.Error(err), zap.Int("accounts", len(req.Accounts))}
			if sc := span.SpanContext(); sc.IsValid() {
				fields = append(fields,
					zap.String("trace_id", sc.TraceID().String()),
					zap.String("span_id", sc.SpanID().String()),
				)
			}
			p.logger.Error("payment instruction processing failed", fields...)
			span.RecordError(err)
			span.SetStatus(codes.Error, "internal fault")
			out = domain.Outcome{}
			return
		}
		span.SetAttributes(
			attribute.String("payment.status", out.Status.String()),
			attribute.String("payment.status_code", out.StatusCode.String()),
		)
	}()

	out, err = p.process(req)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return out, err
}

func (p *Processor) process(req domain.PaymentInstructionRequest) (domain.Outcome, error) {
	in, err := instruction.Parse(req.Instruction)
	if err != nil {
		reason := msgMalformedInstruction
		if errors.Is(err, instruction.ErrInvalidDate) {
			reason = msgInvalidDateFormat
		}
		return failed(outcomeFor(in), domain.CodeMalformedInstruction, reason, nil), nil
	}

	out := outcomeFor(in)
	idx := newAccountIndex(req.Accounts)
	disclosed := idx.snapshots(idx.ordered(in.DebitAccount, in.CreditAccount), nil)

	amount, err := instruction.ParseAmount(in.Amount)
	if err != nil {
		return failed(out, domain.CodeInvalidAmount, msgInvalidAmount, disclosed), nil
	}

	if !p.currencies.Supports(in.Currency) {
		return failed(out, domain.CodeUnsupportedCurrency, p.currencies.unsupportedReason(), disclosed), nil
	}

	debit, debitOK := idx.find(in.DebitAccount)
	credit, creditOK := idx.find(in.CreditAccount)
	if !debitOK || !creditOK {
		missing := in.DebitAccount
		if debitOK {
			missing = in.CreditAccount
		}
		return failed(out, domain.CodeAccountNotFound, msgAccountNotFound+": "+missing, disclosed), nil
	}

	if r := validateTransfer(debit, credit, in.Currency, amount); r != nil {
		return failed(out, r.code, r.reason, disclosed), nil
	}

	s, err := settle(debit, credit, amount, in.ExecuteBy, p.now())
	if err != nil {
		return domain.Outcome{}, err
	}
	out.Status, out.StatusCode, out.StatusReason = s.status()
	out.Accounts = idx.snapshots(idx.ordered(debit.ID, credit.ID), s.after)
	return out, nil
}
