// Package dispatch decides whether a request may run, invokes the matching
// provider adapter, records the result and updates the usage ledger.
//
// Each request walks Validating → Authorizing → Invoking → Persisting →
// UpdatingLedger → Responding. Validation, authorization and provider
// failures stop the walk with no writes. Persisting and UpdatingLedger are
// best effort: their failures are logged and the caller still gets the
// generated content, so a successful response does not imply a stored
// Creation or an incremented counter.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ai_creation_broker/creation"
	"ai_creation_broker/provider"
	"ai_creation_broker/usage"
)

// DefaultTimeout bounds a single adapter call.
const DefaultTimeout = 60 * time.Second

// State is a step of the per-request state machine.
type State int

const (
	StateValidating State = iota
	StateAuthorizing
	StateInvoking
	StatePersisting
	StateUpdatingLedger
	StateResponding
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateAuthorizing:
		return "authorizing"
	case StateInvoking:
		return "invoking"
	case StatePersisting:
		return "persisting"
	case StateUpdatingLedger:
		return "updating_ledger"
	case StateResponding:
		return "responding"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// User is the caller as supplied by the identity collaborator.
type User struct {
	ID        string
	Plan      usage.Plan
	FreeUsage int
}

// Request is one inbound operation.
type Request struct {
	Capability provider.Capability
	Input      provider.Input
}

// Result describes a successful dispatch.
type Result struct {
	Content string
	// Creation is the record written, nil when the capability records
	// nothing or the write failed.
	Creation *creation.Creation
	// UsageRecorded is true when the ledger accepted an increment.
	UsageRecorded bool
}

// Ledger records quota consumption; *usage.Ledger implements it.
type Ledger interface {
	RecordUse(ctx context.Context, userID string, plan usage.Plan, freeUsage int) error
}

// Dispatcher runs requests. It holds no per-request state and is safe for
// concurrent use.
type Dispatcher struct {
	adapters *provider.Registry
	store    creation.Store
	ledger   Ledger
	logger   *slog.Logger
	timeout  time.Duration
	rules    map[provider.Capability]rule
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithTimeout bounds each adapter call; zero or negative disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

func New(adapters *provider.Registry, store creation.Store, ledger Ledger, opts ...Option) (*Dispatcher, error) {
	if adapters == nil || store == nil || ledger == nil {
		return nil, errors.New("dispatch: adapters, store and ledger are required")
	}
	d := &Dispatcher{
		adapters: adapters,
		store:    store,
		ledger:   ledger,
		logger:   slog.Default(),
		timeout:  DefaultTimeout,
		rules:    defaultRules(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Handle runs req and shapes the outcome as an Envelope.
func (d *Dispatcher) Handle(ctx context.Context, user User, req Request) Envelope {
	res, err := d.Dispatch(ctx, user, req)
	if err != nil {
		return Fail(err)
	}
	return Succeed(res.Content)
}

// Dispatch runs req for user. The returned error is always a *Error of kind
// Validation, Authorization or Provider.
func (d *Dispatcher) Dispatch(ctx context.Context, user User, req Request) (Result, error) {
	log := d.logger.With("user_id", user.ID, "capability", string(req.Capability))
	in := normalize(req.Input)

	r, ok := d.rules[req.Capability]
	adapter, registered := d.adapters.Get(req.Capability)
	if !ok || !registered {
		return Result{}, d.failed(log, StateValidating, validationError(MsgUnsupported))
	}

	d.enter(log, StateValidating)
	if msg := r.validate(in); msg != "" {
		return Result{}, d.failed(log, StateValidating, validationError(msg))
	}

	d.enter(log, StateAuthorizing)
	if err := usage.Check(user.Plan, user.FreeUsage, r.tier); err != nil {
		return Result{}, d.failed(log, StateAuthorizing, authorizationError(err))
	}

	d.enter(log, StateInvoking)
	out, err := d.invoke(ctx, adapter, in)
	if err != nil {
		log.Error("provider call failed", "error", err)
		return Result{}, d.failed(log, StateInvoking, providerError(req.Capability, err))
	}

	// The content is delivered from here on; bookkeeping must not be cut
	// short by the caller going away.
	bg := context.WithoutCancel(ctx)
	res := Result{Content: out.Content}

	if r.record != nil {
		d.enter(log, StatePersisting)
		prompt, typ, publish := r.record(in)
		c := creation.New(user.ID, prompt, out.Content, typ, publish)
		if err := d.store.Insert(bg, c); err != nil {
			log.Warn("creation not recorded", "kind", KindPersistence.String(), "error", err)
		} else {
			res.Creation = c
		}
	}

	if r.consumesQuota && !user.Plan.IsPremium() {
		d.enter(log, StateUpdatingLedger)
		if err := d.ledger.RecordUse(bg, user.ID, user.Plan, user.FreeUsage); err != nil {
			log.Warn("usage not recorded", "kind", KindPersistence.String(), "error", err)
		} else {
			res.UsageRecorded = true
		}
	}

	d.enter(log, StateResponding)
	return res, nil
}

func (d *Dispatcher) invoke(ctx context.Context, a provider.Adapter, in provider.Input) (provider.Output, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return a.Invoke(ctx, in)
}

func (d *Dispatcher) enter(log *slog.Logger, s State) {
	log.Debug("dispatch state", "state", s.String())
}

func (d *Dispatcher) failed(log *slog.Logger, from State, err error) error {
	d.enter(log, StateFailed)
	log.Info("request rejected", "from", from.String(), "kind", KindOf(err).String(), "message", err.Error())
	return err
}

func providerError(c provider.Capability, err error) error {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return &Error{Kind: KindProvider, Message: pe.Error(), Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindProvider, Message: fmt.Sprintf("%s Error: request timed out", c), Err: err}
	}
	return &Error{Kind: KindProvider, Message: fmt.Sprintf("%s Error: %s", c, err.Error()), Err: err}
}

func normalize(in provider.Input) provider.Input {
	in.Prompt = strings.TrimSpace(in.Prompt)
	in.Object = strings.TrimSpace(in.Object)
	if in.Length < 0 {
		in.Length = 0
	}
	return in
}
