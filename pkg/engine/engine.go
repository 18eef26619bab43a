// Package engine interprets route command trees. It owns dispatch,
// sequencing, fallback resolution, retry backoff and conditional branching;
// every side effect goes through the injected Capabilities surface and every
// top-level execution leaves exactly one telemetry record.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/routewire/routewire/pkg/command"
	"github.com/routewire/routewire/pkg/condition"
	"github.com/routewire/routewire/pkg/logger"
	"github.com/routewire/routewire/pkg/telemetry"
)

// SupportedVersion is the protocol version this engine speaks by default.
const SupportedVersion = 200

// Config bounds engine execution.
type Config struct {
	// SupportedVersion is the client protocol version used for
	// compatibility checks. Zero means SupportedVersion.
	SupportedVersion int

	// MaxDepth caps command tree recursion. Zero means
	// command.DefaultMaxDepth.
	MaxDepth int

	// MaxFallbackChain caps fallback hops. Zero means
	// command.DefaultMaxFallbackChain.
	MaxFallbackChain int

	// DefaultTimeout applies to versioned commands without a metadata
	// timeout. Zero disables.
	DefaultTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.SupportedVersion == 0 {
		c.SupportedVersion = SupportedVersion
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = command.DefaultMaxDepth
	}
	if c.MaxFallbackChain <= 0 {
		c.MaxFallbackChain = command.DefaultMaxFallbackChain
	}
	return c
}

// Executor interprets commands against a capability surface.
type Executor struct {
	caps      Capabilities
	recorder  *telemetry.Recorder
	evaluator *condition.Evaluator
	contextFn func() *condition.Context
	cfg       Config
}

// New creates an executor. recorder may be nil when telemetry is unwanted
// (tests); the condition context defaults to an empty snapshot until the
// host provides one with SetConditionContext.
func New(caps Capabilities, recorder *telemetry.Recorder, cfg Config) *Executor {
	return &Executor{
		caps:      caps,
		recorder:  recorder,
		evaluator: condition.NewEvaluator(),
		contextFn: condition.NewContext,
		cfg:       cfg.withDefaults(),
	}
}

// SetConditionContext registers the provider for the read-only snapshot
// Conditional commands evaluate against. Called whenever the host's notion
// of "current state" changes sources, not per execution.
func (e *Executor) SetConditionContext(fn func() *condition.Context) {
	if fn != nil {
		e.contextFn = fn
	}
}

// Execute runs a bare command tree. One telemetry record is produced for
// the whole call, success or failure, before the error is returned.
func (e *Executor) Execute(ctx context.Context, cmd command.Command) error {
	started := time.Now()
	err := e.protect(func() error { return e.exec(ctx, &cmd, 1) })
	e.record(cmd.Kind, started, err)
	return err
}

// ExecuteVersioned runs a versioned envelope: compatibility gate, fallback
// resolution, then execution with the metadata timeout if any. Exactly one
// telemetry record is produced, for the envelope that actually ran.
func (e *Executor) ExecuteVersioned(ctx context.Context, env *command.Versioned) error {
	started := time.Now()

	chosen, hops, rerr := env.Resolve(e.cfg.SupportedVersion, e.cfg.MaxFallbackChain)
	if rerr != nil {
		var err error
		if errors.Is(rerr, command.ErrFallbackChainTooLong) {
			err = &ProtocolError{Reason: "fallback chain misconfigured", Err: rerr}
		} else {
			err = &VersionError{
				ServerVersion: env.Version,
				ClientVersion: e.cfg.SupportedVersion,
				Err:           rerr,
			}
		}
		e.record(env.Command.Kind, started, err)
		return err
	}

	if hops > 0 {
		if e.recorder != nil {
			e.recorder.RecordFallback(env.Version, chosen.Version)
		}
		logger.InfoCF("engine", "incompatible version, using fallback", map[string]interface{}{
			"original_version": env.Version,
			"fallback_version": chosen.Version,
			"hops":             hops,
		})
	}

	timeout := e.cfg.DefaultTimeout
	if chosen.Metadata != nil && chosen.Metadata.TimeoutMs > 0 {
		timeout = time.Duration(chosen.Metadata.TimeoutMs) * time.Millisecond
	}

	err := e.runWithTimeout(ctx, &chosen.Command, timeout)
	e.record(chosen.Command.Kind, started, err)
	return err
}

// runWithTimeout races execution against a timer. Losing the race does not
// stop the in-flight work; it only settles this call as failed. That is the
// documented limit of the model, which has no cancellation token.
func (e *Executor) runWithTimeout(ctx context.Context, cmd *command.Command, timeout time.Duration) error {
	run := func() error { return e.protect(func() error { return e.exec(ctx, cmd, 1) }) }
	if timeout <= 0 {
		return run()
	}

	done := make(chan error, 1)
	go func() { done <- run() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return &TimeoutError{CommandType: cmd.Kind, Timeout: timeout}
	}
}

// protect converts handler panics into a ProtocolError so a malformed tree
// cannot take down the host, while the failure still reaches the caller and
// telemetry.
func (e *Executor) protect(run func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ProtocolError{Reason: fmt.Sprintf("handler panic: %v", r)}
		}
	}()
	return run()
}

func (e *Executor) record(kind command.Kind, started time.Time, err error) {
	if e.recorder == nil {
		return
	}
	rec := telemetry.ExecutionRecord{
		ExecutionID: uuid.NewString(),
		CommandType: string(kind),
		Status:      telemetry.StatusSuccess,
		StartedAt:   started,
		DurationMs:  time.Since(started).Milliseconds(),
	}
	if err != nil {
		rec.Status = telemetry.StatusError
		rec.Error = err.Error()
	}
	e.recorder.Record(rec)
}

// exec dispatches one node. depth is 1-based from the tree root.
func (e *Executor) exec(ctx context.Context, cmd *command.Command, depth int) error {
	if depth > e.cfg.MaxDepth {
		return &ProtocolError{
			Reason: fmt.Sprintf("tree depth %d exceeds cap %d", depth, e.cfg.MaxDepth),
			Err:    command.ErrTooDeep,
		}
	}

	switch cmd.Kind {
	case command.KindNavigateTo:
		if cmd.Navigate == nil {
			return malformed(cmd.Kind)
		}
		return e.execNavigate(ctx, cmd.Navigate)
	case command.KindShowDialog:
		if cmd.Dialog == nil {
			return malformed(cmd.Kind)
		}
		return e.execDialog(ctx, cmd.Dialog, depth)
	case command.KindProcessData:
		if cmd.Process == nil {
			return malformed(cmd.Kind)
		}
		return e.execProcess(cmd.Process)
	case command.KindSequence:
		if cmd.Sequence == nil {
			return malformed(cmd.Kind)
		}
		return e.execSequence(ctx, cmd.Sequence, depth)
	case command.KindParallel:
		if cmd.Parallel == nil {
			return malformed(cmd.Kind)
		}
		return e.execParallel(ctx, cmd.Parallel, depth)
	case command.KindRetry:
		if cmd.Retry == nil || cmd.Retry.Command == nil {
			return malformed(cmd.Kind)
		}
		return e.execRetry(ctx, cmd.Retry, depth)
	case command.KindDelay:
		if cmd.Delay == nil || cmd.Delay.Command == nil {
			return malformed(cmd.Kind)
		}
		return e.execDelay(ctx, cmd.Delay, depth)
	case command.KindConditional:
		if cmd.Conditional == nil {
			return malformed(cmd.Kind)
		}
		return e.execConditional(ctx, cmd.Conditional, depth)
	case command.KindRequestPayment:
		if cmd.Payment == nil {
			return malformed(cmd.Kind)
		}
		return e.execPayment(ctx, cmd.Payment)
	default:
		return &ProtocolError{
			Reason: fmt.Sprintf("command kind %q", cmd.Kind),
			Err:    command.ErrUnknownKind,
		}
	}
}

func malformed(kind command.Kind) error {
	return &ProtocolError{Reason: string(kind), Err: command.ErrMissingPayload}
}

func (e *Executor) execNavigate(ctx context.Context, p *command.NavigatePayload) error {
	target := p.Path
	if len(p.Params) > 0 {
		values := url.Values{}
		for k, v := range p.Params {
			values.Set(k, fmt.Sprintf("%v", v))
		}
		target += "?" + values.Encode()
	}

	if err := e.caps.Navigate(ctx, target, p.Replace); err != nil {
		// Best-effort user notice; the failure itself still propagates.
		e.caps.Notify(ctx, "Navigation failed, please try again")
		return &CapabilityError{Op: "navigate", Err: err}
	}
	return nil
}

func (e *Executor) execDialog(ctx context.Context, p *command.DialogPayload, depth int) error {
	d := Dialog{
		Type:    p.DialogType,
		Title:   p.Title,
		Content: p.Content,
		Buttons: make([]string, 0, len(p.Actions)),
	}
	for _, a := range p.Actions {
		d.Buttons = append(d.Buttons, a.Text)
	}

	choice, err := e.caps.PresentDialog(ctx, d)
	if err != nil {
		return &CapabilityError{Op: "present_dialog", Err: err}
	}

	// Only Confirm dialogs branch. Cancel is the first action, confirm the
	// last, matching the wire order the builders produce.
	if p.DialogType != command.DialogConfirm || len(p.Actions) == 0 {
		return nil
	}

	var next *command.Command
	switch choice {
	case ChoiceConfirm:
		next = p.Actions[len(p.Actions)-1].Action
	case ChoiceCancel:
		next = p.Actions[0].Action
	}
	if next == nil {
		// No action bound to the chosen branch: a no-op, not an error.
		return nil
	}
	return e.exec(ctx, next, depth+1)
}

func (e *Executor) execProcess(p *command.ProcessPayload) error {
	if err := e.caps.MutateState(p.DataType, p.Data, p.Merge); err != nil {
		return &CapabilityError{Op: "mutate_state", Err: err}
	}
	return nil
}

func (e *Executor) execSequence(ctx context.Context, p *command.SequencePayload, depth int) error {
	if p.StopsOnError() {
		for i := range p.Commands {
			if err := e.exec(ctx, &p.Commands[i], depth+1); err != nil {
				return fmt.Errorf("sequence aborted at step %d: %w", i, err)
			}
		}
		return nil
	}

	var errs []error
	for i := range p.Commands {
		if err := e.exec(ctx, &p.Commands[i], depth+1); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("sequence finished with failures: %w", errors.Join(errs...))
	}
	return nil
}

func (e *Executor) execParallel(ctx context.Context, p *command.ParallelPayload, depth int) error {
	if !p.WaitForAll {
		// Fire-and-forget: members are started before this returns, and
		// their failures surface only as telemetry records.
		detached := context.WithoutCancel(ctx)
		for i := range p.Commands {
			cmd := p.Commands[i]
			go func() {
				started := time.Now()
				err := e.protect(func() error { return e.exec(detached, &cmd, depth+1) })
				if err != nil {
					logger.WarnCF("engine", "detached parallel member failed", map[string]interface{}{
						"kind":  string(cmd.Kind),
						"error": err.Error(),
					})
					e.record(cmd.Kind, started, err)
				}
			}()
		}
		return nil
	}

	errs := make([]error, len(p.Commands))
	var g errgroup.Group
	for i := range p.Commands {
		i := i
		g.Go(func() error {
			errs[i] = e.protect(func() error { return e.exec(ctx, &p.Commands[i], depth+1) })
			return errs[i]
		})
	}
	// Wait for every member to settle, then aggregate all failures rather
	// than just the first.
	_ = g.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Errorf("member %d: %w", i, err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("parallel finished with failures: %w", errors.Join(failed...))
	}
	return nil
}

func (e *Executor) execRetry(ctx context.Context, p *command.RetryPayload, depth int) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		return &ProtocolError{Reason: fmt.Sprintf("retry max_attempts %d", attempts)}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = e.exec(ctx, p.Command, depth+1)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		// Exponential backoff: delay_ms, then doubled each retry.
		backoff := time.Duration(p.DelayMs) * time.Millisecond << (attempt - 1)
		logger.DebugCF("engine", "retry attempt failed, backing off", map[string]interface{}{
			"attempt": attempt,
			"backoff": backoff.String(),
			"error":   lastErr.Error(),
		})
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
	}
	return fmt.Errorf("retry exhausted after %d attempts: %w", attempts, lastErr)
}

func (e *Executor) execDelay(ctx context.Context, p *command.DelayPayload, depth int) error {
	if err := sleep(ctx, time.Duration(p.DurationMs)*time.Millisecond); err != nil {
		return err
	}
	return e.exec(ctx, p.Command, depth+1)
}

func (e *Executor) execConditional(ctx context.Context, p *command.ConditionalPayload, depth int) error {
	result, err := e.evaluator.Evaluate(p.Condition, e.contextFn())
	if err != nil {
		// Fail closed: a broken condition picks the false branch and is
		// logged, never propagated past this handler.
		cerr := &ConditionError{Expression: p.Condition, Err: err}
		logger.WarnCF("engine", "condition evaluation failed, treating as false", map[string]interface{}{
			"condition": p.Condition,
			"error":     cerr.Error(),
		})
		result = false
	}

	var branch *command.Command
	if result {
		branch = p.IfTrue
	} else {
		branch = p.IfFalse
	}
	if branch == nil {
		return nil
	}
	return e.exec(ctx, branch, depth+1)
}

func (e *Executor) execPayment(ctx context.Context, p *command.PaymentPayload) error {
	if err := e.caps.PerformPayment(ctx, p.PaymentInfo); err != nil {
		return &CapabilityError{Op: "perform_payment", Err: err}
	}
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
