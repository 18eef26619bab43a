// Package command defines the route command model: the declarative,
// server-issued instructions a client executes, plus the versioned envelope
// that carries them across protocol revisions.
//
// A command is a closed tagged union. On the wire it is a
// {"type": ..., "payload": ...} pair; in Go it is a Command struct whose Kind
// selects exactly one populated payload pointer. The engine switches on Kind,
// so adding a variant means touching the codec, the validator and the engine
// together.
package command

import "errors"

// Kind discriminates the command union.
type Kind string

const (
	KindNavigateTo     Kind = "NavigateTo"
	KindShowDialog     Kind = "ShowDialog"
	KindProcessData    Kind = "ProcessData"
	KindSequence       Kind = "Sequence"
	KindParallel       Kind = "Parallel"
	KindRetry          Kind = "Retry"
	KindDelay          Kind = "Delay"
	KindConditional    Kind = "Conditional"
	KindRequestPayment Kind = "RequestPayment"
)

var (
	ErrUnknownKind    = errors.New("unknown command kind")
	ErrMissingPayload = errors.New("command payload missing")
)

// Command is one node of a route command tree. Exactly one payload field is
// non-nil, matching Kind.
type Command struct {
	Kind Kind

	Navigate    *NavigatePayload
	Dialog      *DialogPayload
	Process     *ProcessPayload
	Sequence    *SequencePayload
	Parallel    *ParallelPayload
	Retry       *RetryPayload
	Delay       *DelayPayload
	Conditional *ConditionalPayload
	Payment     *PaymentPayload
}

// NavigatePayload asks the client to move to another page. Params are
// serialized into the query string; Replace swaps the current history entry
// instead of pushing a new one.
type NavigatePayload struct {
	Path    string                 `json:"path"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Replace bool                   `json:"replace,omitempty"`
}

// DialogType selects the dialog presentation.
type DialogType string

const (
	DialogAlert   DialogType = "Alert"
	DialogConfirm DialogType = "Confirm"
	DialogToast   DialogType = "Toast"
)

// DialogAction is one user-selectable dialog button. Action, when present,
// runs if the user picks this button.
type DialogAction struct {
	Text   string   `json:"text"`
	Action *Command `json:"action,omitempty"`
}

// DialogPayload asks the client to present a dialog. Confirm dialogs carry
// two actions, cancel first.
type DialogPayload struct {
	DialogType DialogType     `json:"dialog_type"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Actions    []DialogAction `json:"actions,omitempty"`
}

// ProcessPayload mutates client-local state for DataType. A nil Data clears
// the slot; Merge requests a shallow merge instead of a full replace.
type ProcessPayload struct {
	DataType string      `json:"data_type"`
	Data     interface{} `json:"data"`
	Merge    bool        `json:"merge,omitempty"`
}

// SequencePayload runs Commands strictly in order. StopOnError defaults to
// true; use the accessor rather than reading the pointer.
type SequencePayload struct {
	Commands    []Command `json:"commands"`
	StopOnError *bool     `json:"stop_on_error,omitempty"`
}

// StopsOnError reports whether the sequence aborts on the first failure.
func (p *SequencePayload) StopsOnError() bool {
	return p.StopOnError == nil || *p.StopOnError
}

// ParallelPayload starts Commands concurrently. With WaitForAll the parallel
// node settles after every member and aggregates failures; without it, the
// node resolves as soon as all members are started.
type ParallelPayload struct {
	Commands   []Command `json:"commands"`
	WaitForAll bool      `json:"wait_for_all"`
}

// RetryPayload re-runs Command up to MaxAttempts times with exponential
// backoff starting at DelayMs.
type RetryPayload struct {
	Command     *Command `json:"command"`
	MaxAttempts int      `json:"max_attempts"`
	DelayMs     int      `json:"delay_ms"`
}

// DelayPayload waits DurationMs, then runs Command.
type DelayPayload struct {
	DurationMs int      `json:"duration_ms"`
	Command    *Command `json:"command"`
}

// ConditionalPayload evaluates Condition against the client context and runs
// the matching branch. A missing branch is a no-op.
type ConditionalPayload struct {
	Condition string   `json:"condition"`
	IfTrue    *Command `json:"if_true,omitempty"`
	IfFalse   *Command `json:"if_false,omitempty"`
}

// PaymentMethod identifies a payment rail.
type PaymentMethod string

const (
	PaymentWeChat PaymentMethod = "wechat"
	PaymentAlipay PaymentMethod = "alipay"
	PaymentCard   PaymentMethod = "card"
)

// PaymentInfo describes one payment request.
type PaymentInfo struct {
	OrderID       string        `json:"order_id"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	Description   string        `json:"description"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// PaymentPayload asks the client to start a payment flow.
type PaymentPayload struct {
	PaymentInfo PaymentInfo `json:"payment_info"`
	CallbackURL string      `json:"callback_url"`
}

// payload returns the populated payload for Kind, or nil when the command is
// malformed.
func (c *Command) payload() interface{} {
	switch c.Kind {
	case KindNavigateTo:
		if c.Navigate != nil {
			return c.Navigate
		}
	case KindShowDialog:
		if c.Dialog != nil {
			return c.Dialog
		}
	case KindProcessData:
		if c.Process != nil {
			return c.Process
		}
	case KindSequence:
		if c.Sequence != nil {
			return c.Sequence
		}
	case KindParallel:
		if c.Parallel != nil {
			return c.Parallel
		}
	case KindRetry:
		if c.Retry != nil {
			return c.Retry
		}
	case KindDelay:
		if c.Delay != nil {
			return c.Delay
		}
	case KindConditional:
		if c.Conditional != nil {
			return c.Conditional
		}
	case KindRequestPayment:
		if c.Payment != nil {
			return c.Payment
		}
	}
	return nil
}
