package command

import (
	"encoding/json"
	"fmt"
)

// wire is the {"type", "payload"} pair commands take on the wire.
type wire struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON encodes the command as a tag/payload pair. Nested commands
// recurse through the same codec.
func (c Command) MarshalJSON() ([]byte, error) {
	p := c.payload()
	if p == nil {
		return nil, fmt.Errorf("marshal command %q: %w", c.Kind, ErrMissingPayload)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", c.Kind, err)
	}
	return json.Marshal(wire{Type: c.Kind, Payload: raw})
}

// UnmarshalJSON decodes a tag/payload pair into the matching variant. An
// unknown tag fails with ErrUnknownKind so the caller can surface a protocol
// error instead of guessing.
func (c *Command) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode command envelope: %w", err)
	}
	if w.Type == "" {
		return fmt.Errorf("decode command: missing type tag")
	}

	*c = Command{Kind: w.Type}

	var dst interface{}
	switch w.Type {
	case KindNavigateTo:
		c.Navigate = &NavigatePayload{}
		dst = c.Navigate
	case KindShowDialog:
		c.Dialog = &DialogPayload{}
		dst = c.Dialog
	case KindProcessData:
		c.Process = &ProcessPayload{}
		dst = c.Process
	case KindSequence:
		c.Sequence = &SequencePayload{}
		dst = c.Sequence
	case KindParallel:
		c.Parallel = &ParallelPayload{}
		dst = c.Parallel
	case KindRetry:
		c.Retry = &RetryPayload{}
		dst = c.Retry
	case KindDelay:
		c.Delay = &DelayPayload{}
		dst = c.Delay
	case KindConditional:
		c.Conditional = &ConditionalPayload{}
		dst = c.Conditional
	case KindRequestPayment:
		c.Payment = &PaymentPayload{}
		dst = c.Payment
	default:
		return fmt.Errorf("decode command type %q: %w", w.Type, ErrUnknownKind)
	}

	if len(w.Payload) == 0 {
		return fmt.Errorf("decode %s: %w", w.Type, ErrMissingPayload)
	}
	if err := json.Unmarshal(w.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", w.Type, err)
	}
	return nil
}

// Decode parses a single command from JSON.
func Decode(data []byte) (*Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
