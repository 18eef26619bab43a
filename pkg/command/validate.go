package command

import (
	"errors"
	"fmt"
)

// DefaultMaxDepth caps how deep a command tree may nest. Trees are acyclic by
// construction, but a malformed or adversarial server could still send
// something absurdly deep; past this the tree is rejected outright.
const DefaultMaxDepth = 32

var ErrTooDeep = errors.New("command tree exceeds maximum depth")

// Validate checks the tree for structural problems: missing payloads, bad
// numeric bounds and excessive nesting. maxDepth <= 0 means DefaultMaxDepth.
func (c *Command) Validate(maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return c.validate(1, maxDepth)
}

func (c *Command) validate(depth, maxDepth int) error {
	if depth > maxDepth {
		return fmt.Errorf("depth %d: %w", depth, ErrTooDeep)
	}
	if c.payload() == nil {
		if c.Kind == "" {
			return fmt.Errorf("command has no type tag: %w", ErrUnknownKind)
		}
		return fmt.Errorf("command %s: %w", c.Kind, ErrMissingPayload)
	}

	switch c.Kind {
	case KindNavigateTo:
		if c.Navigate.Path == "" {
			return fmt.Errorf("NavigateTo: empty path")
		}
	case KindShowDialog:
		for i := range c.Dialog.Actions {
			if a := c.Dialog.Actions[i].Action; a != nil {
				if err := a.validate(depth+1, maxDepth); err != nil {
					return err
				}
			}
		}
	case KindProcessData:
		if c.Process.DataType == "" {
			return fmt.Errorf("ProcessData: empty data_type")
		}
	case KindSequence:
		for i := range c.Sequence.Commands {
			if err := c.Sequence.Commands[i].validate(depth+1, maxDepth); err != nil {
				return err
			}
		}
	case KindParallel:
		for i := range c.Parallel.Commands {
			if err := c.Parallel.Commands[i].validate(depth+1, maxDepth); err != nil {
				return err
			}
		}
	case KindRetry:
		if c.Retry.MaxAttempts < 1 {
			return fmt.Errorf("Retry: max_attempts %d, want >= 1", c.Retry.MaxAttempts)
		}
		if c.Retry.DelayMs < 0 {
			return fmt.Errorf("Retry: negative delay_ms %d", c.Retry.DelayMs)
		}
		if c.Retry.Command == nil {
			return fmt.Errorf("Retry: %w", ErrMissingPayload)
		}
		return c.Retry.Command.validate(depth+1, maxDepth)
	case KindDelay:
		if c.Delay.DurationMs < 0 {
			return fmt.Errorf("Delay: negative duration_ms %d", c.Delay.DurationMs)
		}
		if c.Delay.Command == nil {
			return fmt.Errorf("Delay: %w", ErrMissingPayload)
		}
		return c.Delay.Command.validate(depth+1, maxDepth)
	case KindConditional:
		if c.Conditional.Condition == "" {
			return fmt.Errorf("Conditional: empty condition")
		}
		if t := c.Conditional.IfTrue; t != nil {
			if err := t.validate(depth+1, maxDepth); err != nil {
				return err
			}
		}
		if f := c.Conditional.IfFalse; f != nil {
			if err := f.validate(depth+1, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}
