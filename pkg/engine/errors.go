package engine

import (
	"fmt"
	"time"

	"github.com/routewire/routewire/pkg/command"
)

// The error taxonomy callers can branch on with errors.As:
//
//   - ProtocolError: malformed tree, unknown tag, depth or chain cap exceeded
//   - VersionError: incompatible version with no usable fallback
//   - TimeoutError: metadata timeout exceeded (work keeps running)
//   - CapabilityError: a host capability call failed
//   - ConditionError: expression evaluation failed; never escapes the
//     Conditional handler, exported for logging and tests only

// ProtocolError reports a contract violation in the command tree itself.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// VersionError reports an envelope the client cannot execute and no
// fallback could rescue.
type VersionError struct {
	ServerVersion int
	ClientVersion int
	Err           error
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported version %d (client %d)", e.ServerVersion, e.ClientVersion)
}

func (e *VersionError) Unwrap() error { return e.Err }

// TimeoutError reports that the metadata timeout elapsed before the command
// settled. The underlying work is not cancelled.
type TimeoutError struct {
	CommandType command.Kind
	Timeout     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.CommandType, e.Timeout)
}

// CapabilityError reports a failed host capability call.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// ConditionError reports a failed condition evaluation. The Conditional
// handler converts it to a false branch and logs it.
type ConditionError struct {
	Expression string
	Err        error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %q: %v", e.Expression, e.Err)
}

func (e *ConditionError) Unwrap() error { return e.Err }
