package command

import (
	"errors"
	"fmt"
)

// Protocol versions are single integers whose decimal digits read as
// MAJOR/MINOR/PATCH: 210 is 2.1.0. The scalar keeps the wire payload a plain
// number instead of a three-field struct.

// DefaultMaxFallbackChain caps how many fallback hops a versioned envelope
// may take. A misconfigured server could otherwise send an effectively
// endless chain.
const DefaultMaxFallbackChain = 10

var (
	ErrFallbackChainTooLong = errors.New("fallback chain exceeds maximum length")
	ErrNoCompatibleVersion  = errors.New("no compatible version in envelope")
)

// Metadata carries execution hints alongside a versioned command.
type Metadata struct {
	TimeoutMs int      `json:"timeout_ms,omitempty"`
	Priority  int      `json:"priority,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Versioned wraps a command with a protocol version and an optional fallback
// envelope to use when the version is not supported by the client.
type Versioned struct {
	Version  int        `json:"version"`
	Command  Command    `json:"command"`
	Fallback *Versioned `json:"fallback,omitempty"`
	Metadata *Metadata  `json:"metadata,omitempty"`
}

// IsCompatible reports whether a client at clientVersion can execute a
// command declared at serverVersion. Majors must match exactly; within a
// major, the client minor must be at least the server minor. Patch never
// matters.
func IsCompatible(serverVersion, clientVersion int) bool {
	if serverVersion/100 != clientVersion/100 {
		return false
	}
	return (clientVersion%100)/10 >= (serverVersion%100)/10
}

// Resolve walks the fallback chain and returns the first envelope the client
// can execute, along with the number of fallback hops taken. maxChain <= 0
// means DefaultMaxFallbackChain.
func (v *Versioned) Resolve(clientVersion, maxChain int) (*Versioned, int, error) {
	if maxChain <= 0 {
		maxChain = DefaultMaxFallbackChain
	}

	cur := v
	for hops := 0; cur != nil; hops++ {
		if hops > maxChain {
			return nil, hops, fmt.Errorf("after %d hops: %w", hops, ErrFallbackChainTooLong)
		}
		if IsCompatible(cur.Version, clientVersion) {
			return cur, hops, nil
		}
		cur = cur.Fallback
	}
	return nil, 0, fmt.Errorf("version %d, client %d: %w", v.Version, clientVersion, ErrNoCompatibleVersion)
}

// Validate checks the envelope, its metadata and every command in the chain.
func (v *Versioned) Validate(maxDepth, maxChain int) error {
	if maxChain <= 0 {
		maxChain = DefaultMaxFallbackChain
	}

	cur := v
	for hops := 0; cur != nil; hops++ {
		if hops > maxChain {
			return fmt.Errorf("after %d hops: %w", hops, ErrFallbackChainTooLong)
		}
		if cur.Version < 0 {
			return fmt.Errorf("negative version %d", cur.Version)
		}
		if m := cur.Metadata; m != nil {
			if m.TimeoutMs < 0 {
				return fmt.Errorf("negative timeout_ms %d", m.TimeoutMs)
			}
			if m.Priority != 0 && (m.Priority < 1 || m.Priority > 10) {
				return fmt.Errorf("priority %d out of range 1-10", m.Priority)
			}
		}
		if err := cur.Command.Validate(maxDepth); err != nil {
			return fmt.Errorf("version %d: %w", cur.Version, err)
		}
		cur = cur.Fallback
	}
	return nil
}
