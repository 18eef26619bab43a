// Package response defines the generic API envelope the server wraps every
// payload in, including the optional route command that drives the client.
package response

import (
	"encoding/json"
	"fmt"

	"github.com/routewire/routewire/pkg/command"
)

// RouteCommand is the route_command field of a response: either a bare
// command or a versioned envelope, depending on the server. Exactly one of
// the two fields is set after decoding.
type RouteCommand struct {
	Versioned *command.Versioned
	Command   *command.Command
}

// MarshalJSON emits whichever form is populated, preferring the versioned
// envelope.
func (rc RouteCommand) MarshalJSON() ([]byte, error) {
	switch {
	case rc.Versioned != nil:
		return json.Marshal(rc.Versioned)
	case rc.Command != nil:
		return json.Marshal(rc.Command)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON sniffs the object shape: a "version" key means a versioned
// envelope, a "type" key a bare command.
func (rc *RouteCommand) UnmarshalJSON(data []byte) error {
	*rc = RouteCommand{}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode route_command: %w", err)
	}
	if probe == nil {
		return nil
	}

	if _, ok := probe["version"]; ok {
		var v command.Versioned
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		rc.Versioned = &v
		return nil
	}
	if _, ok := probe["type"]; ok {
		var c command.Command
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		rc.Command = &c
		return nil
	}
	return fmt.Errorf("decode route_command: neither a command nor a versioned envelope")
}

// IsZero reports whether no command was attached.
func (rc *RouteCommand) IsZero() bool {
	return rc == nil || (rc.Versioned == nil && rc.Command == nil)
}

// Response is the generic server-to-client envelope.
type Response struct {
	Code         int             `json:"code"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data,omitempty"`
	RouteCommand *RouteCommand   `json:"route_command,omitempty"`
}

// Success builds a 200 response carrying data.
func Success(data interface{}) (Response, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Response{}, fmt.Errorf("marshal response data: %w", err)
	}
	return Response{Code: 200, Message: "success", Data: raw}, nil
}

// Error builds a 500 response with a message and no data.
func Error(message string) Response {
	return Response{Code: 500, Message: message}
}

// Ok builds an empty 200 response.
func Ok() Response {
	return Response{Code: 200, Message: "ok"}
}

// WithCommand attaches a bare route command.
func (r Response) WithCommand(cmd command.Command) Response {
	r.RouteCommand = &RouteCommand{Command: &cmd}
	return r
}

// WithVersioned attaches a versioned route command.
func (r Response) WithVersioned(env *command.Versioned) Response {
	r.RouteCommand = &RouteCommand{Versioned: env}
	return r
}
