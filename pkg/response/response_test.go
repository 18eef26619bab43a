package response

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/routewire/routewire/pkg/command"
)

func TestDecodeBareCommand(t *testing.T) {
	raw := `{
		"code": 200,
		"message": "success",
		"route_command": {"type": "NavigateTo", "payload": {"path": "/home"}}
	}`

	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.RouteCommand.IsZero() {
		t.Fatal("expected a route command")
	}
	if resp.RouteCommand.Versioned != nil {
		t.Fatal("expected a bare command, got versioned")
	}
	cmd := resp.RouteCommand.Command
	if cmd.Kind != command.KindNavigateTo || cmd.Navigate.Path != "/home" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestDecodeVersionedCommand(t *testing.T) {
	raw := `{
		"code": 200,
		"message": "success",
		"route_command": {
			"version": 200,
			"command": {"type": "ShowDialog", "payload": {"dialog_type": "Toast", "content": "hi"}}
		}
	}`

	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	env := resp.RouteCommand.Versioned
	if env == nil {
		t.Fatal("expected a versioned envelope")
	}
	if env.Version != 200 || env.Command.Kind != command.KindShowDialog {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestDecodeNullRouteCommand(t *testing.T) {
	var resp Response
	if err := json.Unmarshal([]byte(`{"code": 200, "message": "ok", "route_command": null}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.RouteCommand.IsZero() {
		t.Fatalf("expected no command, got %+v", resp.RouteCommand)
	}
}

func TestDecodeUnrecognizedShape(t *testing.T) {
	var resp Response
	err := json.Unmarshal([]byte(`{"code": 200, "message": "ok", "route_command": {"foo": 1}}`), &resp)
	if err == nil {
		t.Fatal("expected error for unrecognized route_command shape")
	}
	if !strings.Contains(err.Error(), "route_command") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSuccessCarriesData(t *testing.T) {
	resp, err := Success(map[string]string{"name": "alice"})
	if err != nil {
		t.Fatalf("Success: %v", err)
	}
	if resp.Code != 200 || resp.Message != "success" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"name":"alice"`) {
		t.Fatalf("data missing from output: %s", out)
	}
	if strings.Contains(string(out), "route_command") {
		t.Fatalf("route_command should be omitted: %s", out)
	}
}

func TestWithCommandRoundTrip(t *testing.T) {
	resp := Ok().WithCommand(command.Toast("saved"))

	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Response
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cmd := back.RouteCommand.Command
	if cmd == nil || cmd.Kind != command.KindShowDialog || cmd.Dialog.Content != "saved" {
		t.Fatalf("unexpected round trip: %+v", back.RouteCommand)
	}
}

func TestErrorEnvelope(t *testing.T) {
	resp := Error("database unavailable")
	if resp.Code != 500 || resp.Message != "database unavailable" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}
