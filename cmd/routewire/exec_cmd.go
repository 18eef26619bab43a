package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/routewire/routewire/pkg/condition"
	"github.com/routewire/routewire/pkg/engine"
	"github.com/routewire/routewire/pkg/response"
	"github.com/routewire/routewire/pkg/store"
	"github.com/routewire/routewire/pkg/telemetry"
)

type execOptions struct {
	input      string
	configPath string
	choice     engine.Choice
	user       map[string]interface{}
	admin      bool
	stats      bool
	archive    string
}

func parseExecArgs(args []string) (*execOptions, error) {
	opts := &execOptions{
		choice: engine.ChoiceConfirm,
		user:   map[string]interface{}{},
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--config requires a path")
			}
			opts.configPath = args[i]
		case "--choice":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--choice requires a value")
			}
			switch engine.Choice(args[i]) {
			case engine.ChoiceConfirm, engine.ChoiceCancel, engine.ChoiceDismiss:
				opts.choice = engine.Choice(args[i])
			default:
				return nil, fmt.Errorf("invalid choice %q", args[i])
			}
		case "--user":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--user requires key=value")
			}
			k, v, ok := strings.Cut(args[i], "=")
			if !ok || k == "" {
				return nil, fmt.Errorf("invalid --user %q, expected key=value", args[i])
			}
			opts.user[k] = v
		case "--admin":
			opts.admin = true
		case "--stats":
			opts.stats = true
		case "--archive":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--archive requires a path")
			}
			opts.archive = args[i]
		default:
			if strings.HasPrefix(args[i], "--") {
				return nil, fmt.Errorf("unknown option %s", args[i])
			}
			if opts.input != "" {
				return nil, fmt.Errorf("multiple input files given")
			}
			opts.input = args[i]
		}
	}
	if opts.input == "" {
		return nil, fmt.Errorf("an input file (or - for stdin) is required")
	}
	return opts, nil
}

func execCmd(args []string) {
	opts, err := parseExecArgs(args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := runExec(opts, os.Stdout); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func runExec(opts *execOptions, out io.Writer) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	data, err := readInput(opts.input)
	if err != nil {
		return err
	}
	rc, err := decodeInput(data)
	if err != nil {
		return err
	}

	var storeOpts []store.Option
	if cfg.Store.SnapshotPath != "" {
		storeOpts = append(storeOpts, store.WithSnapshot(cfg.Store.SnapshotPath))
	}
	st := store.New(storeOpts...)

	var sink telemetry.Sink
	if cfg.Telemetry.SinkURL != "" {
		sink = telemetry.NewHTTPSink(cfg.Telemetry.SinkURL)
	}
	recorder := telemetry.NewRecorder(cfg.Telemetry.Capacity, sink)
	defer recorder.Close()

	caps := &consoleCaps{out: out, store: st, choice: opts.choice}
	ex := engine.New(caps, recorder, engine.Config{
		SupportedVersion: cfg.Protocol.SupportedVersion,
		MaxDepth:         cfg.Protocol.MaxDepth,
		MaxFallbackChain: cfg.Protocol.MaxFallbackChain,
		DefaultTimeout:   time.Duration(cfg.Protocol.DefaultTimeoutMs) * time.Millisecond,
	})
	ex.SetConditionContext(conditionContext(opts, st))

	ctx := context.Background()
	if rc.Versioned != nil {
		err = ex.ExecuteVersioned(ctx, rc.Versioned)
	} else {
		err = ex.Execute(ctx, *rc.Command)
	}
	if err != nil {
		fmt.Fprintf(out, "[error] %v\n", err)
	}

	if opts.stats {
		printStats(out, recorder.Stats())
	}
	if opts.archive != "" {
		if aerr := writeArchive(recorder, opts.archive); aerr != nil {
			return aerr
		}
		fmt.Fprintf(out, "[archive] wrote %s\n", opts.archive)
	}
	return err
}

func readInput(input string) ([]byte, error) {
	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// decodeInput accepts a full response envelope, a versioned command envelope,
// or a bare command.
func decodeInput(data []byte) (*response.RouteCommand, error) {
	if strings.Contains(string(data), `"route_command"`) {
		var resp response.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode response envelope: %w", err)
		}
		if resp.RouteCommand.IsZero() {
			return nil, fmt.Errorf("response envelope carries no route command")
		}
		return resp.RouteCommand, nil
	}

	var rc response.RouteCommand
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("failed to decode command: %w", err)
	}
	return &rc, nil
}

// conditionContext seeds the evaluator context from CLI flags and the current
// store contents.
func conditionContext(opts *execOptions, st *store.Store) func() *condition.Context {
	return func() *condition.Context {
		cc := condition.NewContext()
		user := map[string]interface{}{}
		for k, v := range opts.user {
			user[k] = v
		}
		if opts.admin {
			user["is_admin"] = true
		}
		if len(user) > 0 {
			user["is_logged_in"] = true
		}
		cc.SetUser(user)
		if cart := st.Get("cache"); cart != nil {
			cc.Set("cart", cart)
		}
		return cc
	}
}

func printStats(out io.Writer, s telemetry.Stats) {
	fmt.Fprintf(out, "executions: %d (ok %d, failed %d, rate %s)\n", s.Total, s.Succeeded, s.Failed, s.SuccessRate)
	fmt.Fprintf(out, "duration: avg %.1fms, max %dms\n", s.AvgDurationMs, s.MaxDurationMs)
	for kind, n := range s.ByKind {
		fmt.Fprintf(out, "  %s: %d\n", kind, n)
	}
	if s.Fallbacks > 0 {
		fmt.Fprintf(out, "fallbacks: %d\n", s.Fallbacks)
	}
}

func writeArchive(recorder *telemetry.Recorder, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()
	if err := recorder.WriteArchive(f); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}
