package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/routewire/routewire/pkg/config"
	"github.com/routewire/routewire/pkg/logger"
)

var (
	version   = "dev"
	buildTime string
)

const cliName = "routewire"

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "exec":
		execCmd(os.Args[2:])
	case "feed":
		feedCmd(os.Args[2:])
	case "check":
		checkCmd(os.Args[2:])
	case "version", "--version", "-v":
		printVersion()
	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("%s v%s\n", cliName, version)
	if buildTime != "" {
		fmt.Printf("  Build: %s\n", buildTime)
	}
	fmt.Printf("  Go: %s\n", runtime.Version())
}

func printHelp() {
	fmt.Printf(`%s - server-driven route command runner

Usage:
  %s exec <file|-> [options]   Execute a command envelope from a file or stdin
  %s feed [url] [options]      Subscribe to a websocket command feed
  %s check <server> <client>   Check version compatibility
  %s check <file> --client <v> Resolve an envelope against a client version
  %s version                   Print version information

Exec options:
  --config <path>     Config file (default: routewire.yaml)
  --choice <c>        Dialog answer: confirm, cancel, dismiss (default: confirm)
  --user <k=v>        Add a user field to the condition context (repeatable)
  --admin             Mark the condition context user as admin
  --stats             Print execution statistics afterwards
  --archive <path>    Write a compressed telemetry archive afterwards
`, cliName, cliName, cliName, cliName, cliName, cliName)
}

// loadConfig resolves the config path from --config, ROUTEWIRE_CONFIG, or the
// default file name, and initializes logging from it.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("ROUTEWIRE_CONFIG")
	}
	if path == "" {
		path = "routewire.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}
