package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/routewire/routewire/pkg/command"
)

func checkCmd(args []string) {
	if len(args) == 0 {
		fmt.Printf("Usage: %s check <server> <client> | %s check <file> --client <version>\n", cliName, cliName)
		os.Exit(1)
	}

	if server, err := strconv.Atoi(args[0]); err == nil {
		if len(args) < 2 {
			fmt.Println("Error: a client version is required")
			os.Exit(1)
		}
		client, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Printf("Error: invalid client version %q\n", args[1])
			os.Exit(1)
		}
		checkVersions(server, client)
		return
	}

	client := 0
	file := args[0]
	for i := 1; i < len(args); i++ {
		if args[i] == "--client" {
			i++
			if i >= len(args) {
				fmt.Println("Error: --client requires a version")
				os.Exit(1)
			}
			v, err := strconv.Atoi(args[i])
			if err != nil {
				fmt.Printf("Error: invalid client version %q\n", args[i])
				os.Exit(1)
			}
			client = v
		}
	}
	if client == 0 {
		fmt.Println("Error: --client <version> is required when checking a file")
		os.Exit(1)
	}
	checkEnvelope(file, client)
}

func checkVersions(server, client int) {
	if command.IsCompatible(server, client) {
		fmt.Printf("compatible: server %d can be executed by client %d\n", server, client)
		return
	}
	if server/100 != client/100 {
		fmt.Printf("incompatible: major version mismatch (server %d, client %d)\n", server, client)
	} else {
		fmt.Printf("incompatible: client %d is older than server %d within the same major\n", client, server)
	}
	os.Exit(1)
}

func checkEnvelope(file string, client int) {
	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	var env command.Versioned
	if err := json.Unmarshal(data, &env); err != nil {
		fmt.Printf("Error: failed to decode envelope: %v\n", err)
		os.Exit(1)
	}

	chosen, hops, err := env.Resolve(client, command.DefaultMaxFallbackChain)
	if err != nil {
		fmt.Printf("unresolvable for client %d: %v\n", client, err)
		os.Exit(1)
	}
	if hops == 0 {
		fmt.Printf("resolved: version %d (%s), no fallback needed\n", chosen.Version, chosen.Command.Kind)
	} else {
		fmt.Printf("resolved: version %d (%s) after %d fallback hop(s) from %d\n", chosen.Version, chosen.Command.Kind, hops, env.Version)
	}
}
