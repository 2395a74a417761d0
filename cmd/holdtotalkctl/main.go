// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// holdtotalkctl is a thin client for the daemon's control socket: it
// marshals one request from its command-line arguments, sends it, and
// prints the response. Richer subcommand UX (interactive prompts, shell
// completion, history browsing) is the external "CLI and its subcommands"
// collaborator; this binary only speaks the wire protocol.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/holdtotalk/daemon/internal/config"
	"github.com/holdtotalk/daemon/internal/lifecycle"
)

var commands = map[string]string{
	"ping":           lifecycle.CmdPing,
	"status":         lifecycle.CmdGetStatus,
	"shutdown":       lifecycle.CmdShutdown,
	"start":          lifecycle.CmdStartDictation,
	"stop":           lifecycle.CmdStopDictation,
	"reload-config":  lifecycle.CmdReloadConfig,
	"get-config":     lifecycle.CmdGetConfig,
	"list-devices":   lifecycle.CmdListDevices,
	"list-models":    lifecycle.CmdListModels,
	"load-model":     lifecycle.CmdLoadModel,
	"unload-model":   lifecycle.CmdUnloadModel,
	"history":        lifecycle.CmdGetHistory,
	"delete-history": lifecycle.CmdDeleteHistoryItem,
	"clear-history":  lifecycle.CmdClearHistory,
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("holdtotalkctl", flag.ContinueOnError)
	socketPath := fs.String("socket", "", "control socket path (defaults to the per-user XDG runtime socket)")
	timeout := fs.Duration("timeout", 3*time.Second, "request timeout")
	param := fs.String("param", "", "optional key=value request parameter")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, usage())
		return 2
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "holdtotalkctl: unknown command %q\n%s\n", rest[0], usage())
		return 2
	}

	req := lifecycle.Request{Command: cmd}
	if *param != "" {
		key, value, found := strings.Cut(*param, "=")
		if !found {
			fmt.Fprintln(os.Stderr, "holdtotalkctl: --param must be key=value")
			return 2
		}
		req.Params = map[string]string{key: value}
	}

	path := *socketPath
	if path == "" {
		path = config.DefaultSocketPath(nil)
	}

	resp, err := lifecycle.SendRequest(path, req, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "holdtotalkctl: %v\n", err)
		return 1
	}

	printResponse(resp)
	return 0
}

func printResponse(resp lifecycle.Response) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

func usage() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	return "usage: holdtotalkctl [--socket path] [--timeout dur] [--param key=value] <" + strings.Join(names, "|") + ">"
}
