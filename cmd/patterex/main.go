// patterex is a hierarchical OS-process workflow engine. This binary is its
// command-line front-end: run a pattern document to completion, or serve
// the HTTP API and cron trigger scheduler.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/smilemakc/patterex/internal/api"
	"github.com/smilemakc/patterex/internal/config"
	"github.com/smilemakc/patterex/internal/infrastructure/logger"
	"github.com/smilemakc/patterex/internal/trigger"
	"github.com/smilemakc/patterex/pattern"
	"github.com/smilemakc/patterex/reactor"
)

const (
	version = "0.1.0"
	usage   = `patterex - hierarchical OS-process workflow engine

USAGE:
    patterex <command> [options]

COMMANDS:
    run <file>    Run a pattern document to completion
    serve         Start the HTTP API and cron trigger scheduler
    version       Show version information
    help          Show this help message

RUN OPTIONS:
    -format <fmt>   Document format: yaml, json (default: yaml)

ENVIRONMENT VARIABLES:
    PATTEREX_PORT              HTTP API port (default: 8585)
    PATTEREX_HOST              HTTP API bind host (default: 0.0.0.0)
    PATTEREX_LOG_LEVEL         Log level: debug, info, warn, error (default: info)
    PATTEREX_LOG_FORMAT        Log format: json, text (default: json)
    PATTEREX_OBSERVER_HTTP_URL Webhook URL for the HTTP callback observer
`
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	godotenv.Load()

	switch os.Args[1] {
	case "run":
		handleRun(os.Args[2:])
	case "serve":
		handleServe()
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// handleRun implements spec.md §6's minimum driver contract: deserialize a
// pattern document, run it, print the terminal status, and exit 0 on
// SUCCEEDED or 1 on FAILED.
func handleRun(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: run requires a pattern document path")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	format := fs.String("format", "yaml", "Document format: yaml, json")
	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading %s: %v\n", path, err)
		os.Exit(1)
	}

	var p pattern.Pattern
	switch *format {
	case "yaml":
		p, err = pattern.Deserialize(data)
	case "json":
		var raw any
		if err = json.Unmarshal(data, &raw); err == nil {
			p, err = pattern.DeserializeJSON(raw)
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid format %q (must be yaml or json)\n", *format)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: parsing %s: %v\n", path, err)
		os.Exit(1)
	}

	status, err := reactor.Run(context.Background(), p, "cli", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(status.String())
	if status == pattern.SUCCEEDED {
		os.Exit(0)
	}
	os.Exit(1)
}

func handleServe() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)

	srv := api.NewServer(cfg, log)

	var sched *trigger.CronScheduler
	if cfg.Trigger.Enabled {
		sched = trigger.NewCronScheduler(srv.Manager(), log)
		sched.Start(cfg.Trigger)
		defer sched.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("patterex serving", "host", cfg.Server.Host, "port", cfg.Server.Port)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
