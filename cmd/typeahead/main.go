/*
Package main runs the typeahead index as a batch filter, a MessagePack IPC
server or an interactive CLI.

typeahead keeps records (a type, an id, a score and a multi-word name) in an
in-memory character trie. Queries return the ids of records where every query
token is a prefix of some word in the name, ranked by score, then recency,
then id.

# Usage

Batch mode reads a command count from stdin followed by that many commands, and
writes one line of space separated ids per query to stdout:

	typeahead < commands.txt

	3
	ADD coffee 1 0 Chennai Express
	ADD restaurants 2 0 Chennai Darbar
	QUERY 10 che

prints

	2 1

Weighted queries multiply the score of records whose type or id matches a
boost key:

	WQUERY 10 1 coffee:2.5 che

Run the IPC server for editor or service integration:

	typeahead -ipc

Run the CLI for poking at an index by hand:

	typeahead -c

# Configuration

Server and CLI modes read a TOML file, created with defaults when missing:

	[protocol]
	strict = true

	[index]
	compact_every = 0

	[server]
	max_limit = 64

	[cli]
	default_limit = 10
	show_scores = true

Batch mode uses builtin defaults unless -config is given.

# Command Line Flags

	-version
	    Show current version
	-d  Enable debug logging on stderr
	-c  Run the interactive CLI
	-ipc
	    Run the MessagePack IPC server on stdin/stdout
	-config string
	    Path to a TOML config file
	-lenient
	    Skip malformed commands instead of aborting
	-compact int
	    Prune empty trie nodes after this many deletes (-1 uses config)
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/typeahead/internal/cli"
	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/pkg/command"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/index"
	"github.com/bastiangx/typeahead/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	AppName = "typeahead"
	gh      = "https://github.com/bastiangx/typeahead"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only wires flags, config and the chosen front end together.
func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	ipcMode := flag.Bool("ipc", false, "Run the MessagePack IPC server on stdin/stdout")
	configPath := flag.String("config", "", "Path to a TOML config file")
	lenient := flag.Bool("lenient", false, "Skip malformed commands instead of aborting")
	compactEvery := flag.Int("compact", -1, "Prune empty trie nodes after this many deletes (-1 uses config)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.SetupGlobal(*debugMode)

	cfg, activePath := loadConfig(*configPath, *cliMode || *ipcMode)
	log.Debugf("Using config: %s", config.GetActiveConfigPath(activePath))

	if *lenient {
		cfg.Protocol.Strict = false
	}
	if *compactEvery >= 0 {
		cfg.Index.CompactEvery = *compactEvery
	}

	idx := index.New(index.WithCompactEvery(cfg.Index.CompactEvery))
	opts := []command.Option{
		command.WithStrict(cfg.Protocol.Strict),
		command.WithLogger(logger.New("typeahead")),
	}

	switch {
	case *cliMode:
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "limit", cfg.CLI.DefaultLimit, "scores", cfg.CLI.ShowScores)

		// strict so malformed lines come back as errors for InputHandler to print
		proc := command.NewProcessor(idx, append(opts, command.WithStrict(true))...)
		inputHandler := cli.NewInputHandler(proc, cfg.CLI.DefaultLimit, cfg.CLI.ShowScores)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
	case *ipcMode:
		log.Debug("spawning IPC", "max_limit", cfg.Server.MaxLimit)
		proc := command.NewProcessor(idx, append(opts, command.WithMaxLimit(cfg.Server.MaxLimit))...)
		showStartupInfo(activePath)
		if err := server.NewServer(proc).Start(); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	default:
		proc := command.NewProcessor(idx, opts...)
		if err := proc.Run(os.Stdin, os.Stdout); err != nil {
			log.Fatalf("%v", err)
		}
	}
}

// loadConfig picks the config source. Interactive modes go through the
// default path lookup and create the file; batch mode only reads an explicit
// path.
func loadConfig(path string, interactive bool) (*config.Config, string) {
	if interactive {
		cfg, active, err := config.LoadConfigWithPriority(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		return cfg, active
	}
	if path == "" {
		return config.DefaultConfig(), ""
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg, path
}

func printVersion() {
	l := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ typeahead ] prefix search over ranked records", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo prints a short banner on stderr before serving.
func showStartupInfo(configPath string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
