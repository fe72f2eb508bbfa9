// Package cli is an interactive REPL over the command processor, for debugging
// queries by hand.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/command"
	"github.com/bastiangx/typeahead/pkg/index"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var idStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})

const helpText = `commands:
  ADD <type> <id> <score> <name...>
  DEL <id>
  QUERY <n> <tokens...>
  WQUERY <n> <k> <key:factor>... <tokens...>
  <tokens...>          query with the default limit
  :show <id>           print one record
  :list [id-prefix]    list records by id
  :stats               index counters
  :trie                dump the trie in level order
  :compact             prune empty trie nodes
  :help`

// InputHandler reads lines from the user and prints ranked results.
type InputHandler struct {
	proc         *command.Processor
	defaultLimit int
	showScores   bool
	out          *log.Logger
	requestCount int
}

// NewInputHandler builds a handler writing to stderr.
func NewInputHandler(proc *command.Processor, defaultLimit int, showScores bool) *InputHandler {
	return NewInputHandlerWithWriter(proc, defaultLimit, showScores, os.Stderr)
}

// NewInputHandlerWithWriter is NewInputHandler writing to w.
func NewInputHandlerWithWriter(proc *command.Processor, defaultLimit int, showScores bool, w io.Writer) *InputHandler {
	return &InputHandler{
		proc:         proc,
		defaultLimit: defaultLimit,
		showScores:   showScores,
		out:          logger.NewWithWriter(w, ""),
	}
}

// Start runs the loop on stdin until EOF.
func (h *InputHandler) Start() error {
	h.out.Print("typeahead CLI, :help for commands (Ctrl+D to exit)")
	return h.Serve(os.Stdin)
}

// Serve runs the loop on r. EOF ends it cleanly; index invariant errors end it
// with the error.
func (h *InputHandler) Serve(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if herr := h.handleInput(line); herr != nil {
				return herr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (h *InputHandler) handleInput(line string) error {
	h.requestCount++
	if strings.HasPrefix(line, ":") {
		h.handleMeta(strings.Fields(line[1:]))
		return nil
	}

	if cmd, _ := command.Parse(line); !cmd.Known() {
		line = fmt.Sprintf("%s %d %s", command.VerbQuery, h.defaultLimit, line)
	}

	start := time.Now()
	res, err := h.proc.Exec(line)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, command.ErrMalformed) {
			h.out.Errorf("%v", err)
			return nil
		}
		return err
	}
	log.Debugf("Took [ %v ] for %q", elapsed, line)

	if !res.Output {
		h.out.Printf("ok (%v)", elapsed)
		return nil
	}
	if len(res.Hits) == 0 {
		h.out.Print("No results")
		return nil
	}
	h.out.Printf("Found %d results in %v:", len(res.Hits), elapsed)
	for i, hit := range res.Hits {
		name := utils.Truncate(hit.Record.DisplayName(), 40)
		if h.showScores {
			h.out.Printf("%2d. %-12s %-40s [%s] (score: %s)", i+1, idStyle.Render(hit.ID), name,
				hit.Record.Type, utils.FormatScore(hit.Score))
			continue
		}
		h.out.Printf("%2d. %-12s %s", i+1, idStyle.Render(hit.ID), name)
	}
	return nil
}

func (h *InputHandler) handleMeta(args []string) {
	if len(args) == 0 {
		h.out.Print(helpText)
		return
	}
	ix := h.proc.Index()

	switch args[0] {
	case "show":
		if len(args) < 2 {
			h.out.Error("usage: :show <id>")
			return
		}
		rec, ok := ix.Get(args[1])
		if !ok {
			h.out.Warnf("No record %q", args[1])
			return
		}
		h.printRecord(rec)
	case "list":
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		count := 0
		ix.Scan(prefix, func(rec index.Record) bool {
			h.printRecord(rec)
			count++
			return true
		})
		h.out.Printf("%s records", utils.FormatWithCommas(count))
	case "stats":
		s := ix.Stats()
		h.out.Print("index",
			"records", utils.FormatWithCommas(s.Records),
			"nodes", utils.FormatWithCommas(s.Nodes),
			"deletes", s.Deletes,
			"compactions", s.Compactions,
			"commands", h.proc.Clock(),
			"requests", h.requestCount)
	case "trie":
		h.out.Print(ix.DumpTrie())
	case "compact":
		h.out.Printf("pruned %d nodes", ix.Compact())
	case "help":
		h.out.Print(helpText)
	default:
		h.out.Errorf("Unknown meta command :%s", args[0])
	}
}

func (h *InputHandler) printRecord(rec index.Record) {
	h.out.Printf("%-12s %-40s [%s] (score: %s, ts: %d)", idStyle.Render(rec.ID),
		utils.Truncate(rec.DisplayName(), 40), rec.Type, utils.FormatScore(rec.Score), rec.Timestamp)
}
