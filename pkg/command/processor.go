// Package command implements the line protocol: parsing ADD/DEL/QUERY/WQUERY
// lines, stamping records with the global command counter, and the batch
// runner that reads a command count followed by that many commands.
package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/typeahead/pkg/index"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/charmbracelet/log"
)

// Result is the outcome of one command. Output is true for commands that
// print a line (queries), even when IDs is empty.
type Result struct {
	Output bool
	IDs    []string
	Hits   []suggest.Hit
}

// Line renders the result as the protocol output line, without newline.
func (r Result) Line() string {
	return strings.Join(r.IDs, " ")
}

// Processor applies commands to an index in order. It is not safe for
// concurrent use; the counter it owns defines command order.
type Processor struct {
	idx      *index.Index
	engine   *suggest.Engine
	clock    uint64
	strict   bool
	maxLimit int
	logger   *log.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithStrict sets the malformed command policy. Strict processors return the
// error; lenient ones log it and skip the command.
func WithStrict(strict bool) Option {
	return func(p *Processor) {
		p.strict = strict
	}
}

// WithMaxLimit caps the result count of every query. Zero means no cap.
func WithMaxLimit(n int) Option {
	return func(p *Processor) {
		p.maxLimit = n
	}
}

// WithLogger replaces the default package logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Processor) {
		p.logger = l
	}
}

// NewProcessor returns a strict processor over idx.
func NewProcessor(idx *index.Index, opts ...Option) *Processor {
	p := &Processor{
		idx:    idx,
		engine: suggest.NewEngine(idx),
		strict: true,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Index returns the index the processor writes to.
func (p *Processor) Index() *index.Index {
	return p.idx
}

// Clock is the number of commands processed so far.
func (p *Processor) Clock() uint64 {
	return p.clock
}

// Exec parses and applies one protocol line.
func (p *Processor) Exec(line string) (Result, error) {
	cmd, err := Parse(line)
	if err != nil {
		p.clock++
		return p.reject(cmd, err)
	}
	return p.Apply(cmd)
}

// Apply runs a parsed command and advances the counter. Malformed commands are
// handled per the processor's policy; index invariant errors are always
// returned.
func (p *Processor) Apply(cmd Command) (Result, error) {
	ts := p.clock
	p.clock++

	switch cmd.Verb {
	case VerbAdd:
		if len(cmd.Name) == 0 || cmd.ID == "" {
			return p.reject(cmd, malformed(cmd.Verb, "missing id or name", nil))
		}
		err := p.idx.Upsert(index.Record{
			ID:        cmd.ID,
			Type:      cmd.Type,
			Score:     cmd.Score,
			Name:      cmd.Name,
			Timestamp: ts,
		})
		return Result{}, err
	case VerbDel:
		if cmd.ID == "" {
			return p.reject(cmd, malformed(cmd.Verb, "missing id", nil))
		}
		_, err := p.idx.Delete(cmd.ID)
		return Result{}, err
	case VerbQuery, VerbWQuery:
		limit := cmd.Limit
		if p.maxLimit > 0 && limit > p.maxLimit {
			limit = p.maxLimit
		}
		hits := p.engine.Search(limit, cmd.Tokens, suggest.NewBoosts(cmd.Boosts))
		ids := make([]string, len(hits))
		for i, h := range hits {
			ids[i] = h.ID
		}
		return Result{Output: true, IDs: ids, Hits: hits}, nil
	case "":
		return Result{}, nil
	default:
		p.logger.Warn("Ignoring unknown command", "verb", cmd.Verb)
		return Result{}, nil
	}
}

func (p *Processor) reject(cmd Command, err error) (Result, error) {
	if p.strict {
		return Result{}, err
	}
	p.logger.Warnf("Skipping command: %v", err)
	return Result{Output: cmd.IsQuery()}, nil
}

// Run reads a command count line followed by that many command lines from r
// and writes one line to w for every query. Input ending before the count is
// reached is an error.
func (p *Processor) Run(r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	out := bufio.NewWriter(w)
	defer out.Flush()

	header, err := readLine(reader)
	if err != nil {
		return fmt.Errorf("reading command count: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || n < 0 {
		return fmt.Errorf("bad command count %q: %w", header, ErrMalformed)
	}

	start := time.Now()
	for i := 0; i < n; i++ {
		line, err := readLine(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("input ended after %d of %d commands: %w", i, n, io.ErrUnexpectedEOF)
			}
			return err
		}

		res, err := p.Exec(line)
		if err != nil {
			return fmt.Errorf("command %d: %w", i+1, err)
		}
		if res.Output {
			out.WriteString(res.Line())
			out.WriteByte('\n')
		}
	}

	stats := p.idx.Stats()
	p.logger.Debugf("Processed %d commands in [ %v ], %d records, %d trie nodes",
		n, time.Since(start), stats.Records, stats.Nodes)
	return out.Flush()
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned as-is; io.EOF only when nothing is left.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
