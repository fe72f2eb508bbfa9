package command

import (
	"math"
	"strconv"
	"strings"

	"github.com/bastiangx/typeahead/pkg/suggest"
)

// Protocol verbs.
const (
	VerbAdd    = "ADD"
	VerbDel    = "DEL"
	VerbQuery  = "QUERY"
	VerbWQuery = "WQUERY"
)

// Command is one parsed protocol line. Which fields are set depends on Verb.
type Command struct {
	Verb string

	// ADD
	Type  string
	Score float64
	Name  []string

	// ADD, DEL
	ID string

	// QUERY, WQUERY
	Limit  int
	Boosts []suggest.Boost
	Tokens []string
}

// IsQuery reports whether the command prints a result line.
func (c Command) IsQuery() bool {
	return c.Verb == VerbQuery || c.Verb == VerbWQuery
}

// Known reports whether Verb is one of the protocol verbs.
func (c Command) Known() bool {
	switch c.Verb {
	case VerbAdd, VerbDel, VerbQuery, VerbWQuery:
		return true
	}
	return false
}

// Parse splits a protocol line on whitespace and decodes it. Blank lines and
// unknown verbs parse without error; the returned command is then !Known().
// On error the returned command still carries Verb.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, nil
	}
	cmd := Command{Verb: fields[0]}
	args := fields[1:]

	switch cmd.Verb {
	case VerbAdd:
		return parseAdd(cmd, args)
	case VerbDel:
		if len(args) < 1 {
			return cmd, malformed(cmd.Verb, "missing id", nil)
		}
		cmd.ID = args[0]
	case VerbQuery:
		if len(args) < 1 {
			return cmd, malformed(cmd.Verb, "missing result count", nil)
		}
		limit, err := strconv.Atoi(args[0])
		if err != nil {
			return cmd, malformed(cmd.Verb, "bad result count", err)
		}
		cmd.Limit = limit
		cmd.Tokens = args[1:]
	case VerbWQuery:
		return parseWQuery(cmd, args)
	}
	return cmd, nil
}

func parseAdd(cmd Command, args []string) (Command, error) {
	if len(args) < 4 {
		return cmd, malformed(cmd.Verb, "want <type> <id> <score> <name...>", nil)
	}
	score, err := parseFloat(args[2])
	if err != nil {
		return cmd, malformed(cmd.Verb, "bad score", err)
	}
	cmd.Type = args[0]
	cmd.ID = args[1]
	cmd.Score = score
	cmd.Name = args[3:]
	return cmd, nil
}

func parseWQuery(cmd Command, args []string) (Command, error) {
	if len(args) < 2 {
		return cmd, malformed(cmd.Verb, "want <num_results> <num_boosts>", nil)
	}
	limit, err := strconv.Atoi(args[0])
	if err != nil {
		return cmd, malformed(cmd.Verb, "bad result count", err)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return cmd, malformed(cmd.Verb, "bad boost count", err)
	}
	if n < 0 || n > len(args)-2 {
		return cmd, malformed(cmd.Verb, "boost count out of range", nil)
	}

	boosts := make([]suggest.Boost, 0, n)
	for _, spec := range args[2 : 2+n] {
		b, err := ParseBoost(spec)
		if err != nil {
			return cmd, malformed(cmd.Verb, "bad boost "+strconv.Quote(spec), err)
		}
		boosts = append(boosts, b)
	}
	cmd.Limit = limit
	cmd.Boosts = boosts
	cmd.Tokens = args[2+n:]
	return cmd, nil
}

// ParseBoost decodes "<type_or_id>:<factor>". The key is everything before
// the last colon.
func ParseBoost(spec string) (suggest.Boost, error) {
	i := strings.LastIndexByte(spec, ':')
	if i <= 0 {
		return suggest.Boost{}, malformed(VerbWQuery, "boost needs key:factor", nil)
	}
	factor, err := parseFloat(spec[i+1:])
	if err != nil {
		return suggest.Boost{}, err
	}
	return suggest.Boost{Key: spec[:i], Factor: factor}, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}

// Format renders a command back into a protocol line.
func (c Command) Format() string {
	var parts []string
	switch c.Verb {
	case VerbAdd:
		parts = append([]string{c.Verb, c.Type, c.ID, strconv.FormatFloat(c.Score, 'g', -1, 64)}, c.Name...)
	case VerbDel:
		parts = []string{c.Verb, c.ID}
	case VerbQuery:
		parts = append([]string{c.Verb, strconv.Itoa(c.Limit)}, c.Tokens...)
	case VerbWQuery:
		parts = []string{c.Verb, strconv.Itoa(c.Limit), strconv.Itoa(len(c.Boosts))}
		for _, b := range c.Boosts {
			parts = append(parts, b.Key+":"+strconv.FormatFloat(b.Factor, 'g', -1, 64))
		}
		parts = append(parts, c.Tokens...)
	default:
		return c.Verb
	}
	return strings.Join(parts, " ")
}
