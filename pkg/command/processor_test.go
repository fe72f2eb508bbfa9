package command

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/bastiangx/typeahead/pkg/index"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func run(t *testing.T, input string, opts ...Option) (string, error) {
	t.Helper()
	p := NewProcessor(index.New(), opts...)
	var out bytes.Buffer
	err := p.Run(strings.NewReader(input), &out)
	return out.String(), err
}

func TestRunScenarios(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			"equal scores newer first",
			"3\nADD coffee 1 0 Chennai Express\nADD restaurants 2 0 Chennai Darbar\nQUERY 10 che\n",
			"2 1\n",
		},
		{
			"limit one",
			"3\nADD A 1 1 foo\nADD A 2 1 foo\nQUERY 1 foo\n",
			"2\n",
		},
		{
			"type boost",
			"4\nADD A a 1 foo\nADD B b 3 foo\nQUERY 10 foo\nWQUERY 10 1 A:5 foo\n",
			"b a\na b\n",
		},
		{
			"repeated boosts multiply",
			"4\nADD A a 1 foo\nADD B b 3 foo\nWQUERY 10 1 A:2 foo\nWQUERY 10 2 A:2 A:2 foo\n",
			"b a\na b\n",
		},
		{
			"id boost",
			"3\nADD A a 1 foo\nADD A b 3 foo\nWQUERY 10 1 a:4 foo\n",
			"a b\n",
		},
		{
			"infinite score boosted by zero ranks last",
			"4\nADD B b 3 foo\nADD X a inf foo\nADD B c 5 foo\nWQUERY 10 1 X:0 foo\n",
			"c b a\n",
		},
		{
			"delete",
			"6\nADD t 1 5 Unique Shared\nADD t 2 1 Shared\nDEL 1\nQUERY 10 uni\nQUERY 10 sha\nDEL 1\n",
			"\n2\n",
		},
		{
			"delete unknown",
			"3\nADD t 1 5 foo\nDEL 9\nQUERY 5 f\n",
			"1\n",
		},
		{
			"intersection",
			"5\nADD t 1 1 Red Apple\nADD t 2 1 Green Apple\nADD t 3 1 Red Cherry\nQUERY 10 re app\nQUERY 10 green cherry\n",
			"1\n\n",
		},
		{
			"case folding",
			"2\nADD t 1 1 Chennai\nQUERY 10 CHE\n",
			"1\n",
		},
		{
			"readd replaces tokens",
			"4\nADD t 1 1 Old\nADD t 1 1 New\nQUERY 10 old\nQUERY 10 new\n",
			"\n1\n",
		},
		{
			"readd gets new timestamp",
			"4\nADD t 1 1 foo\nADD t 2 1 foo\nADD t 1 1 foo\nQUERY 10 foo\n",
			"1 2\n",
		},
		{
			"unknown and blank lines count",
			"4\nADD t 1 1 foo\nNOPE\n\nQUERY 10 foo\n",
			"1\n",
		},
		{
			"extra lines ignored",
			"1\nQUERY 10 foo\nQUERY 10 bar\n",
			"\n",
		},
		{
			"crlf and no trailing newline",
			"2\r\nADD t 1 1 foo\r\nQUERY 10 foo",
			"1\n",
		},
		{
			"zero commands",
			"0\n",
			"",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := run(t, tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRunStrictAbortsOnMalformed(t *testing.T) {
	got, err := run(t, "3\nADD t 1 1 foo\nQUERY x foo\nQUERY 10 foo\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "command 2")
	assert.Equal(t, "", got)
}

func TestRunLenientSkipsMalformed(t *testing.T) {
	got, err := run(t, "5\nADD t 1 1 foo\nADD t 2 x foo\nQUERY x foo\nWQUERY 10 1 t foo\nQUERY 10 foo\n", WithStrict(false))
	require.NoError(t, err)
	assert.Equal(t, "\n\n1\n", got)
}

func TestRunBadHeader(t *testing.T) {
	_, err := run(t, "many\nQUERY 1 a\n")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = run(t, "")
	assert.ErrorIs(t, err, io.EOF)
}

func TestRunShortInput(t *testing.T) {
	got, err := run(t, "3\nADD t 1 1 foo\nQUERY 10 foo\n")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "1\n", got, "output before the error is flushed")
}

func TestProcessorClock(t *testing.T) {
	p := NewProcessor(index.New(), WithStrict(false))
	for _, line := range []string{"ADD t a 1 foo", "QUERY 1 foo", "bogus", "", "QUERY x", "ADD t b 1 foo"} {
		_, err := p.Exec(line)
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(6), p.Clock())

	a, ok := p.Index().Get("a")
	require.True(t, ok)
	b, ok := p.Index().Get("b")
	require.True(t, ok)
	assert.Equal(t, uint64(0), a.Timestamp)
	assert.Equal(t, uint64(5), b.Timestamp)
}

func TestApplyStructured(t *testing.T) {
	p := NewProcessor(index.New())

	_, err := p.Apply(Command{Verb: VerbAdd, Type: "t", ID: "1", Score: 2, Name: []string{"Foo"}})
	require.NoError(t, err)

	res, err := p.Apply(Command{Verb: VerbQuery, Limit: 5, Tokens: []string{"fo"}})
	require.NoError(t, err)
	assert.True(t, res.Output)
	assert.Equal(t, []string{"1"}, res.IDs)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, 2.0, res.Hits[0].Score)

	_, err = p.Apply(Command{Verb: VerbAdd, ID: "2"})
	assert.ErrorIs(t, err, ErrMalformed, "ADD without name")

	_, err = p.Apply(Command{Verb: VerbDel})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestResultLine(t *testing.T) {
	assert.Equal(t, "", Result{Output: true}.Line())
	assert.Equal(t, "a b c", Result{IDs: []string{"a", "b", "c"}}.Line())
}

func TestProcessorMaxLimit(t *testing.T) {
	p := NewProcessor(index.New(), WithMaxLimit(2))
	for _, line := range []string{"ADD t a 1 foo", "ADD t b 2 foo", "ADD t c 3 foo"} {
		_, err := p.Exec(line)
		require.NoError(t, err)
	}
	res, err := p.Exec("QUERY 10 foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, res.IDs)
}
