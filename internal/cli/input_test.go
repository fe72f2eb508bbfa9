package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/typeahead/pkg/command"
	"github.com/bastiangx/typeahead/pkg/index"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func session(t *testing.T, input string) (string, *command.Processor) {
	t.Helper()
	proc := command.NewProcessor(index.New())
	var out bytes.Buffer
	h := NewInputHandlerWithWriter(proc, 5, true, &out)
	require.NoError(t, h.Serve(strings.NewReader(input)))
	return out.String(), proc
}

func TestInputHandlerQueries(t *testing.T) {
	out, proc := session(t, strings.Join([]string{
		"ADD coffee 1 2 Chennai Express",
		"ADD restaurants 2 1 Chennai Darbar",
		"QUERY 10 che",
		"chen dar",
		"zzz",
	}, "\n"))

	assert.Contains(t, out, "Found 2 results")
	assert.Contains(t, out, "Chennai Express")
	assert.Contains(t, out, "score: 2")
	assert.Contains(t, out, "Found 1 results")
	assert.Contains(t, out, "No results")
	assert.Equal(t, uint64(5), proc.Clock())
	assert.Less(t, strings.Index(out, "Chennai Express"), strings.Index(out, "Chennai Darbar"))
}

func TestInputHandlerMalformedContinues(t *testing.T) {
	out, proc := session(t, "QUERY ten foo\nADD t 1 1 foo\n")
	assert.Contains(t, out, "bad result count")
	_, ok := proc.Index().Get("1")
	assert.True(t, ok)
}

func TestInputHandlerMeta(t *testing.T) {
	out, _ := session(t, strings.Join([]string{
		"ADD t b 1 Foo",
		"ADD t a 3 Bar",
		":show a",
		":show nope",
		":list",
		":stats",
		":trie",
		"DEL b",
		":compact",
		":help",
		":wat",
	}, "\n"))

	assert.Contains(t, out, "score: 3, ts: 1")
	assert.Contains(t, out, "2 records")
	assert.Contains(t, out, "records=2")
	assert.Contains(t, out, "b(1) f(1)")
	assert.Contains(t, out, "pruned 3 nodes")
	assert.Contains(t, out, ":list [id-prefix]")
	assert.Contains(t, out, "Unknown meta command :wat")
}
