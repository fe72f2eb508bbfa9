/*
Package server implements msgpack IPC for the typeahead index.

Clients write msgpack-encoded requests to stdin and read msgpack-encoded
responses from stdout, one response per request, in order. A ready frame is sent
before the first request is read.

# Requests

Structured requests name an op and carry only the fields it needs:

	{"id": "r1", "op": "add", "type": "coffee", "rid": "1", "score": 0, "name": ["Chennai", "Express"]}
	{"id": "r2", "op": "del", "rid": "1"}
	{"id": "r3", "op": "query", "l": 10, "q": ["che"]}
	{"id": "r4", "op": "wquery", "l": 10, "b": [{"k": "coffee", "f": 2}], "q": ["che"]}
	{"id": "r5", "op": "stats"}
	{"id": "r6", "op": "ping"}

A request may instead carry a raw protocol line, processed exactly like a line
of the batch protocol:

	{"id": "r7", "line": "WQUERY 10 1 coffee:2 che"}

# Responses

Queries answer with ranked ids, their effective scores, the count and the time
taken in microseconds:

	{"id": "r3", "ids": ["2", "1"], "s": [0, 0], "c": 2, "t": 41}

Mutations answer with an empty id list. Failures answer with an error frame:

	{"id": "r8", "e": "malformed QUERY command: bad result count", "c": 400}
*/
package server

// Ops accepted in Request.Op.
const (
	OpAdd    = "add"
	OpDel    = "del"
	OpQuery  = "query"
	OpWQuery = "wquery"
	OpStats  = "stats"
	OpPing   = "ping"
)

// Error codes used in ErrorResponse.Code.
const (
	CodeMalformed = 400
	CodeInternal  = 500
)

// BoostSpec is one key:factor pair of a weighted query.
type BoostSpec struct {
	Key    string  `msgpack:"k"`
	Factor float64 `msgpack:"f"`
}

// Request is one client message.
type Request struct {
	ID   string `msgpack:"id"`
	Op   string `msgpack:"op,omitempty"`
	Line string `msgpack:"line,omitempty"`

	Type     string   `msgpack:"type,omitempty"`
	RecordID string   `msgpack:"rid,omitempty"`
	Score    float64  `msgpack:"score,omitempty"`
	Name     []string `msgpack:"name,omitempty"`

	Limit  int         `msgpack:"l,omitempty"`
	Boosts []BoostSpec `msgpack:"b,omitempty"`
	Tokens []string    `msgpack:"q,omitempty"`
}

// Response answers a successful request.
type Response struct {
	ID        string    `msgpack:"id"`
	IDs       []string  `msgpack:"ids"`
	Scores    []float64 `msgpack:"s,omitempty"`
	Count     int       `msgpack:"c"`
	TimeTaken int64     `msgpack:"t"`
}

// StatsResponse answers a stats request.
type StatsResponse struct {
	ID          string `msgpack:"id"`
	Records     int    `msgpack:"records"`
	Nodes       int    `msgpack:"nodes"`
	Deletes     int    `msgpack:"deletes"`
	Compactions int    `msgpack:"compactions"`
	Commands    uint64 `msgpack:"commands"`
}

// StatusResponse is the ready and ping frame.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// ErrorResponse reports a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
