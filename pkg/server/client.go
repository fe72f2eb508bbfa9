package server

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// RemoteError is an error frame sent back by the server.
type RemoteError struct {
	RequestID string
	Code      int
	Message   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("request %s failed (%d): %s", e.RequestID, e.Code, e.Message)
}

// Client speaks the IPC protocol to a server, typically a child process
// started with -ipc. It is not safe for concurrent use.
type Client struct {
	enc    *msgpack.Encoder
	dec    *msgpack.Decoder
	closer io.Closer
	seq    int
}

// NewClient reads responses from r and writes requests to w. If w is an
// io.Closer, Close closes it, which ends the server loop.
func NewClient(r io.Reader, w io.Writer) *Client {
	c := &Client{
		enc: msgpack.NewEncoder(w),
		dec: msgpack.NewDecoder(r),
	}
	if closer, ok := w.(io.Closer); ok {
		c.closer = closer
	}
	return c
}

// WaitReady consumes the ready frame the server sends on start.
func (c *Client) WaitReady() error {
	var status StatusResponse
	if err := c.dec.Decode(&status); err != nil {
		return fmt.Errorf("reading ready frame: %w", err)
	}
	if status.Status != "ready" {
		return fmt.Errorf("unexpected status %q", status.Status)
	}
	return nil
}

// Add inserts or replaces a record.
func (c *Client) Add(typ, id string, score float64, name ...string) error {
	var resp Response
	return c.roundTrip(Request{Op: OpAdd, Type: typ, RecordID: id, Score: score, Name: name}, &resp)
}

// Delete removes a record. Unknown ids are not an error.
func (c *Client) Delete(id string) error {
	var resp Response
	return c.roundTrip(Request{Op: OpDel, RecordID: id}, &resp)
}

// Query returns up to limit ranked ids matching every token.
func (c *Client) Query(limit int, tokens ...string) (Response, error) {
	var resp Response
	err := c.roundTrip(Request{Op: OpQuery, Limit: limit, Tokens: tokens}, &resp)
	return resp, err
}

// WeightedQuery is Query with score multipliers per type or id.
func (c *Client) WeightedQuery(limit int, boosts []BoostSpec, tokens ...string) (Response, error) {
	var resp Response
	err := c.roundTrip(Request{Op: OpWQuery, Limit: limit, Boosts: boosts, Tokens: tokens}, &resp)
	return resp, err
}

// Exec sends a raw protocol line.
func (c *Client) Exec(line string) (Response, error) {
	var resp Response
	err := c.roundTrip(Request{Line: line}, &resp)
	return resp, err
}

// Stats fetches the server's index counters.
func (c *Client) Stats() (StatsResponse, error) {
	var resp StatsResponse
	err := c.roundTrip(Request{Op: OpStats}, &resp)
	return resp, err
}

// Ping checks the server is still answering.
func (c *Client) Ping() error {
	var resp StatusResponse
	if err := c.roundTrip(Request{Op: OpPing}, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected status %q", resp.Status)
	}
	return nil
}

// Close closes the request stream.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// roundTrip sends req and decodes the reply into out, or returns a
// *RemoteError when the server answered with an error frame.
func (c *Client) roundTrip(req Request, out any) error {
	c.seq++
	req.ID = strconv.Itoa(c.seq)
	if err := c.enc.Encode(req); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	raw, err := c.dec.DecodeRaw()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return fmt.Errorf("decode response: %w", err)
	}

	var probe ErrorResponse
	if err := msgpack.Unmarshal(raw, &probe); err == nil && probe.Error != "" {
		return &RemoteError{RequestID: probe.ID, Code: probe.Code, Message: probe.Error}
	}
	if err := msgpack.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
