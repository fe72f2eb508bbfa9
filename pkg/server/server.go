package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/pkg/command"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles msgpack IPC over a reader/writer pair, stdin/stdout by default.
type Server struct {
	proc         *command.Processor
	dec          *msgpack.Decoder
	enc          *msgpack.Encoder
	log          *log.Logger
	requestCount int
}

// NewServer creates a server on stdin/stdout.
func NewServer(proc *command.Processor) *Server {
	return NewServerWithIO(proc, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server reading requests from r and writing
// responses to w.
func NewServerWithIO(proc *command.Processor, r io.Reader, w io.Writer) *Server {
	return &Server{
		proc: proc,
		dec:  msgpack.NewDecoder(r),
		enc:  msgpack.NewEncoder(w),
		log:  logger.New("ipc"),
	}
}

// Start sends the ready frame and serves requests until EOF. Malformed
// requests get an error frame and the loop continues; a stream that cannot be
// decoded or an index invariant failure ends it.
func (s *Server) Start() error {
	s.log.Debug("Starting server")
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debugf("Client closed input after %d requests", s.requestCount)
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			_ = s.sendError("", "invalid msgpack request", CodeMalformed)
			return fmt.Errorf("decode request: %w", err)
		}
		s.requestCount++
		if err := s.handleRequest(req); err != nil {
			return err
		}
	}
}

// handleRequest answers one request. Only errors that must stop the server
// are returned.
func (s *Server) handleRequest(req Request) error {
	start := time.Now()

	var (
		res command.Result
		err error
	)
	switch {
	case req.Line != "":
		res, err = s.proc.Exec(req.Line)
	case req.Op == OpPing:
		return s.send(StatusResponse{ID: req.ID, Status: "ok"})
	case req.Op == OpStats:
		return s.sendStats(req.ID)
	default:
		cmd, convErr := toCommand(req)
		if convErr != nil {
			return s.sendError(req.ID, convErr.Error(), CodeMalformed)
		}
		s.log.Debug("Applying", "id", req.ID, "cmd", cmd.Format())
		res, err = s.proc.Apply(cmd)
	}

	if err != nil {
		if errors.Is(err, command.ErrMalformed) {
			s.log.Debugf("Rejected request %s: %v", req.ID, err)
			return s.sendError(req.ID, err.Error(), CodeMalformed)
		}
		s.log.Errorf("Request %s failed: %v", req.ID, err)
		_ = s.sendError(req.ID, err.Error(), CodeInternal)
		return err
	}

	return s.send(toResponse(req.ID, res, time.Since(start)))
}

func toCommand(req Request) (command.Command, error) {
	switch req.Op {
	case OpAdd:
		return command.Command{
			Verb:  command.VerbAdd,
			Type:  req.Type,
			ID:    req.RecordID,
			Score: req.Score,
			Name:  req.Name,
		}, nil
	case OpDel:
		return command.Command{Verb: command.VerbDel, ID: req.RecordID}, nil
	case OpQuery, OpWQuery:
		cmd := command.Command{Verb: command.VerbQuery, Limit: req.Limit, Tokens: req.Tokens}
		if req.Op == OpWQuery {
			cmd.Verb = command.VerbWQuery
			cmd.Boosts = make([]suggest.Boost, len(req.Boosts))
			for i, b := range req.Boosts {
				cmd.Boosts[i] = suggest.Boost{Key: b.Key, Factor: b.Factor}
			}
		}
		return cmd, nil
	case "":
		return command.Command{}, errors.New("request has neither op nor line")
	default:
		return command.Command{}, fmt.Errorf("unknown op: %s", req.Op)
	}
}

func toResponse(id string, res command.Result, elapsed time.Duration) Response {
	resp := Response{
		ID:        id,
		IDs:       res.IDs,
		Count:     len(res.IDs),
		TimeTaken: elapsed.Microseconds(),
	}
	if resp.IDs == nil {
		resp.IDs = []string{}
	}
	if len(res.Hits) > 0 {
		resp.Scores = make([]float64, len(res.Hits))
		for i, h := range res.Hits {
			resp.Scores[i] = h.Score
		}
	}
	return resp
}

func (s *Server) sendStats(id string) error {
	stats := s.proc.Index().Stats()
	return s.send(StatsResponse{
		ID:          id,
		Records:     stats.Records,
		Nodes:       stats.Nodes,
		Deletes:     stats.Deletes,
		Compactions: stats.Compactions,
		Commands:    s.proc.Clock(),
	})
}

func (s *Server) send(v any) error {
	if err := s.enc.Encode(v); err != nil {
		s.log.Errorf("Marshaling response: %v", err)
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

func (s *Server) sendError(id, message string, code int) error {
	return s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
