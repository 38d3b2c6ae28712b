// Package mcp exposes the ledger's financial views as MCP tools over stdio
// using JSON-RPC 2.0.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pario-ai/ledgerfin/pkg/config"
	"github.com/pario-ai/ledgerfin/pkg/ledger"
	"github.com/pario-ai/ledgerfin/pkg/models"
)

const serverName = "ledgerfin"

// Server answers MCP requests against one ledger and configuration.
type Server struct {
	store   ledger.Store
	cfg     *config.Config
	log     *logrus.Logger
	version string
}

// New creates a Server.
func New(store ledger.Store, cfg *config.Config, log *logrus.Logger, version string) *Server {
	return &Server{store: store, cfg: cfg, log: log, version: version}
}

// Run reads line-delimited JSON-RPC requests from r and writes responses to w.
// It blocks until r is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("mcp: unparseable request")
			s.write(w, rpcError(nil, CodeParseError, "parse error"))
			continue
		}

		if resp := s.dispatch(ctx, &req); resp != nil {
			s.write(w, resp)
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return result(req.ID, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      ServerInfo{Name: serverName, Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized":
		return nil
	case "tools/list":
		return result(req.ID, ToolsListResult{Tools: allTools})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return rpcError(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpcError(req.ID, CodeInvalidParams, "invalid params")
	}

	handler, ok := toolHandlers[params.Name]
	if !ok {
		return result(req.ID, errorResult(fmt.Sprintf("unknown tool: %s", params.Name)))
	}

	log := s.log.WithField("tool", params.Name)
	res := handler(ctx, s, params.Arguments)
	if res.IsError && len(res.Content) > 0 {
		log.WithField("error", res.Content[0].Text).Warn("tool call failed")
	} else {
		log.Debug("tool call")
	}
	return result(req.ID, res)
}

func (s *Server) write(w io.Writer, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.WithError(err).Error("mcp: marshal response")
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.log.WithError(err).Error("mcp: write response")
	}
}

// records loads the ledger slice a tool call works on. narrow may add
// filters beyond the date range.
func (s *Server) records(ctx context.Context, r rangeArgs, narrow func(*ledger.Filter)) ([]models.UsageRecord, error) {
	f := ledger.Filter{Since: r.Since, Until: r.Until}
	if narrow != nil {
		narrow(&f)
	}
	return s.store.Records(ctx, f)
}
