package sock

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"rungscan/internal/control"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server serves the control protocol over a Unix domain socket.
type Server struct {
	ctrl *control.Controller
}

// New creates a Server backed by ctrl.
func New(ctrl *control.Controller) *Server {
	return &Server{ctrl: ctrl}
}

// ListenAndServe starts the socket listener and blocks until ctx is
// canceled, then closes the listener and removes the socket file.
// Connections already accepted are served until their clients hang up.
func (s *Server) ListenAndServe(ctx context.Context, socketPath string) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen unix %s: %w", socketPath, err)
	}
	defer func() { _ = os.Remove(socketPath) }()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	log := slog.With("component", "sock-server", "socket", socketPath)
	log.Info("listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			_ = enc.Encode(Response{OK: false, Code: "invalid-argument", Error: err.Error()})
			continue
		}
		resp := s.dispatch(req)
		if err := enc.Encode(resp); err != nil {
			slog.Warn("sock: write response failed", "err", err)
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	switch req.Cmd {
	case CmdLoad:
		if req.Document == nil {
			return errResponse(fmt.Errorf("load requires a document"))
		}
		if err := s.ctrl.Load(*req.Document); err != nil {
			return errResponse(err)
		}
		return Response{OK: true}
	case CmdStart:
		if err := s.ctrl.Start(); err != nil {
			return errResponse(err)
		}
		return Response{OK: true}
	case CmdStop:
		s.ctrl.Stop()
		return Response{OK: true}
	case CmdReset:
		s.ctrl.Reset()
		return Response{OK: true}
	case CmdWrite:
		s.ctrl.Write(req.Addr, req.Value)
		return Response{OK: true}
	case CmdSnapshot:
		return Response{OK: true, Result: s.ctrl.Snapshot()}
	case CmdPhase:
		return Response{OK: true, Result: s.ctrl.Phase().String()}
	default:
		return errResponse(fmt.Errorf("unknown command %q", req.Cmd))
	}
}

func errResponse(err error) Response {
	return Response{OK: false, Code: control.Code(err).String(), Error: err.Error()}
}
