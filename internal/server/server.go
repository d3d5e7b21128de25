// Package server streams grid generation over WebSocket: one frame per
// resolved cell, which the cooperative stepper yields naturally.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tilewright/wavegrid/internal/config"
	"github.com/tilewright/wavegrid/internal/logger"
	"github.com/tilewright/wavegrid/internal/wfc"
)

// Server serves the generation endpoint.
type Server struct {
	cfg     config.ServerConfig
	httpSrv *http.Server
}

// New creates a server for the given configuration.
func New(cfg config.ServerConfig) *Server {
	s := &Server{cfg: cfg}
	mux := http.NewServeMux()
	mux.HandleFunc("/generate", s.handleGenerate)
	mux.HandleFunc("/healthz", handleHealth)
	s.httpSrv = &http.Server{Addr: cfg.Listen, Handler: mux}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe serves until the context is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleGenerate upgrades the connection, reads one GenerateRequest and
// streams the run: a Frame per resolved cell, then a closing Result.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if s.cfg.WebSocket.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	var req GenerateRequest
	if err := conn.ReadJSON(&req); err != nil {
		logger.Warning("bad generate request", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	s.streamRun(conn, &req)
}

// streamRun executes the generation and writes the stream. Any failure is
// reported to the client as a closing Result.
func (s *Server) streamRun(conn *websocket.Conn, req *GenerateRequest) {
	seedRandomStart := true
	if req.SeedRandomStart != nil {
		seedRandomStart = *req.SeedRandomStart
	}

	tileset, err := wfc.NewTileset(req.Tiles, req.Anchors, seedRandomStart)
	if err != nil {
		writeResult(conn, Result{Error: err.Error()})
		return
	}

	buffer, err := wfc.NewBuffer(wfc.Config{Width: req.Width, Height: req.Height, Seed: req.Seed})
	if err != nil {
		writeResult(conn, Result{Error: err.Error()})
		return
	}
	if err := tileset.Apply(buffer); err != nil {
		writeResult(conn, Result{Error: err.Error()})
		return
	}

	start := time.Now()
	if err := buffer.Begin(); err != nil {
		writeResult(conn, Result{Error: err.Error()})
		return
	}

	total := buffer.Width() * buffer.Height()
	for {
		res, err := buffer.Step()
		if err != nil {
			logger.Warning("generation failed mid-stream",
				"remaining", buffer.Unresolved(),
				"total", total,
				"error", err)
			writeResult(conn, Result{Error: err.Error()})
			return
		}

		frame := Frame{
			Index:     res.Index,
			Tile:      tileset.Palette.Name(res.Type),
			Remaining: buffer.Unresolved(),
		}
		if err := conn.WriteJSON(frame); err != nil {
			logger.Debug("client went away mid-stream", "error", err)
			return
		}

		if res.Done {
			break
		}
	}

	logger.Info("generation streamed",
		"width", buffer.Width(),
		"height", buffer.Height(),
		"cells", total,
		"duration_ms", time.Since(start).Milliseconds())
	writeResult(conn, Result{Done: true})
}

func writeResult(conn *websocket.Conn, result Result) {
	if err := conn.WriteJSON(result); err != nil {
		logger.Debug("failed to write result", "error", err)
	}
}
