package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bingohall/internal/bingo"
)

// Server is the web transport binding: websocket sessions for play, a JSON
// discovery endpoint, and the Prometheus scrape target. Websocket clients
// speak the same tagged messages as the raw-socket binding, one message per
// text frame, and drive the identical dispatcher contract.
type Server struct {
	addr       string
	logger     *slog.Logger
	dispatcher *bingo.Dispatcher
	reg        *bingo.Registry

	listener net.Listener
	httpSrv  *http.Server
	upgrader websocket.Upgrader
}

func NewServer(addr string, dispatcher *bingo.Dispatcher, reg *bingo.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:       addr,
		logger:     logger,
		dispatcher: dispatcher,
		reg:        reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	r.Get("/matches", s.handleMatches)
	r.Handle("/metrics", promhttp.Handler())

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.httpSrv = &http.Server{Handler: r}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "error", err)
		}
	}()

	s.logger.Info("http server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, for tests using ":0".
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop() {
	if s.httpSrv == nil {
		return
	}
	s.logger.Info("http server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	s.logger.Info("websocket client connected", "addr", ws.RemoteAddr().String())
	go s.dispatcher.Handle(newWSConn(ws))
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Matches []string `json:"matches"`
	}{Matches: s.reg.ListPublic()})
}
