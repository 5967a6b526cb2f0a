package tcpserver

import (
	"log/slog"
	"net"

	"bingohall/internal/bingo"
)

// Server is the raw-socket transport binding: one line-framed message per
// connection read/write, handed to the shared dispatcher.
type Server struct {
	addr       string
	logger     *slog.Logger
	dispatcher *bingo.Dispatcher
	listener   net.Listener
}

func NewServer(addr string, dispatcher *bingo.Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:       addr,
		logger:     logger,
		dispatcher: dispatcher,
	}
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go s.acceptLoop(ln)

	s.logger.Info("tcp server started", "addr", ln.Addr().String())
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
	s.logger.Info("tcp server shutting down")
	if s.listener != nil {
		s.listener.Close()
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Listener closed; normal shutdown path.
			return
		}

		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())
		go s.dispatcher.Handle(newLineConn(conn))
	}
}
