package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"bingohall/internal/bingo"
	"bingohall/internal/config"
	"bingohall/internal/httpserver"
	"bingohall/internal/tcpserver"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to yaml config file")
	addr := flag.String("addr", "", "tcp listen address (overrides config)")
	httpAddr := flag.String("http-addr", "", "http/websocket listen address (overrides config)")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}

	clock := clockwork.NewRealClock()
	reg := bingo.NewRegistry(clock, logger)
	dispatcher := bingo.NewDispatcher(reg, cfg.MatchConfig(), logger)

	tcpSrv := tcpserver.NewServer(cfg.ListenAddr, dispatcher, logger)
	if err := tcpSrv.Start(); err != nil {
		logger.Error("failed to start tcp server", "error", err)
		os.Exit(1)
	}

	httpSrv := httpserver.NewServer(cfg.HTTPAddr, dispatcher, reg, logger)
	if err := httpSrv.Start(); err != nil {
		logger.Error("failed to start http server", "error", err)
		tcpSrv.Stop()
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	httpSrv.Stop()
	tcpSrv.Stop()
	logger.Info("shutdown complete")
}
