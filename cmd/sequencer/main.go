package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kzg-ceremony/sequencer/pkg/apiserver"
	"github.com/kzg-ceremony/sequencer/pkg/coordinator"
	"github.com/kzg-ceremony/sequencer/pkg/ethsig"
	"github.com/kzg-ceremony/sequencer/pkg/storage"
	"github.com/kzg-ceremony/sequencer/pkg/transcript"

	"github.com/kzg-ceremony/sequencer/pkg/config"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("starting kzg ceremony sequencer")

	var (
		listenAddr       = flag.String("listen-addr", "", "HTTP listen address (overrides LISTEN_ADDR env var)")
		ceremonySpecPath = flag.String("ceremony-spec", "", "path to the ceremony sizing YAML file (overrides CEREMONY_SPEC_PATH env var)")
		showHelp         = flag.Bool("help", false, "show help message")
	)
	flag.Parse()

	if *showHelp {
		flag.PrintDefaults()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration:", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *ceremonySpecPath != "" {
		cfg.CeremonySpecPath = *ceremonySpecPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ceremonySizes, err := config.LoadCeremonySizes(cfg.CeremonySpecPath)
	if err != nil {
		log.Fatal("failed to load ceremony spec:", err)
	}
	log.Printf("running %d sub-ceremony(ies) from %s", len(ceremonySizes), cfg.CeremonySpecPath)

	signerKey, err := ethsig.ParseKeyHex(cfg.SequencerECDSAKeyHex)
	if err != nil {
		log.Fatal("failed to parse sequencer signing key:", err)
	}
	log.Printf("sequencer signing address: %s", signerKey.Address().Hex())

	store, err := storage.NewClient(cfg.DatabaseURL, cfg.DatabaseMaxOpenConns, cfg.DatabaseMaxIdleConns)
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	if err := store.MigrateUp(ctx); err != nil {
		cancel()
		log.Fatal("failed to migrate database:", err)
	}

	batch, err := transcript.LoadFile(cfg.TranscriptPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			cancel()
			log.Fatal("failed to load transcript:", err)
		}
		log.Printf("no transcript found at %s, starting a fresh ceremony", cfg.TranscriptPath)
		batch, err = transcript.New(ceremonySizes)
		if err != nil {
			cancel()
			log.Fatal("failed to initialize transcript:", err)
		}
		if err := batch.SaveFile(cfg.TranscriptPath); err != nil {
			cancel()
			log.Fatal("failed to persist initial transcript:", err)
		}
	}

	coord := coordinator.New(coordinator.Config{
		ComputeDeadline:       cfg.ComputeDeadline,
		LobbyCheckinFrequency: cfg.LobbyCheckinFrequency,
		LobbyCheckinTolerance: cfg.LobbyCheckinTolerance,
		LobbyFlushInterval:    cfg.LobbyFlushInterval,
		LobbyMaxSize:          cfg.LobbyMaxSize,
		TranscriptPath:        cfg.TranscriptPath,
		EthChainID:            cfg.EthChainID,
	}, batch, store, signerKey)

	session := apiserver.NewSessionCodec(cfg.JWTSecret, 24*time.Hour)
	registry := prometheus.NewRegistry()
	srv := apiserver.New(coord, batch, session, registry)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}

	go coord.RunLobbyFlusher(ctx)

	go func() {
		log.Printf("sequencer API listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start HTTP server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("shutting down sequencer...")

	cancel()
	coord.StopLobbyFlusher()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Printf("sequencer stopped")
}
