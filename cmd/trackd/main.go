package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/trackloop/trackd/internal/alert"
	"github.com/trackloop/trackd/internal/api"
	"github.com/trackloop/trackd/internal/config"
	"github.com/trackloop/trackd/internal/database"
	"github.com/trackloop/trackd/internal/dispatcher"
	"github.com/trackloop/trackd/internal/engine"
	"github.com/trackloop/trackd/internal/geo"
	"github.com/trackloop/trackd/internal/handlers"
	"github.com/trackloop/trackd/internal/influx"
	"github.com/trackloop/trackd/internal/logging"
	"github.com/trackloop/trackd/internal/monitor"
	"github.com/trackloop/trackd/internal/parser"
	"github.com/trackloop/trackd/internal/storage"
	"github.com/trackloop/trackd/internal/storage/history"
	"github.com/trackloop/trackd/internal/storage/memory"
	trackws "github.com/trackloop/trackd/internal/storage/websocket"
	"github.com/trackloop/trackd/internal/webhook"
)

var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"

	ServiceName string = "trackd"
)

var (
	SessionStartTime = time.Now()

	SlogManager *logging.SlogManager
	Logger      *slog.Logger
)

func setupLogging() *os.File {
	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.MkdirAll(logsDir, 0755)
	}

	logFilePath := logging.LogFilePath(logsDir, ServiceName, SessionStartTime)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log file: %v\n", err)
	}

	var extra []slog.Handler
	if viper.GetBool("graylog.enabled") {
		gelfHandler, err := logging.NewGelfHandler(
			viper.GetString("graylog.address"),
			logging.ParseLevel(viper.GetString("logLevel")),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to Graylog: %v\n", err)
		} else {
			extra = append(extra, gelfHandler)
		}
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(logFile, viper.GetString("logLevel"), extra...)
	Logger = SlogManager.Logger()
	Logger.Info("Begin logging in logs directory", "path", logFilePath)

	return logFile
}

func run() error {
	if err := config.Load("."); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config, using defaults: %v\n", err)
	}

	logFile := setupLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	Logger.Info("Starting up", "version", Version, "buildDate", BuildDate)

	// Load the track path
	track, err := geo.LoadTrack(viper.GetString("track.file"), viper.GetInt("track.srid"))
	if err != nil {
		return fmt.Errorf("failed to load track: %w", err)
	}
	Logger.Info("Track loaded",
		"points", track.Len(),
		"lengthDeg", track.Length(),
		"file", viper.GetString("track.file"))

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Core services
	eng := engine.New(track, Logger)
	alerts := alert.New(eng, Logger)
	fixParser := parser.New(Logger)

	// Streaming hub is the mandatory fan-out backend
	hub := trackws.NewHub(trackws.Config{
		BufferSize: viper.GetInt("stream.bufferSize"),
	}, Logger)

	// Optional sinks
	var optional []storage.Backend

	journal := memory.New()
	optional = append(optional, journal)

	var historyBackend *history.Backend
	if viper.GetBool("history.enabled") {
		dbManager := database.NewManager(zlog)
		if err := dbManager.Connect(); err != nil {
			Logger.Error("History database unavailable, continuing without history", "error", err)
		} else {
			flushInterval := time.Duration(viper.GetInt("history.flushSeconds")) * time.Second
			historyBackend = history.New(dbManager.DB, zlog, flushInterval)
			optional = append(optional, historyBackend)
			Logger.Info("History backend initialized", "local", dbManager.IsLocal)
		}
	}

	var influxManager *influx.Manager
	if viper.GetBool("influx.enabled") {
		backupPath := filepath.Join(viper.GetString("logsDir"), "influx_backup.gz")
		influxManager = influx.NewManager(zlog, backupPath)
		optional = append(optional, influx.NewSink(influxManager))
	}

	var webhookClient *webhook.Client
	if viper.GetBool("webhook.enabled") {
		webhookClient = webhook.New(viper.GetString("webhook.serverUrl"), viper.GetString("webhook.apiKey"))
		optional = append(optional, webhook.NewSink(webhookClient, Logger))
	}

	backend := storage.Assemble(hub, optional...)
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			Logger.Error("Error closing storage", "error", err)
		}
	}()

	// Handler service and dispatcher
	handlerService := handlers.NewService(handlers.Dependencies{
		Engine:     eng,
		Alerts:     alerts,
		Parser:     fixParser,
		LogManager: SlogManager,
	})
	handlerService.SetBackend(backend)

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	handlerService.RegisterHandlers(eventDispatcher)

	// Service monitor
	monitorService := monitor.NewService(monitor.Dependencies{
		LogManager:    SlogManager,
		Influx:        influxManager,
		VehicleCount:  eng.VehicleCount,
		ObserverCount: hub.ObserverCount,
		PendingWrites: func() int {
			if historyBackend != nil {
				return historyBackend.Pending()
			}
			return 0
		},
	})
	monitorService.Start()
	defer monitorService.Stop()

	// HTTP API
	server := &api.Server{
		Address: viper.GetString("server.address"),
		Service: handlerService,
		Engine:  eng,
		Track:   track,
		Hub:     hub,
		Logger:  Logger,
	}
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	defer server.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	Logger.Info("Shutting down", "signal", sig.String())

	// Export the in-memory journal before sinks close
	journalPath := filepath.Join(
		viper.GetString("journal.outputDir"),
		fmt.Sprintf("journal_%s.json", SessionStartTime.Format("20060102_150405")),
	)
	os.MkdirAll(viper.GetString("journal.outputDir"), 0755)
	eventCount := journal.Len()
	if err := journal.Export(journalPath); err != nil {
		Logger.Error("Failed to export journal", "error", err)
	} else {
		Logger.Info("Journal exported", "path", journalPath, "events", eventCount)
		if webhookClient != nil {
			sessionID := SessionStartTime.Format("20060102_150405")
			if err := webhookClient.UploadJournal(journalPath, sessionID); err != nil {
				Logger.Error("Failed to upload journal", "error", err)
			}
		}
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
