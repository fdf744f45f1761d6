// Command semprelay is a demonstration harness for package framer: it reads
// a byte stream (a serial port, or stdin for testing), frames it against
// the default six-protocol registry, writes accepted frames to whichever of
// telemetry/archive the config file enables, and, when metrics are enabled,
// exports the session's per-protocol accepted/bad-CRC/framing-error/byte
// counters. Frames that fail their integrity check are logged and
// discarded. Grounded on gnssgo's app/str2str shape (read one stream, relay
// structured output) and samoyed's cmd/direwolf flag/config conventions.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/fxbgnss/semprelay/decode"
	"github.com/fxbgnss/semprelay/framer"
	"github.com/fxbgnss/semprelay/internal/archive"
	"github.com/fxbgnss/semprelay/internal/metrics"
	"github.com/fxbgnss/semprelay/internal/telemetry"
	"github.com/fxbgnss/semprelay/internal/uartio"
)

func main() {
	var (
		configFile = pflag.StringP("config-file", "c", "", "YAML configuration file.")
		port       = pflag.StringP("port", "p", "", "Serial port to read. Empty reads stdin.")
		baud       = pflag.IntP("baud", "b", 0, "Baud rate, overriding the config file.")
		verbose    = pflag.BoolP("verbose", "v", false, "Enable debug-level logging.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "semprelay - streaming multi-protocol GNSS/telemetry frame relay.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: semprelay [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	logger := charmlog.New(os.Stderr)
	if *verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		logger.Error("load config", "path", *configFile, "err", err)
		os.Exit(1)
	}
	if *baud != 0 {
		cfg.BaudRate = *baud
	}
	if *port != "" {
		cfg.SerialPort = *port
	}

	collectors := metrics.New()
	statsSeen := make(map[framer.Kind]framer.Stats, len(framer.AllKinds()))
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		if err := collectors.Register(registry); err != nil {
			logger.Error("register metrics", "err", err)
			os.Exit(1)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server", "err", err)
			}
		}()
		logger.Info("metrics listening", "addr", cfg.Metrics.Addr)
	}
	var archiveStore *archive.Store
	var telemetryWriter *telemetry.Writer
	if cfg.Archive.Enabled {
		archiveStore, err = archive.Open(archive.DSNConfig{
			Host:     cfg.Archive.Host,
			Database: cfg.Archive.Database,
			User:     cfg.Archive.User,
			Password: cfg.Archive.Password,
		})
		if err != nil {
			logger.Error("open archive", "err", err)
			os.Exit(1)
		}
		defer archiveStore.Close()
	}
	if cfg.Telemetry.Enabled {
		telemetryWriter = telemetry.Open(cfg.Telemetry.ServerURL, cfg.Telemetry.AuthToken, cfg.Telemetry.Org, cfg.Telemetry.Bucket)
		defer telemetryWriter.Close()
	}

	onMessage := func(s *framer.Session, protocolIndex int) {
		name := s.ProtocolName()
		frame := s.FrameBytes()
		logger.Debug("frame accepted", "protocol", name, "bytes", len(frame))
		if name == "NMEA" {
			if talker, kind, _ := decode.NMEAFields(frame); kind != "" {
				logger.Debug("nmea sentence", "talker", talker, "kind", kind)
			}
		}
		if archiveStore != nil {
			if err := archiveStore.AppendFrame(name, frame, false, time.Now()); err != nil {
				logger.Warn("archive write failed", "err", err)
			}
		}
		if telemetryWriter != nil {
			telemetryWriter.WriteFrame(name, len(frame), false, time.Now())
		}
	}
	onBadCRC := func(s *framer.Session) bool {
		logger.Warn("integrity check failed", "protocol", s.ProtocolName(), "bytes", len(s.FrameBytes()))
		return false
	}
	onDebug := func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}
	onError := func(format string, args ...any) {
		logger.Error(fmt.Sprintf(format, args...))
	}

	buf := make([]byte, cfg.BufferSize)
	sess, err := framer.New(
		framer.WithBuffer(buf),
		framer.WithRegistry(framer.DefaultRegistry()),
		framer.WithOnMessage(onMessage),
		framer.WithOnBadCRC(onBadCRC),
		framer.WithOnDebug(onDebug),
		framer.WithOnError(onError),
		framer.WithParserName("semprelay"),
	)
	if err != nil {
		logger.Error("construct session", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if cfg.Metrics.Enabled {
		go syncStatsPeriodically(ctx, collectors, sess, statsSeen)
	}

	if cfg.SerialPort != "" {
		reader, err := uartio.Open(uartio.Config{Port: cfg.SerialPort, Baud: cfg.BaudRate})
		if err != nil {
			logger.Error("open serial port", "err", err)
			os.Exit(1)
		}
		defer reader.Close()
		if err := reader.Run(ctx, sess); err != nil && err != context.Canceled {
			logger.Error("serial read loop", "err", err)
		}
		return
	}

	runStdin(ctx, sess, logger)
}

// syncStatsPeriodically pushes each protocol's running Stats into the
// Prometheus counters on a fixed interval, the way gnssgo's app/plot polls
// a solution struct rather than pushing on every sample. Stats is a cheap
// array copy, so this costs one pass over framer.AllKinds() per tick.
func syncStatsPeriodically(ctx context.Context, collectors *metrics.Collectors, sess *framer.Session, seen map[framer.Kind]framer.Stats) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seen = collectors.Sync(sess, seen)
		}
	}
}

func runStdin(ctx context.Context, sess *framer.Session, logger *charmlog.Logger) {
	chunk := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := os.Stdin.Read(chunk)
		if n > 0 {
			sess.FeedBuffer(chunk[:n])
		}
		if err != nil {
			if err != io.EOF {
				logger.Error("stdin read", "err", err)
			}
			return
		}
	}
}
