// Command odinline-demo is a small driver program for the natsline client
// library: it connects, subscribes, bootstraps a stream and durable
// consumer, and publishes a heartbeat every 5s while pumping Process. It
// does not issue requests or fetch from the consumer.
// It favors the same config-loading and system-reporting conventions as
// the rest of this repo over serving real client traffic.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	_ "go.uber.org/automaxprocs"

	"github.com/adred-codev/natsline"
	"github.com/adred-codev/natsline/metrics"
	"github.com/adred-codev/natsline/stream"
)

func newLogger(cfg *Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var w = os.Stdout
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if cfg.LogFormat == "pretty" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w})
	}
	return logger
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (overrides LOG_LEVEL)")
	flag.Parse()

	bootLogger := zerolog.New(os.Stdout).With().Timestamp().Str("phase", "boot").Logger()

	// automaxprocs sets GOMAXPROCS from the container's cgroup CPU limit
	// rather than the host's; rounds down, matching ws/main.go's comment.
	bootLogger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("cpu allocation detected")

	cfg, err := LoadConfig(&bootLogger)
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := newLogger(cfg)
	cfg.LogConfig(logger)

	if pct, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(pct) > 0 {
		logger.Info().Float64("host_cpu_percent", pct[0]).Msg("system snapshot")
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving prometheus metrics")
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	zlog := natsline.NewZerologSink(logger)
	opts := []natsline.Option{
		natsline.WithTimeout(cfg.ConnectTimeout),
		natsline.WithPingInterval(cfg.PingInterval),
		natsline.WithName("odinline-demo"),
		natsline.WithLogger(zlog),
		natsline.WithMetrics(collector),
		natsline.WithPublishRateLimit(cfg.PublishRatePerSec, cfg.PublishBurst),
	}
	if cfg.Token != "" {
		opts = append(opts, natsline.WithToken(cfg.Token))
	} else if cfg.User != "" {
		opts = append(opts, natsline.WithUserPassword(cfg.User, cfg.Password))
	}

	conn, err := natsline.Connect(cfg.Host, cfg.Port, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect")
	}
	defer conn.Close()
	logger.Info().Msg("connected")

	if _, err := conn.Subscribe(cfg.Subject, func(m *natsline.Msg) {
		logger.Debug().Str("subject", m.Subject).Int("bytes", len(m.Data)).Msg("message received")
	}); err != nil {
		logger.Error().Err(err).Msg("subscribe failed")
	}

	mgr := stream.NewManager(conn, "")
	if _, err := mgr.EnsureStream(cfg.StreamName, cfg.Subject); err != nil {
		logger.Warn().Err(err).Msg("stream layer unavailable, continuing without it")
	} else if _, err := mgr.EnsureConsumer(cfg.StreamName, cfg.ConsumerName, cfg.Subject); err != nil {
		logger.Warn().Err(err).Msg("consumer bootstrap failed")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			logger.Info().Msg("shutting down")
			return
		case <-ticker.C:
			if err := conn.Publish(cfg.Subject, []byte("heartbeat")); err != nil {
				logger.Error().Err(err).Msg("heartbeat publish failed")
			}
		default:
			if err := conn.Process(200 * time.Millisecond); err != nil {
				logger.Error().Err(err).Msg("session failed")
				return
			}
			if conn.HealthCheckDue() {
				if err := conn.HealthCheck(0); err != nil {
					logger.Warn().Err(err).Msg("health check failed")
				}
			}
		}
	}
}
