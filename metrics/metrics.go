// Package metrics exposes Prometheus counters for the bot and serves the
// text exposition endpoint.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Collector holds every metric the bot records
type Collector struct {
	registry *prometheus.Registry

	commandsExecuted prometheus.Counter
	commandUsage     *prometheus.CounterVec
	messagesSeen     prometheus.Counter
	guildCount       prometheus.Gauge
	feedFetches      *prometheus.CounterVec
	gatewayLatency   prometheus.Gauge
}

// NewCollector creates a Collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		commandsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aoba_commands_executed_total",
			Help: "How many commands have been executed",
		}),
		commandUsage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoba_command_usage_total",
			Help: "Executions per command",
		}, []string{"command"}),
		messagesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aoba_messages_seen_total",
			Help: "How many messages the bot has seen",
		}),
		guildCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aoba_guild_count",
			Help: "How many guilds the bot is currently in",
		}),
		feedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aoba_feed_fetch_total",
			Help: "Feed fetch attempts by result",
		}, []string{"result"}),
		gatewayLatency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aoba_gateway_latency_seconds",
			Help: "Latency of the last gateway heartbeat",
		}),
	}

	c.registry.MustRegister(
		c.commandsExecuted,
		c.commandUsage,
		c.messagesSeen,
		c.guildCount,
		c.feedFetches,
		c.gatewayLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// IncCommandsExecuted records a successful command execution
func (c *Collector) IncCommandsExecuted(command string) {
	c.commandsExecuted.Inc()
	c.commandUsage.WithLabelValues(command).Inc()
}

// IncMessagesSeen records an observed message
func (c *Collector) IncMessagesSeen() {
	c.messagesSeen.Inc()
}

// SetGuildCount sets the current guild count
func (c *Collector) SetGuildCount(n int) {
	c.guildCount.Set(float64(n))
}

// IncGuildCount records joining a guild
func (c *Collector) IncGuildCount() {
	c.guildCount.Inc()
}

// DecGuildCount records leaving a guild
func (c *Collector) DecGuildCount() {
	c.guildCount.Dec()
}

// RecordFeedFetch records a fetch attempt outcome ("ok", "http_error",
// "parse_error")
func (c *Collector) RecordFeedFetch(result string) {
	c.feedFetches.WithLabelValues(result).Inc()
}

// SetGatewayLatency records the gateway heartbeat latency
func (c *Collector) SetGatewayLatency(d time.Duration) {
	c.gatewayLatency.Set(d.Seconds())
}

// Handler returns the HTTP handler for the metrics server. GET /metrics
// serves the exposition format; every other path answers an empty 200.
func (c *Collector) Handler() http.Handler {
	promHandler := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promHandler)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Server wraps the HTTP server exposing the metrics endpoint
type Server struct {
	collector *Collector
	srv       *http.Server
}

// NewServer creates a metrics server listening on the given port
func NewServer(collector *Collector, port int) *Server {
	return &Server{
		collector: collector,
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: collector.Handler(),
		},
	}
}

// Start begins serving in a background goroutine
func (s *Server) Start() {
	go func() {
		log.Infof("Metrics server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()
}

// Close shuts the metrics server down
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
