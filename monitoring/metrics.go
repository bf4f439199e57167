package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"raffle-system/utils"
)

var (
	ticketsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "raffle_tickets_total",
			Help: "Current number of tickets per status",
		},
		[]string{"status"},
	)

	reservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_reservations_total",
			Help: "Reservation attempts by result",
		},
		[]string{"result"},
	)

	confirmationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raffle_confirmations_total",
			Help: "Orders confirmed as paid",
		},
	)

	cancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "raffle_cancellations_total",
			Help: "Orders cancelled and returned to the pool",
		},
	)
)

// Reservation results.
const (
	ResultAccepted = "accepted"
	ResultConflict = "conflict"
	ResultError    = "error"
)

func RecordReservation(result string) {
	reservationsTotal.WithLabelValues(result).Inc()
}

func RecordConfirmation() {
	confirmationsTotal.Inc()
}

func RecordCancellation() {
	cancellationsTotal.Inc()
}

// Monitor periodically refreshes the per-status ticket gauges. The count
// callback keeps this package decoupled from the store client.
type Monitor struct {
	countByStatus func(ctx context.Context) (map[string]int, error)
}

func NewMonitor(countByStatus func(ctx context.Context) (map[string]int, error)) *Monitor {
	return &Monitor{countByStatus: countByStatus}
}

func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counts, err := m.countByStatus(ctx)
			if err != nil {
				slog.Error("collect ticket metrics", "error", err)
				continue
			}
			for status, count := range counts {
				ticketsByStatus.WithLabelValues(status).Set(float64(count))
			}
		}
	}
}

// StartMetricsServer serves /metrics and /health on the metrics port.
func StartMetricsServer(addr string, redisClient *redis.Client) error {
	e := echo.New()

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	server := &http.Server{Addr: addr, Handler: e}
	return server.ListenAndServe()
}
