package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the Prometheus surface for the event router, one
// CounterVec/GaugeVec per concern.
type Metrics struct {
	cyclesTotal  *prometheus.CounterVec
	tradesTotal  *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	botsRunning  prometheus.Gauge
	dailyPnL     *prometheus.GaugeVec
	consecLosses *prometheus.GaugeVec
}

// NewMetrics constructs and registers the controller's metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hft_bot_cycles_total",
			Help: "Analysis loop cycles completed, labeled by bot and outcome.",
		}, []string{"bot_id", "outcome"}),
		tradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hft_bot_trades_total",
			Help: "Orders submitted, labeled by bot and direction.",
		}, []string{"bot_id", "direction"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hft_bot_errors_total",
			Help: "Telemetry errors, labeled by bot and error kind.",
		}, []string{"bot_id", "kind"}),
		botsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hft_bots_running",
			Help: "Number of bots started and not yet stopped.",
		}),
		dailyPnL: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hft_bot_daily_pnl",
			Help: "Realized plus unrealized daily P&L, labeled by bot.",
		}, []string{"bot_id"}),
		consecLosses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hft_bot_consecutive_losses",
			Help: "Current consecutive loss streak, labeled by bot.",
		}, []string{"bot_id"}),
	}
	reg.MustRegister(m.cyclesTotal, m.tradesTotal, m.errorsTotal, m.botsRunning, m.dailyPnL, m.consecLosses)
	return m
}

func (m *Metrics) observe(ev Event) {
	botID := strconv.FormatInt(ev.BotID, 10)
	switch ev.Type {
	case EventCycleUpdate:
		m.cyclesTotal.WithLabelValues(botID, "ok").Inc()
		if ev.Performance != nil {
			m.dailyPnL.WithLabelValues(botID).Set(ev.Performance.DailyPnLRealized + ev.Performance.DailyPnLUnrealized)
			m.consecLosses.WithLabelValues(botID).Set(float64(ev.Performance.ConsecutiveLosses))
		}
	case EventTradeExecuted:
		if ev.Trade != nil {
			m.tradesTotal.WithLabelValues(botID, ev.Trade.Direction.String()).Inc()
		}
	case EventTradeError:
		m.errorsTotal.WithLabelValues(botID, ev.ErrKind).Inc()
	case EventBotStarted:
		m.botsRunning.Inc()
	case EventBotStopped:
		m.botsRunning.Dec()
	}
}
