package agent

import (
	"github.com/kjannette/trahn-agent/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics exposes agent activity to Prometheus:
//   - agent_decisions_total{agent,status}
//   - agent_trades_total{agent,pair}
//   - agent_spent_total{agent}
//   - agent_approvals_expired_total{agent}
//   - agent_window_spent{agent,window}
//   - agent_window_available{agent,window}
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	decisions       *prometheus.CounterVec
	trades          *prometheus.CounterVec
	spent           *prometheus.CounterVec
	expired         *prometheus.CounterVec
	windowSpent     *prometheus.GaugeVec
	windowAvailable *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_decisions_total",
				Help: "Trade evaluations by outcome",
			},
			[]string{"agent", "status"},
		),
		trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_trades_total",
				Help: "Executed trades",
			},
			[]string{"agent", "pair"},
		),
		spent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_spent_total",
				Help: "Total amount committed by executed trades",
			},
			[]string{"agent"},
		),
		expired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_approvals_expired_total",
				Help: "Approvals whose reservation was released unexecuted after the TTL",
			},
			[]string{"agent"},
		),
		windowSpent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agent_window_spent",
				Help: "Committed spend in the current budget window",
			},
			[]string{"agent", "window"},
		),
		windowAvailable: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agent_window_available",
				Help: "Remaining spend (limit minus spent and reserved) in the current budget window",
			},
			[]string{"agent", "window"},
		),
	}
	reg.MustRegister(m.decisions, m.trades, m.spent, m.expired, m.windowSpent, m.windowAvailable)
	return m
}

func (m *Metrics) observeDecision(agentID string, d *models.Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(agentID, string(d.Status)).Inc()
}

func (m *Metrics) observeTrade(agentID string, rec *models.TradeRecord) {
	if m == nil {
		return
	}
	m.trades.WithLabelValues(agentID, rec.Pair).Inc()
	m.spent.WithLabelValues(agentID).Add(rec.Amount.InexactFloat64())
}

func (m *Metrics) observeExpired(agentID string) {
	if m == nil {
		return
	}
	m.expired.WithLabelValues(agentID).Inc()
}

func (m *Metrics) observeBudget(agentID string, snap models.BudgetSnapshot) {
	if m == nil {
		return
	}
	for _, ws := range snap.Windows {
		m.windowSpent.WithLabelValues(agentID, string(ws.Window)).Set(ws.Spent.InexactFloat64())
		m.windowAvailable.WithLabelValues(agentID, string(ws.Window)).Set(clampZero(ws.Available).InexactFloat64())
	}
}

func clampZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
