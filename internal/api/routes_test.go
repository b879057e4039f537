package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kjannette/trahn-agent/internal/agent"
	"github.com/kjannette/trahn-agent/internal/models"
	"github.com/kjannette/trahn-agent/internal/risk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const avaxBody = `{"pair":"AVAX/USD","price":"42.50","targetPrice":"42.75","amount":"0.01","confidence":"0.92","harmonicFreq":528}`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	now := time.Date(2025, 12, 1, 18, 0, 0, 0, time.UTC)
	reg := prometheus.NewRegistry()
	a, err := agent.New(agent.Config{
		ID:          "polly-trader-001",
		Personality: risk.Moderate,
		Thresholds:  risk.DefaultThresholds(),
		Limits:      risk.DefaultLimits(),
	}, agent.WithClock(func() time.Time { return now }), agent.WithMetrics(agent.NewMetrics(reg)))
	require.NoError(t, err)

	return NewServer(a, Options{
		Port:    0,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:  zerolog.Nop(),
	}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestEvaluateExecuteFlow(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/v1/decisions", avaxBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	d := decode[models.Decision](t, rr)
	require.Equal(t, models.StatusApproved, d.Status)
	assert.Equal(t, "42.5", d.Approval.Price.String())

	rr = do(t, h, http.MethodGet, "/v1/decisions/"+d.ID.String(), "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/decisions/"+d.ID.String()+"/execute", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rec := decode[models.TradeRecord](t, rr)
	assert.Equal(t, d.ID, rec.ID)
	assert.Equal(t, "2025-12-01", rec.TradingDay)

	rr = do(t, h, http.MethodPost, "/v1/decisions/"+d.ID.String()+"/execute", "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, h, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[models.AgentStats](t, rr)
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, "0.01", stats.TotalSpent.String())

	rr = do(t, h, http.MethodGet, "/v1/trades?limit=5", "")
	trades := decode[[]models.TradeRecord](t, rr)
	assert.Len(t, trades, 1)

	rr = do(t, h, http.MethodGet, "/v1/trades/day/2025-12-01", "")
	assert.Len(t, decode[[]models.TradeRecord](t, rr), 1)

	rr = do(t, h, http.MethodGet, "/v1/trades/day/2025-11-30", "")
	assert.Equal(t, "[]\n", rr.Body.String())

	rr = do(t, h, http.MethodGet, "/metrics", "")
	assert.Contains(t, rr.Body.String(), "agent_trades_total")
}

func TestEvaluate_InvalidProposal(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/v1/decisions", `{"pair":"AVAX/USD","price":"0","amount":"1","confidence":"0.9"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid proposal")

	rr = do(t, h, http.MethodPost, "/v1/decisions", `{"pair":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/decisions", `{"pair":"X","bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEvaluate_BlockedCarriesViolations(t *testing.T) {
	h := newTestServer(t)

	body := strings.Replace(avaxBody, `"amount":"0.01"`, `"amount":"12"`, 1)
	rr := do(t, h, http.MethodPost, "/v1/decisions", body)
	require.Equal(t, http.StatusOK, rr.Code)
	d := decode[models.Decision](t, rr)
	assert.Equal(t, models.StatusBlocked, d.Status)
	require.Len(t, d.Violations, 1)
	assert.Equal(t, "10", d.Violations[0].Available.String())
}

func TestDecisionRoutes_Errors(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/v1/decisions/not-a-uuid/execute", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	unknown := "6f1c2a8e-0d7b-4b36-9a57-3d2e5f7c1b90"
	rr = do(t, h, http.MethodPost, "/v1/decisions/"+unknown+"/execute", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodGet, "/v1/decisions/"+unknown, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodDelete, "/v1/decisions/"+unknown, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCancelRoute(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodPost, "/v1/decisions", avaxBody)
	d := decode[models.Decision](t, rr)

	rr = do(t, h, http.MethodDelete, "/v1/decisions/"+d.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/decisions/"+d.ID.String()+"/execute", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStatusAndHealth(t *testing.T) {
	h := newTestServer(t)

	rr := do(t, h, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decode[models.BudgetSnapshot](t, rr)
	assert.Len(t, snap.Windows, 4)
	assert.Equal(t, rr.Body.String(), do(t, h, http.MethodGet, "/v1/status", "").Body.String())

	rr = do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "polly-trader-001", decode[healthResponse](t, rr).Agent)
}

func TestTradesByDay_InvalidDate(t *testing.T) {
	h := newTestServer(t)
	rr := do(t, h, http.MethodGet, "/v1/trades/day/2025-13-01", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
