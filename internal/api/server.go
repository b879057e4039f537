package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kjannette/trahn-agent/internal/agent"
	"github.com/kjannette/trahn-agent/internal/models"
	"github.com/rs/zerolog"
)

const (
	maxQueryLimit = 1000
	maxBodyBytes  = 1 << 16
)

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Agent is the subset of *agent.Agent the API serves.
type Agent interface {
	ID() string
	Evaluate(p models.MarketProposal) (*models.Decision, error)
	ExecuteID(id uuid.UUID) (*models.TradeRecord, error)
	Cancel(id uuid.UUID) error
	Decision(id uuid.UUID) (*models.Decision, bool)
	Status() models.BudgetSnapshot
	Stats() models.AgentStats
	Trades(limit int) []models.TradeRecord
	TradesOnDay(day string) []models.TradeRecord
}

type Options struct {
	Port       int
	APIKey     string
	CORSOrigin string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Logger  zerolog.Logger
}

type Server struct {
	agent      Agent
	httpServer *http.Server
	apiKey     string
	log        zerolog.Logger
}

func NewServer(a Agent, opts Options) *Server {
	s := &Server{
		agent:  a,
		apiKey: opts.APIKey,
		log:    opts.Logger.With().Str("component", "api").Logger(),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.authMiddleware(corsMiddleware(s.routes(opts.Metrics), opts.CORSOrigin)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Decision routes
	mux.HandleFunc("POST /v1/decisions", s.handleEvaluate)
	mux.HandleFunc("GET /v1/decisions/{id}", s.handleGetDecision)
	mux.HandleFunc("POST /v1/decisions/{id}/execute", s.handleExecute)
	mux.HandleFunc("DELETE /v1/decisions/{id}", s.handleCancel)

	// Budget / ledger routes
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /v1/trades", s.handleTrades)
	mux.HandleFunc("GET /v1/trades/day/{date}", s.handleTradesByDay)

	// No auth required
	mux.HandleFunc("GET /health", s.handleHealth)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Bool("auth", s.apiKey != "").Msg("REST API server started")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func isPublic(path string) bool {
	return path == "/health" || path == "/metrics"
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := models.TradingDayStart(date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid decision id")
		return uuid.Nil, false
	}
	return id, true
}

// --- response helpers ---

// statusFor maps agent errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidProposal):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrUnknownDecision):
		return http.StatusNotFound
	case errors.Is(err, agent.ErrAlreadyExecuted), errors.Is(err, agent.ErrNotApproved):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
