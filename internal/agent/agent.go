package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/kjannette/trahn-agent/internal/models"
	"github.com/kjannette/trahn-agent/internal/risk"
	"github.com/kjannette/trahn-agent/internal/strategy"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	sideBuy = "BUY"

	// DefaultApprovalTTL is how long an approval holds its reservation when
	// Config.ApprovalTTL is zero.
	DefaultApprovalTTL = 15 * time.Minute

	notifyQueueSize = 64
)

// Config is fixed when the agent is created.
type Config struct {
	ID          string
	Personality risk.Personality
	Thresholds  risk.Thresholds
	Limits      risk.Limits
	// ApprovalTTL bounds how long an approval may stay unexecuted before its
	// reservation is returned to the budget.
	ApprovalTTL time.Duration
}

// Notifier receives a one-line message for every executed trade. Send runs on
// the agent's delivery goroutine and may block.
type Notifier interface {
	Send(msg string)
}

type Option func(*Agent)

// WithClock replaces time.Now as the agent's source of "now".
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Agent) { a.log = l }
}

func WithNotifier(n Notifier) Option {
	return func(a *Agent) { a.notify = n }
}

func WithMetrics(m *Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// Agent evaluates trade proposals against its confidence threshold, its
// spend budget and a price negotiation, and executes approved decisions.
//
// Budget, pending approvals and ledger are guarded by a single mutex. An
// approval reserves its amount in the same critical section that checked it,
// so concurrent evaluations can never jointly overshoot a limit. Approvals not
// executed within the TTL expire and release their reservation.
type Agent struct {
	cfg        Config
	confidence *risk.ConfidenceGate
	now        func() time.Time
	log        zerolog.Logger
	notify     Notifier
	metrics    *Metrics

	notes     chan string
	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu       sync.Mutex
	budget   *risk.Budget
	pending  map[uuid.UUID]models.Decision
	executed map[uuid.UUID]struct{}
	ledger   []models.TradeRecord
	wallet   string
}

func New(cfg Config, opts ...Option) (*Agent, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("limits: %w", err)
	}
	if cfg.ApprovalTTL < 0 {
		return nil, fmt.Errorf("approval ttl must not be negative, got %s", cfg.ApprovalTTL)
	}
	if cfg.ApprovalTTL == 0 {
		cfg.ApprovalTTL = DefaultApprovalTTL
	}

	a := &Agent{
		now:      time.Now,
		log:      zerolog.Nop(),
		pending:  make(map[uuid.UUID]models.Decision),
		executed: make(map[uuid.UUID]struct{}),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With().Str("component", "agent").Str("agent", cfg.ID).Logger()

	p, ok := risk.ParsePersonality(string(cfg.Personality))
	if !ok {
		a.log.Warn().Str("personality", string(cfg.Personality)).
			Msg("unknown personality, falling back to moderate")
	}
	cfg.Personality = p

	a.cfg = cfg
	a.confidence = risk.NewConfidenceGate(cfg.Thresholds)
	a.budget = risk.NewBudget(cfg.Limits, a.now())

	if a.notify != nil {
		a.notes = make(chan string, notifyQueueSize)
		a.wg.Add(1)
		go a.deliver()
	}
	return a, nil
}

// Close stops notification delivery once everything already queued has been
// sent. Trades executed after Close are not notified.
func (a *Agent) Close() {
	a.closeOnce.Do(func() { close(a.stop) })
	a.wg.Wait()
}

func (a *Agent) ID() string                    { return a.cfg.ID }
func (a *Agent) Personality() risk.Personality { return a.cfg.Personality }

// ConnectWallet records the EVM address the agent trades for. The address is
// stored in checksum form.
func (a *Agent) ConnectWallet(address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidWallet, address)
	}
	addr := common.HexToAddress(address).Hex()

	a.mu.Lock()
	a.wallet = addr
	a.mu.Unlock()

	a.log.Info().Str("wallet", addr).Msg("wallet connected")
	return nil
}

// Evaluate runs a proposal through the confidence, budget and negotiation
// stages, stopping at the first one that declines. Declines come back as
// Rejected or Blocked decisions; only a malformed proposal returns an error.
// An Approved decision holds its amount in the budget until Execute or Cancel.
func (a *Agent) Evaluate(p models.MarketProposal) (*models.Decision, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	d := a.evaluate(p)

	a.metrics.observeDecision(a.cfg.ID, d)
	ev := a.log.Info()
	if d.Status != models.StatusApproved {
		ev = a.log.Debug()
	}
	ev.Str("decision", d.ID.String()).
		Str("pair", p.Pair).
		Str("status", string(d.Status)).
		Str("confidence", p.Confidence.String()).
		Str("amount", p.Amount.String()).
		Str("reason", d.Reason).
		Msg("trade evaluated")
	return d, nil
}

func (a *Agent) evaluate(p models.MarketProposal) *models.Decision {
	now := a.now()
	d := &models.Decision{
		ID:        uuid.New(),
		Agent:     a.cfg.ID,
		Pair:      p.Pair,
		Timestamp: now,
	}

	conf := a.confidence.Evaluate(p.Confidence, a.cfg.Personality)
	if !conf.Accept {
		d.Status = models.StatusRejected
		d.Reason = conf.Rationale
		return d
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.expireStale(now)

	check := a.budget.Check(p.Amount, now)
	if !check.Approved {
		d.Status = models.StatusBlocked
		d.Reason = check.Message()
		d.Violations = check.Violations
		return d
	}

	neg, err := strategy.Negotiate(p.CurrentPrice, p.Target())
	if err != nil {
		// unreachable after Validate
		d.Status = models.StatusRejected
		d.Reason = err.Error()
		return d
	}
	if neg.Action == strategy.ActionReject {
		d.Status = models.StatusRejected
		d.Reason = neg.Rationale
		return d
	}

	if res := a.budget.Reserve(p.Amount, now); !res.Approved {
		d.Status = models.StatusBlocked
		d.Reason = res.Message()
		d.Violations = res.Violations
		return d
	}

	d.Status = models.StatusApproved
	d.Reason = conf.Rationale
	d.Approval = &models.Approval{
		Action:          sideBuy,
		Amount:          p.Amount,
		Price:           *neg.Price,
		Negotiation:     string(neg.Action),
		Confidence:      p.Confidence,
		HarmonicFreq:    p.HarmonicFreq,
		HarmonicAligned: p.HarmonicAligned(),
		Haptic:          strategy.HapticFor(p.Confidence),
		ExpiresAt:       now.Add(a.cfg.ApprovalTTL),
	}
	a.pending[d.ID] = copyDecision(d)
	return d
}

// Execute commits an Approved decision: its reserved amount becomes spend in
// every window and a TradeRecord is appended to the ledger. Executing a
// decision that is not Approved, was not issued by this agent, has expired or
// was already executed is an error.
func (a *Agent) Execute(d *models.Decision) (*models.TradeRecord, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil decision", ErrNotApproved)
	}
	if !d.Approved() {
		return nil, fmt.Errorf("%w: decision %s has status %q", ErrNotApproved, d.ID, d.Status)
	}
	return a.ExecuteID(d.ID)
}

// ExecuteID executes the pending approval with the given id.
func (a *Agent) ExecuteID(id uuid.UUID) (*models.TradeRecord, error) {
	a.mu.Lock()
	if _, done := a.executed[id]; done {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExecuted, id)
	}
	now := a.now()
	a.expireStale(now)
	d, ok := a.pending[id]
	if !ok {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownDecision, id)
	}

	appr := d.Approval
	if err := a.budget.Confirm(appr.Amount, now); err != nil {
		a.log.Error().Err(err).Str("decision", id.String()).Msg("reservation accounting mismatch on execute")
	}
	delete(a.pending, id)
	a.executed[id] = struct{}{}

	rec := models.TradeRecord{
		ID:         id,
		Agent:      a.cfg.ID,
		Pair:       d.Pair,
		Side:       appr.Action,
		Amount:     appr.Amount,
		Price:      appr.Price,
		Confidence: appr.Confidence,
		Haptic:     appr.Haptic,
		ExecutedAt: now,
		TradingDay: models.TradingDay(now),
	}
	a.ledger = append(a.ledger, rec)
	snap := a.budget.Snapshot(now)
	a.mu.Unlock()

	a.metrics.observeTrade(a.cfg.ID, &rec)
	a.metrics.observeBudget(a.cfg.ID, snap)
	a.log.Info().
		Str("decision", id.String()).
		Str("pair", rec.Pair).
		Str("amount", rec.Amount.String()).
		Str("price", rec.Price.String()).
		Str("haptic", string(rec.Haptic.Tier)).
		Msg("trade executed")

	a.enqueueNotification(fmt.Sprintf("%s executed %s %s %s @ %s (confidence %s, haptic %s)",
		a.cfg.ID, rec.Side, rec.Amount, rec.Pair, rec.Price,
		rec.Confidence.StringFixed(2), rec.Haptic.Tier))
	return &rec, nil
}

// Cancel drops a pending approval and returns its reservation to the budget.
func (a *Agent) Cancel(id uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, done := a.executed[id]; done {
		return fmt.Errorf("%w: %s", ErrAlreadyExecuted, id)
	}
	a.expireStale(a.now())
	d, ok := a.pending[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDecision, id)
	}
	if err := a.budget.Release(d.Approval.Amount); err != nil {
		a.log.Error().Err(err).Str("decision", id.String()).Msg("reservation accounting mismatch on cancel")
	}
	delete(a.pending, id)

	a.log.Info().Str("decision", id.String()).Msg("approval cancelled")
	return nil
}

// Decision returns a pending approval by id.
func (a *Agent) Decision(id uuid.UUID) (*models.Decision, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expireStale(a.now())

	d, ok := a.pending[id]
	if !ok {
		return nil, false
	}
	out := copyDecision(&d)
	return &out, true
}

// Status returns the budget accounting of every window.
func (a *Agent) Status() models.BudgetSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	a.expireStale(now)
	return a.budget.Snapshot(now)
}

// Stats summarises the ledger. Average confidence is zero with no trades.
func (a *Agent) Stats() models.AgentStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	a.expireStale(now)

	total := decimal.Zero
	confSum := decimal.Zero
	for _, t := range a.ledger {
		total = total.Add(t.Amount)
		confSum = confSum.Add(t.Confidence)
	}
	avg := decimal.Zero
	if n := len(a.ledger); n > 0 {
		avg = confSum.Div(decimal.NewFromInt(int64(n)))
	}

	return models.AgentStats{
		Agent:         a.cfg.ID,
		Personality:   string(a.cfg.Personality),
		Wallet:        a.wallet,
		TotalTrades:   len(a.ledger),
		TotalSpent:    total,
		AvgConfidence: avg,
		Pending:       len(a.pending),
		Budget:        a.budget.Snapshot(now),
	}
}

// Trades returns up to limit ledger entries, newest first. limit <= 0 returns all.
func (a *Agent) Trades(limit int) []models.TradeRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.ledger)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.TradeRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, a.ledger[i])
	}
	return out
}

// TradesOnDay returns the ledger entries of one trading day in execution order.
func (a *Agent) TradesOnDay(day string) []models.TradeRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []models.TradeRecord
	for _, t := range a.ledger {
		if t.TradingDay == day {
			out = append(out, t)
		}
	}
	return out
}

// expireStale drops approvals whose TTL has passed at now and returns their
// reservations. Callers must hold a.mu.
func (a *Agent) expireStale(now time.Time) {
	for id, d := range a.pending {
		if now.Before(d.Approval.ExpiresAt) {
			continue
		}
		if err := a.budget.Release(d.Approval.Amount); err != nil {
			a.log.Error().Err(err).Str("decision", id.String()).Msg("reservation accounting mismatch on expiry")
		}
		delete(a.pending, id)
		a.metrics.observeExpired(a.cfg.ID)
		a.log.Info().
			Str("decision", id.String()).
			Str("amount", d.Approval.Amount.String()).
			Msg("approval expired, reservation released")
	}
}

// enqueueNotification hands msg to the delivery goroutine without blocking.
// Messages are dropped when the queue is full or the agent is closed.
func (a *Agent) enqueueNotification(msg string) {
	if a.notes == nil {
		return
	}
	select {
	case <-a.stop:
		a.log.Warn().Msg("agent closed, notification dropped")
		return
	default:
	}
	select {
	case a.notes <- msg:
	default:
		a.log.Warn().Msg("notification queue full, notification dropped")
	}
}

func (a *Agent) deliver() {
	defer a.wg.Done()
	for {
		select {
		case msg := <-a.notes:
			a.notify.Send(msg)
		case <-a.stop:
			for {
				select {
				case msg := <-a.notes:
					a.notify.Send(msg)
				default:
					return
				}
			}
		}
	}
}

func copyDecision(d *models.Decision) models.Decision {
	out := *d
	if d.Approval != nil {
		appr := *d.Approval
		appr.Haptic.Pattern = append([]int(nil), d.Approval.Haptic.Pattern...)
		out.Approval = &appr
	}
	out.Violations = append([]models.Violation(nil), d.Violations...)
	return out
}
