package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kjannette/trahn-agent/internal/agent"
	"github.com/kjannette/trahn-agent/internal/risk"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Agent
	AgentID     string
	Personality string

	// Confidence thresholds
	ThresholdAggressive   decimal.Decimal
	ThresholdModerate     decimal.Decimal
	ThresholdConservative decimal.Decimal

	// Spend limits
	LimitDaily   decimal.Decimal
	LimitWeekly  decimal.Decimal
	LimitMonthly decimal.Decimal
	LimitYearly  decimal.Decimal

	// How long an approval may wait for execution
	ApprovalTTL time.Duration

	// Secrets / integrations (from .env)
	WalletAddress   string
	WebhookURL      string
	BotName         string
	APIKey          string
	CORSAllowOrigin string

	// Runtime
	APIPort  int
	LogLevel string

	// malformed values seen by Load, reported by Validate
	parseErrs []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	th := risk.DefaultThresholds()
	lim := risk.DefaultLimits()

	cfg := &Config{
		AgentID:     envStr("AGENT_ID", "polly-trader-001"),
		Personality: envStr("AGENT_PERSONALITY", string(risk.Moderate)),

		WalletAddress:   envStr("WALLET_ADDRESS", ""),
		WebhookURL:      envStr("WEBHOOK_URL", ""),
		BotName:         envStr("BOT_NAME", "TrahnAgent"),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		APIPort:  envInt("API_PORT", 3001),
		LogLevel: envStr("LOG_LEVEL", "info"),
	}

	cfg.ThresholdAggressive = cfg.envDecimal("THRESHOLD_AGGRESSIVE", th.Aggressive)
	cfg.ThresholdModerate = cfg.envDecimal("THRESHOLD_MODERATE", th.Moderate)
	cfg.ThresholdConservative = cfg.envDecimal("THRESHOLD_CONSERVATIVE", th.Conservative)

	cfg.LimitDaily = cfg.envDecimal("LIMIT_DAILY", lim.Daily)
	cfg.LimitWeekly = cfg.envDecimal("LIMIT_WEEKLY", lim.Weekly)
	cfg.LimitMonthly = cfg.envDecimal("LIMIT_MONTHLY", lim.Monthly)
	cfg.LimitYearly = cfg.envDecimal("LIMIT_YEARLY", lim.Yearly)

	cfg.ApprovalTTL = cfg.envDuration("APPROVAL_TTL", agent.DefaultApprovalTTL)

	return cfg, nil
}

func (c *Config) Thresholds() risk.Thresholds {
	return risk.Thresholds{
		Aggressive:   c.ThresholdAggressive,
		Moderate:     c.ThresholdModerate,
		Conservative: c.ThresholdConservative,
	}
}

func (c *Config) Limits() risk.Limits {
	return risk.Limits{
		Daily:   c.LimitDaily,
		Weekly:  c.LimitWeekly,
		Monthly: c.LimitMonthly,
		Yearly:  c.LimitYearly,
	}
}

// PersonalityValue returns the configured personality, Moderate if unrecognised.
func (c *Config) PersonalityValue() risk.Personality {
	p, _ := risk.ParsePersonality(c.Personality)
	return p
}

func (c *Config) Validate() error {
	errs := append([]string(nil), c.parseErrs...)

	if c.AgentID == "" {
		errs = append(errs, "AGENT_ID is required")
	}
	if err := c.Thresholds().Validate(); err != nil {
		errs = append(errs, "THRESHOLD_*: "+err.Error())
	}
	if err := c.Limits().Validate(); err != nil {
		errs = append(errs, "LIMIT_*: "+err.Error())
	}
	if c.WalletAddress != "" && !common.IsHexAddress(c.WalletAddress) {
		errs = append(errs, fmt.Sprintf("WALLET_ADDRESS %q is not a valid address", c.WalletAddress))
	}
	if c.ApprovalTTL <= 0 {
		errs = append(errs, fmt.Sprintf("APPROVAL_TTL must be positive, got %s", c.ApprovalTTL))
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Sprintf("API_PORT %d out of range", c.APIPort))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL %q is not a valid level", c.LogLevel))
	}

	if _, ok := risk.ParsePersonality(c.Personality); !ok {
		log.Warn().Str("personality", c.Personality).Msg("AGENT_PERSONALITY not recognised, using moderate")
	}
	if c.LimitDaily.GreaterThan(c.LimitWeekly) ||
		c.LimitWeekly.GreaterThan(c.LimitMonthly) ||
		c.LimitMonthly.GreaterThan(c.LimitYearly) {
		log.Warn().Msg("LIMIT_* not increasing daily <= weekly <= monthly <= yearly, the smallest window will dominate")
	}
	if c.APIKey == "" {
		log.Warn().Msg("API_KEY not set, REST API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Trahn Agent Configuration ===")
	fmt.Printf("Agent: %s (%s)\n", c.AgentID, c.PersonalityValue())
	if len(c.WalletAddress) > 16 {
		fmt.Printf("Wallet: %s...%s\n", c.WalletAddress[:10], c.WalletAddress[len(c.WalletAddress)-6:])
	}
	fmt.Println("--------------------------------------")
	fmt.Println("Confidence thresholds:")
	fmt.Printf("  aggressive:   %s\n", c.ThresholdAggressive)
	fmt.Printf("  moderate:     %s\n", c.ThresholdModerate)
	fmt.Printf("  conservative: %s\n", c.ThresholdConservative)
	fmt.Println("--------------------------------------")
	fmt.Println("Spend limits:")
	fmt.Printf("  daily:   $%s\n", c.LimitDaily.StringFixed(2))
	fmt.Printf("  weekly:  $%s\n", c.LimitWeekly.StringFixed(2))
	fmt.Printf("  monthly: $%s\n", c.LimitMonthly.StringFixed(2))
	fmt.Printf("  yearly:  $%s\n", c.LimitYearly.StringFixed(2))
	fmt.Printf("Approval TTL: %s\n", c.ApprovalTTL)
	fmt.Println("--------------------------------------")
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set (console only)"))
	fmt.Println("======================================")
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envDecimal reads a decimal. A malformed value is recorded for Validate
// rather than replaced by the fallback.
func (c *Config) envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s %q is not a decimal", key, v))
		return decimal.Zero
	}
	return d
}

func (c *Config) envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Sprintf("%s %q is not a duration", key, v))
		return 0
	}
	return d
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
