package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kjannette/trahn-agent/internal/config"
	"github.com/kjannette/trahn-agent/internal/models"
	"github.com/shopspring/decimal"
)

func demoScenarios() []models.MarketProposal {
	d := decimal.RequireFromString
	return []models.MarketProposal{
		{Pair: "AVAX/USD", CurrentPrice: d("42.50"), TargetPrice: d("42.75"), Amount: d("0.01"), Confidence: d("0.92"), HarmonicFreq: 528},
		{Pair: "AVAX/USD", CurrentPrice: d("42.80"), TargetPrice: d("43.00"), Amount: d("0.01"), Confidence: d("0.65"), HarmonicFreq: 432},
		{Pair: "AVAX/USD", CurrentPrice: d("43.20"), TargetPrice: d("43.25"), Amount: d("0.01"), Confidence: d("0.88"), HarmonicFreq: 528},
	}
}

func runDemo(out io.Writer, cfg *config.Config) error {
	a, err := buildAgent(cfg, newLogger(cfg.LogLevel), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	for i, p := range demoScenarios() {
		fmt.Fprintf(out, "Scenario %d: %s @ $%s (confidence %s)\n", i+1, p.Pair, p.CurrentPrice, p.Confidence)

		d, err := a.Evaluate(p)
		if err != nil {
			return fmt.Errorf("scenario %d: %w", i+1, err)
		}
		if !d.Approved() {
			fmt.Fprintf(out, "  %s: %s\n\n", d.Status, d.Reason)
			continue
		}

		rec, err := a.Execute(d)
		if err != nil {
			return fmt.Errorf("scenario %d execute: %w", i+1, err)
		}
		fmt.Fprintf(out, "  executed %s %s @ $%s, haptic %s %v\n\n",
			rec.Side, rec.Amount, rec.Price.StringFixed(2), rec.Haptic.Tier, rec.Haptic.Pattern)
	}

	stats, err := json.MarshalIndent(a.Stats(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Agent stats:\n%s\n", stats)
	return nil
}
