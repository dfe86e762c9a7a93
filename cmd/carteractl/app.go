package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/cartera-ar/cartera/internal/config"
	"github.com/cartera-ar/cartera/internal/di"
	"github.com/cartera-ar/cartera/pkg/logger"
	"github.com/shopspring/decimal"
)

// openContainer wires the application without starting the scheduler.
// Logs go to stderr so stdout stays parseable.
func openContainer(ctx context.Context) (*di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	container, _, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return container, nil
}

// formatMoney renders an amount with the currency's symbol and separators.
func formatMoney(amount decimal.Decimal, code string) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, code).Display()
}

func formatARS(amount decimal.Decimal) string { return formatMoney(amount, money.ARS) }
func formatUSD(amount decimal.Decimal) string { return formatMoney(amount, money.USD) }

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

// splitList parses a comma separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseFloats parses a comma separated list of numbers.
func parseFloats(s string) ([]float64, error) {
	items := splitList(s)
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]float64, len(items))
	for i, item := range items {
		v, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", item)
		}
		out[i] = v
	}
	return out, nil
}
