package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Module is an independent strategy domain producing trade candidates.
type Module string

const (
	ModuleStocks  Module = "stocks"
	ModuleCrypto  Module = "crypto"
	ModuleOptions Module = "options"
)

func AllModules() []Module {
	return []Module{ModuleStocks, ModuleCrypto, ModuleOptions}
}

func ParseModule(raw string) (Module, error) {
	m := Module(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case ModuleStocks, ModuleCrypto, ModuleOptions:
		return m, nil
	}
	return "", fmt.Errorf("unknown module %q", raw)
}

// StrategyKey joins a module with one of its strategies. It is the join key
// across thresholds, trades, performance aggregates, and optimization events.
type StrategyKey struct {
	Module   Module
	Strategy string
}

func (k StrategyKey) String() string {
	return string(k.Module) + "/" + k.Strategy
}

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Signal is a candidate trade produced by a module adapter. Ephemeral:
// consumed once per cycle, never persisted as-is.
type Signal struct {
	Key        StrategyKey
	Symbol     string
	Confidence float64
	Side       Side
	Size       decimal.Decimal
	Price      decimal.Decimal
	Timestamp  time.Time
}
