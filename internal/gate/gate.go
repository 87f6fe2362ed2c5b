package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"autotrader/internal/core"
	"autotrader/internal/models"
)

// ErrOutOfBounds is returned when a proposed threshold leaves the safety band.
var ErrOutOfBounds = errors.New("threshold outside safety band")

const (
	SourceManual    = "manual"
	SourceOptimizer = "optimizer"
	SourceDefault   = "default"
)

type Store interface {
	UpsertThresholdEntry(ctx context.Context, item *models.ThresholdEntry) error
	ListThresholdEntries(ctx context.Context) ([]models.ThresholdEntry, error)
	InsertThresholdChange(ctx context.Context, item *models.ThresholdChange) error
}

type Config struct {
	DefaultThreshold float64
	MinBound         float64
	MaxBound         float64
}

// Gate owns the per-(module, strategy) threshold table. It is the single
// writer: manual edits and optimizer adjustments both go through SetThreshold
// under one lock, so gating decisions never race a threshold change.
type Gate struct {
	Store  Store
	Logger *zap.Logger
	Config Config

	mu      sync.RWMutex
	entries map[core.StrategyKey]models.ThresholdEntry
}

// Load hydrates the in-memory table from storage. Call once at startup.
func (g *Gate) Load(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.entries == nil {
		g.entries = map[core.StrategyKey]models.ThresholdEntry{}
	}
	if g.Store == nil {
		return nil
	}
	items, err := g.Store.ListThresholdEntries(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		mod, err := core.ParseModule(it.Module)
		if err != nil {
			continue
		}
		g.entries[core.StrategyKey{Module: mod, Strategy: it.Strategy}] = it
	}
	return nil
}

// Admit reports whether the signal clears the threshold for its key and
// returns the threshold that was in force. A missing key is populated with
// the configured default before deciding.
func (g *Gate) Admit(ctx context.Context, sig core.Signal) (bool, float64) {
	if g == nil {
		return false, 0
	}
	g.mu.Lock()
	if g.entries == nil {
		g.entries = map[core.StrategyKey]models.ThresholdEntry{}
	}
	entry, ok := g.entries[sig.Key]
	if !ok {
		entry = models.ThresholdEntry{
			Module:      string(sig.Key.Module),
			Strategy:    sig.Key.Strategy,
			Value:       g.Clamp(g.Config.DefaultThreshold),
			UpdatedBy:   SourceDefault,
			LastUpdated: time.Now().UTC(),
		}
		g.entries[sig.Key] = entry
		g.persist(ctx, entry, nil)
	}
	g.mu.Unlock()
	return sig.Confidence >= entry.Value, entry.Value
}

// SetThreshold validates value against the safety band and commits it.
// Every accepted call is audit-logged, optimizer-originated or not.
func (g *Gate) SetThreshold(ctx context.Context, key core.StrategyKey, value float64, source string) error {
	if g == nil {
		return nil
	}
	if value < g.Config.MinBound || value > g.Config.MaxBound {
		return fmt.Errorf("%w: %.4f not in [%.2f, %.2f]", ErrOutOfBounds, value, g.Config.MinBound, g.Config.MaxBound)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.entries == nil {
		g.entries = map[core.StrategyKey]models.ThresholdEntry{}
	}
	var oldValue *float64
	if prev, ok := g.entries[key]; ok {
		v := prev.Value
		oldValue = &v
	}
	entry := models.ThresholdEntry{
		Module:      string(key.Module),
		Strategy:    key.Strategy,
		Value:       value,
		UpdatedBy:   source,
		LastUpdated: time.Now().UTC(),
	}
	g.entries[key] = entry
	g.persist(ctx, entry, oldValue)
	if g.Logger != nil {
		g.Logger.Info("threshold updated",
			zap.String("key", key.String()),
			zap.Float64("value", value),
			zap.String("source", source),
		)
	}
	return nil
}

// Threshold returns the current value for a key without populating defaults.
func (g *Gate) Threshold(key core.StrategyKey) (float64, bool) {
	if g == nil {
		return 0, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	entry, ok := g.entries[key]
	if !ok {
		return 0, false
	}
	return entry.Value, true
}

// Snapshot returns a read-only copy of the threshold table.
func (g *Gate) Snapshot() []models.ThresholdEntry {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.ThresholdEntry, 0, len(g.entries))
	for _, entry := range g.entries {
		out = append(out, entry)
	}
	return out
}

// Clamp pulls a value into the safety band.
func (g *Gate) Clamp(v float64) float64 {
	if g == nil {
		return v
	}
	if v < g.Config.MinBound {
		return g.Config.MinBound
	}
	if v > g.Config.MaxBound {
		return g.Config.MaxBound
	}
	return v
}

// persist writes the entry and its audit row; callers hold the lock.
// Storage errors degrade to logs so gating never stalls a cycle.
func (g *Gate) persist(ctx context.Context, entry models.ThresholdEntry, oldValue *float64) {
	if g.Store == nil {
		return
	}
	if err := g.Store.UpsertThresholdEntry(ctx, &entry); err != nil && g.Logger != nil {
		g.Logger.Warn("persist threshold entry failed", zap.Error(err))
	}
	change := models.ThresholdChange{
		Module:   entry.Module,
		Strategy: entry.Strategy,
		OldValue: oldValue,
		NewValue: entry.Value,
		Source:   entry.UpdatedBy,
	}
	if err := g.Store.InsertThresholdChange(ctx, &change); err != nil && g.Logger != nil {
		g.Logger.Warn("persist threshold change failed", zap.Error(err))
	}
}
