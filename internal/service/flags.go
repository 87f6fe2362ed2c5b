package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"autotrader/internal/models"
)

// Feature switch keys stored in system_settings.
const (
	FeatureOptimizer       = "feature.optimizer"
	FeatureModuleStocks    = "feature.module.stocks"
	FeatureModuleCrypto    = "feature.module.crypto"
	FeatureModuleOptions   = "feature.module.options"
	FeatureSnapshotWriter  = "feature.snapshot_writer"
	FeatureLiveFeed        = "feature.live_feed"
	FeaturePositionRefresh = "feature.position_refresh"
)

var defaultFlags = map[string]string{
	FeatureOptimizer:       "automatic confidence-threshold optimization",
	FeatureModuleStocks:    "stocks adapter participates in cycles",
	FeatureModuleCrypto:    "crypto adapter participates in cycles",
	FeatureModuleOptions:   "options adapter participates in cycles",
	FeatureSnapshotWriter:  "periodic dashboard snapshot file writes",
	FeatureLiveFeed:        "websocket dashboard feed",
	FeaturePositionRefresh: "periodic position price refresh",
}

type FlagStore interface {
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
}

// Flags exposes DB-backed feature switches. Missing or unreadable flags
// default to enabled so a fresh database runs the full pipeline.
type Flags struct {
	Store  FlagStore
	Logger *zap.Logger
}

// EnsureDefaults seeds any missing switch rows. Existing values are kept.
func (f *Flags) EnsureDefaults(ctx context.Context) error {
	if f == nil || f.Store == nil {
		return nil
	}
	for key, description := range defaultFlags {
		existing, err := f.Store.GetSystemSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		raw, _ := json.Marshal(true)
		setting := models.SystemSetting{Key: key, Value: raw, Description: description}
		if err := f.Store.UpsertSystemSetting(ctx, &setting); err != nil {
			return err
		}
	}
	return nil
}

func (f *Flags) IsEnabled(ctx context.Context, key string) bool {
	if f == nil || f.Store == nil {
		return true
	}
	setting, err := f.Store.GetSystemSettingByKey(ctx, key)
	if err != nil {
		if f.Logger != nil {
			f.Logger.Warn("flag read failed", zap.String("key", key), zap.Error(err))
		}
		return true
	}
	if setting == nil {
		return true
	}
	var enabled bool
	if err := json.Unmarshal(setting.Value, &enabled); err != nil {
		return true
	}
	return enabled
}

func (f *Flags) SetEnabled(ctx context.Context, key string, enabled bool) error {
	if f == nil || f.Store == nil {
		return nil
	}
	raw, _ := json.Marshal(enabled)
	setting := models.SystemSetting{Key: key, Value: raw, Description: defaultFlags[key]}
	return f.Store.UpsertSystemSetting(ctx, &setting)
}

// OptimizerEnabled satisfies the dashboard aggregator's flag source.
func (f *Flags) OptimizerEnabled(ctx context.Context) bool {
	return f.IsEnabled(ctx, FeatureOptimizer)
}
