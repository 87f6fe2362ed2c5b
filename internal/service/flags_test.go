package service

import (
	"context"
	"testing"

	"autotrader/internal/models"
)

type stubFlagStore struct {
	settings map[string]*models.SystemSetting
}

func newStubFlagStore() *stubFlagStore {
	return &stubFlagStore{settings: map[string]*models.SystemSetting{}}
}

func (s *stubFlagStore) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	cp := *item
	s.settings[item.Key] = &cp
	return nil
}

func (s *stubFlagStore) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	setting, ok := s.settings[key]
	if !ok {
		return nil, nil
	}
	cp := *setting
	return &cp, nil
}

func TestEnsureDefaultsSeedsMissingOnly(t *testing.T) {
	store := newStubFlagStore()
	f := &Flags{Store: store}
	if err := f.SetEnabled(context.Background(), FeatureOptimizer, false); err != nil {
		t.Fatalf("set enabled: %v", err)
	}

	if err := f.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("ensure defaults: %v", err)
	}
	if len(store.settings) != len(defaultFlags) {
		t.Fatalf("settings=%d want=%d", len(store.settings), len(defaultFlags))
	}
	// Pre-existing disable survives seeding.
	if f.IsEnabled(context.Background(), FeatureOptimizer) {
		t.Fatalf("optimizer flag reset by EnsureDefaults")
	}
	if !f.IsEnabled(context.Background(), FeatureModuleStocks) {
		t.Fatalf("seeded flag must default to enabled")
	}
}

func TestIsEnabledDefaultsTrue(t *testing.T) {
	f := &Flags{Store: newStubFlagStore()}
	if !f.IsEnabled(context.Background(), "feature.not_seeded") {
		t.Fatalf("missing flag must read as enabled")
	}
}

func TestSetEnabledRoundTrip(t *testing.T) {
	f := &Flags{Store: newStubFlagStore()}
	ctx := context.Background()

	if err := f.SetEnabled(ctx, FeatureLiveFeed, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	if f.IsEnabled(ctx, FeatureLiveFeed) {
		t.Fatalf("flag still enabled after disable")
	}
	if err := f.SetEnabled(ctx, FeatureLiveFeed, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !f.IsEnabled(ctx, FeatureLiveFeed) {
		t.Fatalf("flag still disabled after enable")
	}
	if f.OptimizerEnabled(ctx) != f.IsEnabled(ctx, FeatureOptimizer) {
		t.Fatalf("OptimizerEnabled must mirror the optimizer flag")
	}
}
