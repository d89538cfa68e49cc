package featureflags_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/outbackwarning/outbackwarning/internal/featureflags"
)

func newService(repo featureflags.Repository, clock clockwork.Clock) *featureflags.Service {
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   time.Minute,
		Clock:      clock,
	})
}

func TestService_GetFlag_Default(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), nil)

	flag := service.GetFlag(context.Background(), featureflags.FlagLowBandwidthMode)
	if flag == nil {
		t.Fatal("expected default flag to be returned")
	}
	if flag.BoolValue(true) {
		t.Error("expected low_bandwidth_mode to be off by default")
	}
	if service.GetFlag(context.Background(), "unknown_flag") != nil {
		t.Error("expected nil for unknown flag")
	}
}

func TestService_SetFlag(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), nil)
	ctx := context.Background()

	if err := service.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagCachedOnlyFeeds, Value: true}); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if !service.IsCachedOnlyFeeds(ctx) {
		t.Error("expected cached_only_feeds to be on after update")
	}
}

func TestService_SetFlags(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, nil)
	ctx := context.Background()

	err := service.SetFlags(ctx, []*featureflags.Flag{
		{Key: featureflags.FlagDisableHotspots, Value: true},
		{Key: featureflags.FlagCachedOnlyFeeds, Value: true},
	})
	if err != nil {
		t.Fatalf("failed to set flags: %v", err)
	}

	stored, err := repo.GetFlag(ctx, featureflags.FlagDisableHotspots)
	if err != nil {
		t.Fatalf("expected flag in repository: %v", err)
	}
	if !stored.BoolValue(false) {
		t.Error("expected stored disable_hotspots to be true")
	}
	if !service.HotspotsDisabled(ctx) || !service.IsCachedOnlyFeeds(ctx) {
		t.Error("expected both flags to be on")
	}
}

func TestService_LowBandwidthDisablesHotspots(t *testing.T) {
	repo := featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{
		featureflags.FlagLowBandwidthMode: {Key: featureflags.FlagLowBandwidthMode, Value: true},
	})
	service := newService(repo, nil)
	ctx := context.Background()

	if !service.IsLowBandwidth(ctx) {
		t.Error("expected low bandwidth mode on")
	}
	if !service.HotspotsDisabled(ctx) {
		t.Error("expected hotspots disabled in low bandwidth mode")
	}
}

func TestService_CacheExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, clock)
	ctx := context.Background()

	if err := service.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisableHotspots, Value: true}); err != nil {
		t.Fatal(err)
	}

	// Change the repository behind the service's back.
	if err := repo.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisableHotspots, Value: false}); err != nil {
		t.Fatal(err)
	}
	if !service.IsEnabled(ctx, featureflags.FlagDisableHotspots) {
		t.Error("expected cached value within TTL")
	}

	clock.Advance(2 * time.Minute)
	if service.IsEnabled(ctx, featureflags.FlagDisableHotspots) {
		t.Error("expected repository value after TTL")
	}
}

func TestService_InvalidateCache(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, nil)
	ctx := context.Background()

	_ = service.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagCachedOnlyFeeds, Value: true})
	_ = repo.DeleteFlag(ctx, featureflags.FlagCachedOnlyFeeds)

	service.InvalidateCache()
	if service.IsCachedOnlyFeeds(ctx) {
		t.Error("expected default after invalidation")
	}
}

func TestService_ResetFlag(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, nil)
	ctx := context.Background()

	if err := service.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagLowBandwidthMode, Value: true}); err != nil {
		t.Fatal(err)
	}
	if !service.IsLowBandwidth(ctx) {
		t.Fatal("expected override to apply")
	}

	if err := service.ResetFlag(ctx, featureflags.FlagLowBandwidthMode); err != nil {
		t.Fatalf("ResetFlag() error = %v", err)
	}
	if service.IsLowBandwidth(ctx) {
		t.Error("expected default after reset")
	}
	if _, err := repo.GetFlag(ctx, featureflags.FlagLowBandwidthMode); !errors.Is(err, featureflags.ErrFlagNotFound) {
		t.Errorf("expected override removed, got %v", err)
	}

	// Resetting again is a no-op.
	if err := service.ResetFlag(ctx, featureflags.FlagLowBandwidthMode); err != nil {
		t.Errorf("second ResetFlag() error = %v", err)
	}
}

func TestService_GetAllFlags(t *testing.T) {
	repo := featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{
		featureflags.FlagDisableHotspots: {Key: featureflags.FlagDisableHotspots, Value: true},
		"custom":                         {Key: "custom", Value: "x"},
	})
	service := newService(repo, nil)

	flags := service.GetAllFlags(context.Background())
	if len(flags) != 4 {
		t.Fatalf("expected 3 defaults plus 1 custom, got %d", len(flags))
	}
	if !flags[featureflags.FlagDisableHotspots].BoolValue(false) {
		t.Error("expected repository value to override default")
	}
	if flags["custom"].Value != "x" {
		t.Error("expected custom flag value")
	}
}

type failingRepo struct{ *featureflags.InMemoryRepository }

func (*failingRepo) GetFlag(context.Context, string) (*featureflags.Flag, error) {
	return nil, errors.New("db down")
}

func (*failingRepo) GetAllFlags(context.Context) (map[string]*featureflags.Flag, error) {
	return nil, errors.New("db down")
}

func TestService_FallbackToDefaults(t *testing.T) {
	service := newService(&failingRepo{featureflags.NewInMemoryRepository()}, nil)
	ctx := context.Background()

	if service.IsLowBandwidth(ctx) {
		t.Error("expected default false when repository fails")
	}
	if got := len(service.GetAllFlags(ctx)); got != 3 {
		t.Errorf("expected 3 default flags, got %d", got)
	}
}

func TestService_NilIsOff(t *testing.T) {
	var service *featureflags.Service
	if service.IsCachedOnlyFeeds(context.Background()) {
		t.Error("expected nil service to report flags off")
	}
}

func TestFlag_ValueHelpers(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"number", float64(1), true},
		{"zero", float64(0), false},
		{"string", "yes", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &featureflags.Flag{Value: tt.value}
			if got := f.BoolValue(false); got != tt.want {
				t.Errorf("BoolValue() = %v, want %v", got, tt.want)
			}
		})
	}

	var nilFlag *featureflags.Flag
	if !nilFlag.BoolValue(true) {
		t.Error("expected default from nil flag")
	}
}

func TestKnownFlags(t *testing.T) {
	keys := featureflags.Keys()
	want := []string{featureflags.FlagCachedOnlyFeeds, featureflags.FlagDisableHotspots, featureflags.FlagLowBandwidthMode}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v", keys)
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], k)
		}
		if featureflags.Describe(k) == "" {
			t.Errorf("%s has no description", k)
		}
		if !featureflags.IsKnown(k) {
			t.Errorf("IsKnown(%q) = false", k)
		}
	}
	if featureflags.IsKnown("route_everything") {
		t.Error("unexpected known flag")
	}

	for key, f := range featureflags.DefaultFlags() {
		if f.BoolValue(true) {
			t.Errorf("default %s should be off", key)
		}
	}
}

func TestInMemoryRepository_DeleteFlag(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.DeleteFlag(ctx, "missing"); !errors.Is(err, featureflags.ErrFlagNotFound) {
		t.Errorf("expected ErrFlagNotFound, got %v", err)
	}
	_ = repo.SetFlag(ctx, &featureflags.Flag{Key: "k", Value: true})
	if err := repo.DeleteFlag(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetFlag(ctx, "k"); !errors.Is(err, featureflags.ErrFlagNotFound) {
		t.Errorf("expected ErrFlagNotFound after delete, got %v", err)
	}
}
