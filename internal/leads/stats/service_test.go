package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mattosconsultor/humano-saude/internal/leads/repository"
	"github.com/mattosconsultor/humano-saude/platform/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeAggregates struct {
	stats     repository.DashboardStats
	statsErr  error
	providers []repository.ProviderCount
	funnel    []repository.FunnelRow
	err       error

	dashboardCalls int
}

func (f *fakeAggregates) DashboardStats(context.Context) (repository.DashboardStats, error) {
	f.dashboardCalls++
	if f.statsErr != nil {
		return repository.DashboardStats{}, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeAggregates) LeadsByProvider(context.Context) ([]repository.ProviderCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.providers, nil
}

func (f *fakeAggregates) PipelineFunnel(context.Context) ([]repository.FunnelRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.funnel, nil
}

func TestDashboardForwardsViewRow(t *testing.T) {
	store := &fakeAggregates{stats: repository.DashboardStats{
		TotalLeads:     12,
		LeadsByStatus:  map[string]int64{"new": 5, "won": 2},
		ConversionRate: 28.57,
	}}
	svc := New(store, nil, 0, nil)

	stats, available, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !available {
		t.Fatal("expected stats to be available")
	}
	if stats.TotalLeads != 12 || stats.LeadsByStatus["won"] != 2 {
		t.Fatalf("stats not forwarded verbatim: %+v", stats)
	}
}

func TestDashboardEmptyViewIsUnavailableNotError(t *testing.T) {
	store := &fakeAggregates{statsErr: repository.ErrNotFound}
	svc := New(store, nil, 0, nil)

	_, available, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("empty view must not be an error, got %v", err)
	}
	if available {
		t.Fatal("empty view should report unavailable")
	}
}

func TestDashboardNotConnected(t *testing.T) {
	store := &fakeAggregates{statsErr: repository.ErrNotConnected}
	svc := New(store, nil, 0, nil)

	_, _, err := svc.Dashboard(context.Background())
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestFunnelPassthrough(t *testing.T) {
	store := &fakeAggregates{funnel: []repository.FunnelRow{
		{Status: "new", Count: 7, TotalValue: 6300, PercentOfFunnel: 70},
		{Status: "won", Count: 3, TotalValue: 2850, PercentOfFunnel: 30},
	}}
	svc := New(store, nil, 0, nil)

	rows, err := svc.Funnel(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].Status != "new" || rows[1].Count != 3 {
		t.Fatalf("funnel rows not forwarded verbatim: %+v", rows)
	}
}

func TestDashboardCacheReadThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	store := &fakeAggregates{stats: repository.DashboardStats{
		TotalLeads:     9,
		ConversionRate: 33.33,
	}}
	svc := New(store, cache, 30*time.Second, nil)

	first, ok, err := svc.Dashboard(context.Background())
	if err != nil || !ok {
		t.Fatalf("first read: ok=%v err=%v", ok, err)
	}
	if store.dashboardCalls != 1 {
		t.Fatalf("store calls = %d, want 1", store.dashboardCalls)
	}

	second, ok, err := svc.Dashboard(context.Background())
	if err != nil || !ok {
		t.Fatalf("cached read: ok=%v err=%v", ok, err)
	}
	if store.dashboardCalls != 1 {
		t.Fatalf("cached read hit the store, calls = %d", store.dashboardCalls)
	}
	if second.TotalLeads != first.TotalLeads || second.ConversionRate != first.ConversionRate {
		t.Fatalf("cached row differs: %+v vs %+v", second, first)
	}

	mr.FastForward(31 * time.Second)

	if _, _, err := svc.Dashboard(context.Background()); err != nil {
		t.Fatalf("read after expiry: %v", err)
	}
	if store.dashboardCalls != 2 {
		t.Fatalf("expired entry must refetch from the store, calls = %d", store.dashboardCalls)
	}
}

func TestDashboardCorruptCacheEntryFallsBackToStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()
	mr.Set("humano:dashboard_stats", "{not json")

	store := &fakeAggregates{stats: repository.DashboardStats{TotalLeads: 4}}
	svc := New(store, cache, 30*time.Second, nil)

	stats, ok, err := svc.Dashboard(context.Background())
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if stats.TotalLeads != 4 || store.dashboardCalls != 1 {
		t.Fatalf("corrupt cache entry must be treated as a miss: %+v calls=%d", stats, store.dashboardCalls)
	}
}

func TestByProviderWrapsStoreFailure(t *testing.T) {
	store := &fakeAggregates{err: errors.New("socket closed")}
	svc := New(store, nil, 0, nil)

	_, err := svc.ByProvider(context.Background())
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
