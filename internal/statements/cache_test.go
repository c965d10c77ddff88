package statements

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	_ "github.com/ledgerline/ledgerline/testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheServesSecondBuildWithoutLoader(t *testing.T) {
	cache := newTestCache(t)
	source := &fakeSource{lines: []AccountLine{
		bsLine("1000", "Cash", AccountTypeAsset, "1000"),
	}}
	svc := NewBalanceSheetService(source, cache)

	first, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf})
	if err != nil {
		t.Fatalf("cached Build() error = %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one source call got %d", source.calls)
	}
	if !first.TotalAssets.Equal(second.TotalAssets) {
		t.Fatalf("cached report differs: %s vs %s", first.TotalAssets, second.TotalAssets)
	}
}

func TestCacheBumpInvalidates(t *testing.T) {
	cache := newTestCache(t)
	source := &fakeSource{lines: []AccountLine{
		bsLine("1000", "Cash", AccountTypeAsset, "1000"),
	}}
	svc := NewBalanceSheetService(source, cache)

	if _, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := cache.Bump(context.Background()); err != nil {
		t.Fatalf("Bump() error = %v", err)
	}
	if _, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf}); err != nil {
		t.Fatalf("Build() after bump error = %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected reload after bump, source calls = %d", source.calls)
	}
}

func TestNilCacheRunsLoaderEveryTime(t *testing.T) {
	source := &fakeSource{lines: []AccountLine{
		bsLine("1000", "Cash", AccountTypeAsset, "1000"),
	}}
	svc := NewBalanceSheetService(source, nil)
	for i := 0; i < 2; i++ {
		if _, err := svc.Build(context.Background(), tenantID, BalanceSheetFilters{AsOf: asOf}); err != nil {
			t.Fatalf("Build() error = %v", err)
		}
	}
	if source.calls != 2 {
		t.Fatalf("expected loader on every build without cache, got %d calls", source.calls)
	}
}
