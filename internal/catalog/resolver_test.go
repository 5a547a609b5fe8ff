package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Combo{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestResolvePrefersDynamicRow(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	row := models.Combo{ComboID: "A-9011", Name: "Monsoon Methi Combo", Price: decimal.RequireFromString("149.00")}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed combo: %v", err)
	}

	entry := NewResolver(conn).Resolve(ctx, "A-9011")
	if entry.Name != "Monsoon Methi Combo" {
		t.Fatalf("Name = %q, want the dynamic row", entry.Name)
	}
	if entry.Price.StringFixed(2) != "149.00" {
		t.Fatalf("Price = %s, want 149.00", entry.Price.StringFixed(2))
	}
	if !entry.Sellable() {
		t.Fatal("dynamic entry should be sellable")
	}
}

func TestResolveFallsBackToStaticCatalog(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	entry := NewResolver(conn).Resolve(context.Background(), "A-9011")
	if entry.Name != "Methi Combo" {
		t.Fatalf("Name = %q, want the fallback entry", entry.Name)
	}
	if !entry.Sellable() {
		t.Fatal("fallback entry should be sellable")
	}
}

func TestResolveUnknownIDYieldsSentinel(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	entry := NewResolver(conn).Resolve(context.Background(), "Z-0000")
	if entry.Name != UnknownComboName {
		t.Fatalf("Name = %q, want %q", entry.Name, UnknownComboName)
	}
	if entry.Sellable() {
		t.Fatal("sentinel entry must not be sellable")
	}
	if !entry.Price.IsZero() {
		t.Fatalf("Price = %s, want zero", entry.Price)
	}
}

func TestComboIDsMergesDynamicAndFallback(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	seed := []models.Combo{
		{ComboID: "F-1001", Name: "Seasonal Combo", Price: decimal.RequireFromString("99.00")},
		{ComboID: "A-9011", Name: "Methi Combo", Price: decimal.RequireFromString("149.00")},
	}
	for i := range seed {
		if err := conn.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed combo: %v", err)
		}
	}

	ids := NewResolver(conn).ComboIDs(ctx)
	if len(ids) != 9 {
		t.Fatalf("len(ids) = %d, want 9 (2 dynamic + 7 fallback after dedupe)", len(ids))
	}
	if ids[0] != "A-9011" || ids[1] != "F-1001" {
		t.Fatalf("dynamic ids should lead in id order, got %v", ids[:2])
	}
	seen := make(map[string]int)
	for _, id := range ids {
		seen[id]++
	}
	if seen["A-9011"] != 1 {
		t.Fatalf("A-9011 appears %d times, want 1", seen["A-9011"])
	}
	if seen["xzwqdyrcl9"] != 1 || seen["D-9011"] != 1 {
		t.Fatalf("fallback ids missing from %v", ids)
	}
}
