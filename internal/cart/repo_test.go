package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
)

func TestReplaceIsTotal(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	phone := "919876500001"

	first := []models.CartItem{
		{Phone: phone, ComboID: "A-9011", ComboName: "Methi Combo", Quantity: 2, UnitPrice: decimal.NewFromInt(1)},
		{Phone: phone, ComboID: "B-9011", ComboName: "Kanda Paat Combo", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
	}
	if err := repo.Replace(ctx, phone, first); err != nil {
		t.Fatalf("replace: %v", err)
	}

	second := []models.CartItem{
		{Phone: phone, ComboID: "C-9011", ComboName: "Palak Combo", Quantity: 3, UnitPrice: decimal.NewFromInt(1)},
	}
	if err := repo.Replace(ctx, phone, second); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	items, err := repo.Items(ctx, phone)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected earlier selection to be dropped, got %d items", len(items))
	}
	if items[0].ComboID != "C-9011" || items[0].Quantity != 3 {
		t.Fatalf("unexpected item: %+v", items[0])
	}
}

func TestReplaceEmptyClearsCart(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	phone := "919876500001"

	if err := repo.Replace(ctx, phone, []models.CartItem{
		{Phone: phone, ComboID: "A-9011", ComboName: "Methi Combo", Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
	}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := repo.Replace(ctx, phone, nil); err != nil {
		t.Fatalf("replace with empty: %v", err)
	}

	items, err := repo.Items(ctx, phone)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(items))
	}
}

func TestSubtotal(t *testing.T) {
	t.Parallel()

	items := []models.CartItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("150.50")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("199.00")},
	}
	if got := Subtotal(items).StringFixed(2); got != "500.00" {
		t.Fatalf("subtotal = %s, want 500.00", got)
	}
	if !Subtotal(nil).IsZero() {
		t.Fatal("empty cart subtotal must be zero")
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.CartItem{}); err != nil {
		t.Fatalf("migrate cart: %v", err)
	}
	return db
}
