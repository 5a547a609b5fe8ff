package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
)

func TestReserve(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	for _, slot := range []models.InventorySlot{
		{Pincode: "411038", DeliveryDate: "2026-02-01", ComboID: "A-9011", TotalBoxes: 5},
		{Pincode: "411038", DeliveryDate: "2026-02-01", ComboID: "B-9011", TotalBoxes: 1},
	} {
		if err := db.Create(&slot).Error; err != nil {
			t.Fatalf("seed inventory: %v", err)
		}
	}

	requests := []ReservationRequest{
		{Pincode: "411038", DeliveryDate: "2026-02-01", ComboID: "A-9011", ComboName: "Methi Combo", Qty: 3},
		{Pincode: "411038", DeliveryDate: "2026-02-01", ComboID: "A-9011", ComboName: "Methi Combo", Qty: 4},
		{Pincode: "411038", DeliveryDate: "2026-02-01", ComboID: "B-9011", ComboName: "Kanda Paat Combo", Qty: 1},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := Reserve(ctx, tx, requests)
		if terr != nil {
			return terr
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if !results[0].Reserved || results[0].Reason != "" {
			t.Fatalf("expected first reservation to succeed: %+v", results[0])
		}
		if results[1].Reserved || results[1].Reason == "" {
			t.Fatalf("expected second reservation to fail with reason: %+v", results[1])
		}
		if !results[2].Reserved {
			t.Fatalf("expected third reservation to succeed: %+v", results[2])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	var slotA, slotB models.InventorySlot
	if err := db.First(&slotA, "combo_id = ?", "A-9011").Error; err != nil {
		t.Fatalf("load slot a: %v", err)
	}
	if err := db.First(&slotB, "combo_id = ?", "B-9011").Error; err != nil {
		t.Fatalf("load slot b: %v", err)
	}
	if slotA.BookedBoxes != 3 || slotA.Remaining() != 2 {
		t.Fatalf("unexpected slot a state: %+v", slotA)
	}
	if slotB.BookedBoxes != 1 || slotB.Remaining() != 0 {
		t.Fatalf("unexpected slot b state: %+v", slotB)
	}
}

func TestReserveMissingSlot(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	results, err := Reserve(context.Background(), db, []ReservationRequest{
		{Pincode: "411052", DeliveryDate: "2026-02-01", ComboID: "C-9011", ComboName: "Palak Combo", Qty: 1},
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if results[0].Reserved || results[0].Reason == "" {
		t.Fatalf("expected reservation against missing slot to fail: %+v", results[0])
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.Create(&models.InventorySlot{
		Pincode: "411038", DeliveryDate: "2026-02-01", ComboID: "A-9011", TotalBoxes: 5,
	}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	_, err := Reserve(context.Background(), db, []ReservationRequest{
		{Pincode: "411038", DeliveryDate: "2026-02-01", ComboID: "A-9011", Qty: 0},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRepositoryRemainingAndUpsert(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	remaining, err := repo.Remaining(ctx, "411041", "2026-02-01", "E-9011")
	if err != nil {
		t.Fatalf("remaining for missing slot: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining for missing slot, got %d", remaining)
	}

	slot := &models.InventorySlot{Pincode: "411041", DeliveryDate: "2026-02-01", ComboID: "E-9011", TotalBoxes: 10}
	if err := repo.Upsert(ctx, slot); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if _, err := Reserve(ctx, db, []ReservationRequest{
		{Pincode: "411041", DeliveryDate: "2026-02-01", ComboID: "E-9011", ComboName: "Dill Combo", Qty: 4},
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// A restock updates totals but must not touch booked counts.
	slot.TotalBoxes = 12
	if err := repo.Upsert(ctx, slot); err != nil {
		t.Fatalf("restock upsert: %v", err)
	}

	remaining, err = repo.Remaining(ctx, "411041", "2026-02-01", "E-9011")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 8 {
		t.Fatalf("expected 8 remaining after restock, got %d", remaining)
	}

	slots, err := repo.SlotsForDate(ctx, "2026-02-01")
	if err != nil {
		t.Fatalf("slots for date: %v", err)
	}
	if len(slots) != 1 || slots[0].BookedBoxes != 4 {
		t.Fatalf("unexpected slots: %+v", slots)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.InventorySlot{}); err != nil {
		t.Fatalf("migrate inventory: %v", err)
	}
	return db
}
