package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/internal/orders"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/enums"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
)

type fakeNudgeSender struct {
	sent []string
	fail map[string]error
}

func (f *fakeNudgeSender) SendText(ctx context.Context, to, body, tag string) error {
	if err, ok := f.fail[to]; ok {
		return err
	}
	f.sent = append(f.sent, to)
	return nil
}

func newNudgeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cron_nudge_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Order{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedPendingLine(t *testing.T, conn *gorm.DB, referenceID, phone string, age time.Duration) {
	t.Helper()
	line := models.Order{
		ReferenceID:   referenceID,
		Phone:         phone,
		CustomerName:  "Rushikesh",
		ComboID:       "A-9011",
		ComboName:     "Methi Combo",
		UnitPrice:     decimal.RequireFromString("199.00"),
		Quantity:      1,
		LineAmount:    decimal.RequireFromString("199.00"),
		ChargedTotal:  decimal.RequireFromString("199.00"),
		Address:       "Flat 4, Sahyadri Society, Kothrud, Pune 411038",
		Pincode:       "411038",
		PaymentMethod: enums.PaymentMethodPayNow,
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusPlaced,
		DeliveryDate:  "2026-09-01",
		CreatedAt:     time.Now().Add(-age),
	}
	if err := conn.Create(&line).Error; err != nil {
		t.Fatalf("seed order line: %v", err)
	}
}

func TestPaymentNudgeJobDedupesByReference(t *testing.T) {
	t.Parallel()

	conn := newNudgeTestDB(t)
	// two lines of the same checkout and one fresh order that must be
	// left alone
	seedPendingLine(t, conn, "q9aaaa1111", "919876500001", 3*time.Hour)
	seedPendingLine(t, conn, "q9aaaa1111", "919876500001", 3*time.Hour)
	seedPendingLine(t, conn, "q9bbbb2222", "919876500002", 10*time.Minute)

	sender := &fakeNudgeSender{}
	job, err := NewPaymentNudgeJob(logger.New(logger.Options{ServiceName: "cron-test"}), orders.NewRepository(conn), sender, 2*time.Hour)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 reminder, sent %d", len(sender.sent))
	}
	if sender.sent[0] != "919876500001" {
		t.Fatalf("reminder went to %s", sender.sent[0])
	}
}

func TestPaymentNudgeJobAggregatesSendFailures(t *testing.T) {
	t.Parallel()

	conn := newNudgeTestDB(t)
	seedPendingLine(t, conn, "q9cccc3333", "919876500003", 4*time.Hour)
	seedPendingLine(t, conn, "q9dddd4444", "919876500004", 4*time.Hour)

	sender := &fakeNudgeSender{fail: map[string]error{"919876500003": errors.New("number unreachable")}}
	job, err := NewPaymentNudgeJob(logger.New(logger.Options{ServiceName: "cron-test"}), orders.NewRepository(conn), sender, 2*time.Hour)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected an aggregated error")
	}
	if len(sender.sent) != 1 || sender.sent[0] != "919876500004" {
		t.Fatalf("healthy recipient should still be nudged, sent %v", sender.sent)
	}
}
