package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/internal/orders"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/users"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/enums"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/payments"
)

type staticVerifier struct {
	ok bool
}

func (v staticVerifier) VerifySignature(payments.CallbackParams) bool {
	return v.ok
}

type recordingNotifier struct {
	sent []string
}

func (n *recordingNotifier) SendText(ctx context.Context, to, body, tag string) error {
	n.sent = append(n.sent, body)
	return nil
}

type fixture struct {
	svc    *Service
	conn   *gorm.DB
	users  *users.Repository
	orders *orders.Repository
	notify *recordingNotifier
}

func newFixture(t *testing.T, verifierOK bool) *fixture {
	t.Helper()

	dsn := "file:paymentwebhook_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Order{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	usersRepo := users.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	notify := &recordingNotifier{}
	svc, err := NewService(db.NewWithConn(conn), ordersRepo, usersRepo, staticVerifier{ok: verifierOK}, notify, nil, nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return &fixture{svc: svc, conn: conn, users: usersRepo, orders: ordersRepo, notify: notify}
}

func (f *fixture) seedPendingOrder(t *testing.T, referenceID, phone string) {
	t.Helper()
	ctx := context.Background()

	user, err := f.users.Create(ctx, phone, enums.StatePaymentInProgress)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	name := "Rushikesh"
	method := enums.PaymentMethodPayNow
	ref := referenceID
	user.Name = &name
	user.PaymentMethod = &method
	user.PaymentReference = &ref
	if err := f.users.Save(ctx, user); err != nil {
		t.Fatalf("save user: %v", err)
	}

	if err := f.orders.CreateLines(ctx, []models.Order{{
		ReferenceID:   referenceID,
		Phone:         phone,
		CustomerName:  name,
		ComboID:       "A-9011",
		ComboName:     "Methi Combo",
		UnitPrice:     decimal.NewFromInt(199),
		Quantity:      1,
		LineAmount:    decimal.NewFromInt(199),
		ChargedTotal:  decimal.NewFromInt(199),
		Address:       "Flat 4, Sahyadri Society, Kothrud, Pune 411038",
		Pincode:       "411038",
		PaymentMethod: method,
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusPlaced,
		DeliveryDate:  "2026-02-01",
	}}); err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func paidParams(referenceID string) payments.CallbackParams {
	return payments.CallbackParams{
		PaymentID:   "pay_test",
		LinkID:      "plink_test",
		ReferenceID: referenceID,
		Status:      "paid",
		Signature:   "sig",
	}
}

func TestReconcileSettles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()
	f.seedPendingOrder(t, "q9aaaa0001", "919876500001")

	outcome, err := f.svc.Reconcile(ctx, paidParams("q9aaaa0001"))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !outcome.Settled || outcome.Failed {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	lines, err := f.orders.FindByReference(ctx, "q9aaaa0001")
	if err != nil {
		t.Fatalf("load lines: %v", err)
	}
	if lines[0].PaymentStatus != enums.PaymentStatusCompleted || lines[0].OrderStatus != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected line: %+v", lines[0])
	}

	user, err := f.users.FindByPhone(ctx, "919876500001")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.State != enums.StateIdle || user.PaymentReference != nil {
		t.Fatalf("user must be released: %+v", user)
	}

	if len(f.notify.sent) != 1 || !strings.Contains(f.notify.sent[0], "Your order is confirmed") {
		t.Fatalf("expected one confirmation, got %+v", f.notify.sent)
	}
}

func TestReconcileReplayIsNoOp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()
	f.seedPendingOrder(t, "q9aaaa0001", "919876500001")

	if _, err := f.svc.Reconcile(ctx, paidParams("q9aaaa0001")); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	outcome, err := f.svc.Reconcile(ctx, paidParams("q9aaaa0001"))
	if err != nil {
		t.Fatalf("replay reconcile: %v", err)
	}
	if outcome.Settled {
		t.Fatal("replay must not settle again")
	}
	if len(f.notify.sent) != 1 {
		t.Fatalf("replay must not re-notify, got %d sends", len(f.notify.sent))
	}
}

func TestReconcileBadSignature(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.seedPendingOrder(t, "q9aaaa0001", "919876500001")

	_, err := f.svc.Reconcile(context.Background(), paidParams("q9aaaa0001"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	lines, lerr := f.orders.FindByReference(context.Background(), "q9aaaa0001")
	if lerr != nil {
		t.Fatalf("load lines: %v", lerr)
	}
	if lines[0].PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("bad signature must not settle, got %s", lines[0].PaymentStatus)
	}
}

func TestReconcileUnknownReference(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	_, err := f.svc.Reconcile(context.Background(), paidParams("q9missing1"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReconcileFailedPayment(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()
	f.seedPendingOrder(t, "q9aaaa0001", "919876500001")

	params := paidParams("q9aaaa0001")
	params.Status = "cancelled"
	outcome, err := f.svc.Reconcile(ctx, params)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !outcome.Failed || outcome.Settled {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	lines, err := f.orders.FindByReference(ctx, "q9aaaa0001")
	if err != nil {
		t.Fatalf("load lines: %v", err)
	}
	if lines[0].PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected failed lines, got %s", lines[0].PaymentStatus)
	}

	user, err := f.users.FindByPhone(ctx, "919876500001")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.State != enums.StateIdle {
		t.Fatalf("user must be released on failure, got %s", user.State)
	}
	if len(f.notify.sent) != 1 || !strings.Contains(f.notify.sent[0], "was not completed") {
		t.Fatalf("expected failure notice, got %+v", f.notify.sent)
	}

	// A late paid callback for the same reference cannot resurrect it.
	outcome, err = f.svc.Reconcile(ctx, paidParams("q9aaaa0001"))
	if err != nil {
		t.Fatalf("late paid callback: %v", err)
	}
	if outcome.Settled {
		t.Fatal("failed reference must not settle afterwards")
	}
}

func TestReconcileMissingReference(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	_, err := f.svc.Reconcile(context.Background(), payments.CallbackParams{Status: "paid"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
