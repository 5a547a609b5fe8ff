package controllers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/rushikeshnagarkar/balutedaar-app/api/responses"
	"github.com/rushikeshnagarkar/balutedaar-app/api/validators"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/inventory"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/orders"
	pkgauth "github.com/rushikeshnagarkar/balutedaar-app/pkg/auth"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
)

// AdminController serves the JSON admin surface: login, orders by delivery
// date, and inventory slot management for upcoming deliveries.
type AdminController struct {
	cfg        config.AdminConfig
	ordersRepo *orders.Repository
	invRepo    *inventory.Repository
	logg       *logger.Logger
	now        func() time.Time
}

// NewAdminController builds the admin controller.
func NewAdminController(cfg config.AdminConfig, ordersRepo *orders.Repository, invRepo *inventory.Repository, logg *logger.Logger) *AdminController {
	return &AdminController{
		cfg:        cfg,
		ordersRepo: ordersRepo,
		invRepo:    invRepo,
		logg:       logg,
		now:        time.Now,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Login exchanges admin credentials for a session token.
func (c *AdminController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(c.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(c.cfg.Password)) == 1
	if !userOK || !passOK {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
		return
	}

	issued := c.now()
	token, err := pkgauth.IssueAdminToken(c.cfg, req.Username, issued)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue token"))
		return
	}
	responses.WriteSuccess(w, loginResponse{
		Token:     token,
		ExpiresAt: issued.Add(c.cfg.SessionTTL).Format(time.RFC3339),
	})
}

type orderView struct {
	ReferenceID   string `json:"reference_id"`
	Phone         string `json:"phone"`
	CustomerName  string `json:"customer_name"`
	ComboID       string `json:"combo_id"`
	ComboName     string `json:"combo_name"`
	Quantity      int    `json:"quantity"`
	LineAmount    string `json:"line_amount"`
	ChargedTotal  string `json:"charged_total"`
	Address       string `json:"address"`
	Pincode       string `json:"pincode"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	OrderStatus   string `json:"order_status"`
	DeliveryDate  string `json:"delivery_date"`
}

// Orders lists orders for one delivery date, defaulting to tomorrow.
func (c *AdminController) Orders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := c.dateParam(r)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	lines, err := c.ordersRepo.ByDeliveryDate(ctx, date)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	views := make([]orderView, 0, len(lines))
	for _, line := range lines {
		views = append(views, orderView{
			ReferenceID:   line.ReferenceID,
			Phone:         line.Phone,
			CustomerName:  line.CustomerName,
			ComboID:       line.ComboID,
			ComboName:     line.ComboName,
			Quantity:      line.Quantity,
			LineAmount:    line.LineAmount.StringFixed(2),
			ChargedTotal:  line.ChargedTotal.StringFixed(2),
			Address:       line.Address,
			Pincode:       line.Pincode,
			PaymentMethod: string(line.PaymentMethod),
			PaymentStatus: string(line.PaymentStatus),
			OrderStatus:   string(line.OrderStatus),
			DeliveryDate:  line.DeliveryDate,
		})
	}
	responses.WriteSuccess(w, map[string]any{"date": date, "orders": views})
}

type slotView struct {
	Pincode      string `json:"pincode"`
	DeliveryDate string `json:"delivery_date"`
	ComboID      string `json:"combo_id"`
	TotalBoxes   int    `json:"total_boxes"`
	BookedBoxes  int    `json:"booked_boxes"`
	Remaining    int    `json:"remaining"`
}

// Inventory lists slots for one delivery date, defaulting to tomorrow.
func (c *AdminController) Inventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := c.dateParam(r)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	slots, err := c.invRepo.SlotsForDate(ctx, date)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	views := make([]slotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, slotView{
			Pincode:      slot.Pincode,
			DeliveryDate: slot.DeliveryDate,
			ComboID:      slot.ComboID,
			TotalBoxes:   slot.TotalBoxes,
			BookedBoxes:  slot.BookedBoxes,
			Remaining:    slot.Remaining(),
		})
	}
	responses.WriteSuccess(w, map[string]any{"date": date, "slots": views})
}

type upsertSlotRequest struct {
	Pincode      string `json:"pincode" validate:"required,len=6,numeric"`
	ComboID      string `json:"combo_id" validate:"required"`
	DeliveryDate string `json:"delivery_date"`
	TotalBoxes   int    `json:"total_boxes" validate:"min=0"`
}

// UpsertInventory sets total stock for one slot; the delivery date defaults
// to tomorrow. Booked counts are never overwritten.
func (c *AdminController) UpsertInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req upsertSlotRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	date := req.DeliveryDate
	if date == "" {
		date = c.tomorrow()
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "delivery_date must be YYYY-MM-DD"))
		return
	}

	slot := &models.InventorySlot{
		Pincode:      req.Pincode,
		DeliveryDate: date,
		ComboID:      req.ComboID,
		TotalBoxes:   req.TotalBoxes,
	}
	if err := c.invRepo.Upsert(ctx, slot); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, http.StatusOK, slotView{
		Pincode:      slot.Pincode,
		DeliveryDate: slot.DeliveryDate,
		ComboID:      slot.ComboID,
		TotalBoxes:   slot.TotalBoxes,
		BookedBoxes:  slot.BookedBoxes,
		Remaining:    slot.Remaining(),
	})
}

func (c *AdminController) dateParam(r *http.Request) (string, error) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return c.tomorrow(), nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD")
	}
	return date, nil
}

func (c *AdminController) tomorrow() string {
	return c.now().AddDate(0, 0, 1).Format("2006-01-02")
}
