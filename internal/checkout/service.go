package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/internal/cart"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/inventory"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/orders"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/referrals"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/users"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/enums"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/payments"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type linkCreator interface {
	CreateLink(ctx context.Context, req payments.CreateLinkRequest) (*payments.PaymentLink, error)
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.ReservationResult, error)
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.ReservationResult, error) {
	return inventory.Reserve(ctx, tx, requests)
}

// Result is one committed checkout. Lines are the persisted order rows;
// Quote carries the discount breakdown the user saw.
type Result struct {
	ReferenceID     string
	DeliveryDate    string
	CustomerName    string
	Address         string
	Pincode         string
	Lines           []models.Order
	Quote           referrals.Quote
	RedeemedCode    *string
	NewReferralCode string
	MilestoneIssuer string
	PaymentURL      string
}

// Service converts a cart into persisted orders inside one transaction:
// reserve stock, write order lines under a shared reference id, redeem any
// attached referral code, apply the tiered discount, clear the cart and
// issue the buyer a fresh code.
type Service struct {
	tx          txRunner
	usersRepo   *users.Repository
	cartRepo    *cart.Repository
	ordersRepo  *orders.Repository
	referralSvc *referrals.Service
	links       linkCreator
	reservation reservationRunner
	now         func() time.Time
}

// NewService builds the checkout orchestrator. links may be nil when online
// payment is disabled.
func NewService(
	tx txRunner,
	usersRepo *users.Repository,
	cartRepo *cart.Repository,
	ordersRepo *orders.Repository,
	referralSvc *referrals.Service,
	links linkCreator,
) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if referralSvc == nil {
		return nil, fmt.Errorf("referrals service required")
	}
	return &Service{
		tx:          tx,
		usersRepo:   usersRepo,
		cartRepo:    cartRepo,
		ordersRepo:  ordersRepo,
		referralSvc: referralSvc,
		links:       links,
		reservation: reservationEngine{},
		now:         time.Now,
	}, nil
}

// WithNow overrides the clock. Test hook.
func (s *Service) WithNow(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// DeliveryDate is the date all inventory and orders are scoped to: tomorrow
// relative to order time.
func (s *Service) DeliveryDate() string {
	return s.now().AddDate(0, 0, 1).Format("2006-01-02")
}

// NewReferenceID generates the id shared by every order line of one
// checkout.
func NewReferenceID() string {
	return "q9" + uuid.New().String()[:8]
}

// Execute runs the whole checkout for the user's current cart. All
// persistence happens in one transaction; a failure on any line rolls back
// every reservation and order row. For Pay Now the payment link is created
// after the transaction commits and the callback settles the orders later.
func (s *Service) Execute(ctx context.Context, phone string, method enums.PaymentMethod) (*Result, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	var result Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.usersRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)
		referralSvc := s.referralSvc.WithTx(tx)

		user, err := usersRepo.FindForUpdate(ctx, phone)
		if err != nil {
			return err
		}
		if user == nil || !user.HasName() || !user.HasAddress() || user.Pincode == nil || *user.Pincode == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name, address and pincode are required before checkout")
		}

		items, err := cartRepo.Items(ctx, phone)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no order details found, please select a combo to proceed")
		}

		deliveryDate := s.DeliveryDate()
		requests := make([]inventory.ReservationRequest, 0, len(items))
		for _, item := range items {
			requests = append(requests, inventory.ReservationRequest{
				Pincode:      *user.Pincode,
				DeliveryDate: deliveryDate,
				ComboID:      item.ComboID,
				ComboName:    item.ComboName,
				Qty:          item.Quantity,
			})
		}
		reservations, err := s.reservation.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}
		for _, res := range reservations {
			if !res.Reserved {
				return pkgerrors.New(pkgerrors.CodeConflict, res.Reason)
			}
		}

		referenceID := NewReferenceID()

		// The attached code is validated here, not at attach time, so a
		// code spent since then cannot be double-spent.
		flat := decimal.Zero
		var redeemable *models.ReferralCode
		if user.ActiveReferralCode != nil {
			redeemable, err = referralSvc.Validate(ctx, *user.ActiveReferralCode, phone)
			if err != nil {
				if pkgerrors.As(err) == nil {
					return err
				}
				redeemable = nil
			} else {
				flat = referralSvc.FlatDiscount()
			}
		}

		tier, err := referralSvc.TierFor(ctx, phone)
		if err != nil {
			return err
		}
		quote := referrals.ComputeQuote(cart.Subtotal(items), flat, tier)

		paymentStatus := enums.PaymentStatusPending
		if method == enums.PaymentMethodCOD {
			paymentStatus = enums.PaymentStatusCompleted
		}

		lines := make([]models.Order, 0, len(items))
		for _, item := range items {
			line := models.Order{
				ReferenceID:   referenceID,
				Phone:         phone,
				CustomerName:  *user.Name,
				ComboID:       item.ComboID,
				ComboName:     item.ComboName,
				UnitPrice:     item.UnitPrice,
				Quantity:      item.Quantity,
				LineAmount:    item.Subtotal(),
				ChargedTotal:  quote.Total,
				Address:       *user.Address,
				Pincode:       *user.Pincode,
				PaymentMethod: method,
				PaymentStatus: paymentStatus,
				OrderStatus:   enums.OrderStatusPlaced,
				DeliveryDate:  deliveryDate,
			}
			if redeemable != nil {
				code := redeemable.Code
				line.ReferralCode = &code
			}
			lines = append(lines, line)
		}
		if err := ordersRepo.CreateLines(ctx, lines); err != nil {
			return err
		}

		if redeemable != nil {
			outcome, err := referralSvc.Redeem(ctx, redeemable, phone, referenceID)
			if err != nil {
				return err
			}
			if err := usersRepo.AddLoyaltyPoints(ctx, redeemable.IssuerPhone, outcome.Reward.Points); err != nil {
				return err
			}
			code := redeemable.Code
			result.RedeemedCode = &code
			if outcome.MilestoneHit {
				result.MilestoneIssuer = redeemable.IssuerPhone
			}
		}

		if err := cartRepo.Clear(ctx, phone); err != nil {
			return err
		}

		fresh, err := referralSvc.Issue(ctx, phone)
		if err != nil {
			return err
		}

		user.Pincode = nil
		user.ActiveReferralCode = nil
		user.PaymentMethod = &method
		if method == enums.PaymentMethodPayNow {
			ref := referenceID
			user.PaymentReference = &ref
			user.State = enums.StatePaymentInProgress
		} else {
			user.PaymentReference = nil
			user.State = enums.StateIdle
		}
		if err := usersRepo.Save(ctx, user); err != nil {
			return err
		}

		result.ReferenceID = referenceID
		result.DeliveryDate = deliveryDate
		result.CustomerName = *user.Name
		result.Address = lines[0].Address
		result.Pincode = lines[0].Pincode
		result.Lines = lines
		result.Quote = quote
		result.NewReferralCode = fresh.Code
		return nil
	})
	if err != nil {
		return nil, err
	}

	if method == enums.PaymentMethodPayNow {
		if s.links == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "online payment is not configured")
		}
		link, err := s.links.CreateLink(ctx, payments.CreateLinkRequest{
			ReferenceID:   result.ReferenceID,
			Amount:        result.Quote.Total,
			Description:   "Balutedaar Vegetable Combo Order",
			CustomerName:  result.CustomerName,
			CustomerPhone: phone,
		})
		if err != nil {
			return nil, err
		}
		result.PaymentURL = link.ShortURL
	}
	return &result, nil
}
