package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rushikeshnagarkar/balutedaar-app/internal/cart"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/catalog"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/checkout"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/inventory"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/referrals"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/users"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/db/models"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/enums"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/gateway"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/metrics"
)

// Sender delivers outbound messages. Delivery is best-effort and happens
// after the transition transaction commits.
type Sender interface {
	SendText(ctx context.Context, to, body, tag string) error
	SendOrderActions(ctx context.Context, to, body string) error
	SendPaymentOptions(ctx context.Context, to, body string) error
	SendAddressOptions(ctx context.Context, to, body string) error
	SendCatalog(ctx context.Context, to, catalogID string, productIDs []string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type checkoutRunner interface {
	Execute(ctx context.Context, phone string, method enums.PaymentMethod) (*checkout.Result, error)
	DeliveryDate() string
}

// Config is the conversation-facing slice of app configuration.
type Config struct {
	CatalogID string
	Pincodes  []string
}

type sendFn func(ctx context.Context) error

// Service is the per-user conversation state machine. Each inbound event is
// one transaction against the locked user row; outbound sends are queued
// during the transition and flushed after commit.
type Service struct {
	tx          txRunner
	usersRepo   *users.Repository
	cartRepo    *cart.Repository
	resolver    *catalog.Resolver
	invRepo     *inventory.Repository
	referralSvc *referrals.Service
	checkoutSvc checkoutRunner
	sender      Sender
	cfg         Config
	botMetrics  *metrics.BotMetrics
	logg        *logger.Logger
}

// NewService builds the state machine.
func NewService(
	tx txRunner,
	usersRepo *users.Repository,
	cartRepo *cart.Repository,
	resolver *catalog.Resolver,
	invRepo *inventory.Repository,
	referralSvc *referrals.Service,
	checkoutSvc checkoutRunner,
	sender Sender,
	cfg Config,
	botMetrics *metrics.BotMetrics,
	logg *logger.Logger,
) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if usersRepo == nil || cartRepo == nil || resolver == nil || invRepo == nil {
		return nil, fmt.Errorf("repositories required")
	}
	if referralSvc == nil {
		return nil, fmt.Errorf("referrals service required")
	}
	if checkoutSvc == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender required")
	}
	if cfg.CatalogID == "" {
		return nil, fmt.Errorf("catalog id required")
	}
	if len(cfg.Pincodes) == 0 {
		return nil, fmt.Errorf("service pincodes required")
	}
	if botMetrics == nil {
		botMetrics = metrics.NewBotMetrics(nil)
	}
	return &Service{
		tx:          tx,
		usersRepo:   usersRepo,
		cartRepo:    cartRepo,
		resolver:    resolver,
		invRepo:     invRepo,
		referralSvc: referralSvc,
		checkoutSvc: checkoutSvc,
		sender:      sender,
		cfg:         cfg,
		botMetrics:  botMetrics,
		logg:        logg,
	}, nil
}

// HandleEvent processes one inbound event. Business failures are translated
// into user-facing messages; the returned error is reserved for malformed
// input the webhook should reject.
func (s *Service) HandleEvent(ctx context.Context, ev Event) error {
	if ev.Kind == KindUnknown {
		return nil
	}
	if len(ev.From) != 12 {
		s.logError(ctx, "skipping event with unexpected phone length", nil)
		return nil
	}
	if s.logg != nil {
		ctx = s.logg.WithPhone(ctx, ev.From)
	}
	s.botMetrics.IncInbound(string(ev.Kind))
	started := time.Now()

	// Checkout commits its own transaction, so the payment-method reply is
	// dispatched outside the per-transition one.
	if s.isCheckoutReply(ctx, ev) {
		s.handleCheckout(ctx, ev)
		s.botMetrics.ObserveTransition(string(enums.StateAwaitingPayment), time.Since(started))
		return nil
	}

	var sends []sendFn
	var state enums.ConversationState
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sends = sends[:0]
		var terr error
		state, sends, terr = s.transition(ctx, tx, ev)
		return terr
	})
	if err != nil {
		s.logError(ctx, "conversation transition failed", err)
		s.sendBestEffort(ctx, func(c context.Context) error {
			return s.sender.SendText(c, ev.From, genericRetryMessage, gateway.TagFallback)
		})
		return nil
	}

	s.flush(ctx, sends)
	s.botMetrics.ObserveTransition(string(state), time.Since(started))
	return nil
}

func (s *Service) isCheckoutReply(ctx context.Context, ev Event) bool {
	if ev.Kind != KindListReply || (ev.ReplyID != gateway.ReplyCOD && ev.ReplyID != gateway.ReplyPayNow) {
		return false
	}
	user, err := s.usersRepo.FindByPhone(ctx, ev.From)
	if err != nil {
		return false
	}
	return user.State == enums.StateAwaitingPayment
}

// transition dispatches the event against the locked user row and returns
// the sends to flush after commit.
func (s *Service) transition(ctx context.Context, tx *gorm.DB, ev Event) (enums.ConversationState, []sendFn, error) {
	usersRepo := s.usersRepo.WithTx(tx)
	user, err := usersRepo.FindForUpdate(ctx, ev.From)
	if err != nil {
		return "", nil, err
	}

	input := ev.ReplyInput()
	if ev.Kind == KindText && IsGreeting(input) {
		return s.handleGreeting(ctx, tx, usersRepo, user, ev)
	}
	if user == nil {
		// Unknown sender, not greeting: nudge them to start.
		return enums.StateNew, []sendFn{s.text(ev.From, fallbackMessage, gateway.TagFallback)}, nil
	}

	switch user.State {
	case enums.StateNew, enums.StateAwaitingName:
		return s.handleName(ctx, usersRepo, user, ev)
	case enums.StateAwaitingPincode:
		return s.handlePincode(ctx, usersRepo, user, ev)
	case enums.StateAwaitingReferralCode:
		if ev.Kind == KindCatalogOrder {
			return s.handleCatalogOrder(ctx, tx, usersRepo, user, ev)
		}
		return s.handleReferralCode(ctx, tx, usersRepo, user, ev)
	case enums.StateBrowsingCatalog:
		if ev.Kind == KindCatalogOrder {
			return s.handleCatalogOrder(ctx, tx, usersRepo, user, ev)
		}
		return user.State, []sendFn{s.text(user.Phone, fallbackMessage, gateway.TagFallback)}, nil
	case enums.StateAwaitingAddressChoice:
		return s.handleAddressChoice(ctx, tx, usersRepo, user, ev)
	case enums.StateAwaitingAddress:
		return s.handleAddress(ctx, tx, usersRepo, user, ev)
	case enums.StateAwaitingOrderConfirm:
		return s.handleOrderConfirm(ctx, tx, usersRepo, user, input)
	default:
		// awaiting_payment with a non-payment reply, payment_in_progress,
		// idle: no state change.
		return user.State, []sendFn{s.text(user.Phone, fallbackMessage, gateway.TagFallback)}, nil
	}
}

func (s *Service) handleGreeting(ctx context.Context, tx *gorm.DB, usersRepo *users.Repository, user *models.User, ev Event) (enums.ConversationState, []sendFn, error) {
	if user == nil {
		state := enums.StateAwaitingName
		var name *string
		if ValidName(ev.ProfileName) {
			n := ev.ProfileName
			name = &n
			state = enums.StateAwaitingPincode
		}
		created, err := usersRepo.Create(ctx, ev.From, state)
		if err != nil {
			return "", nil, err
		}
		if name != nil {
			created.Name = name
			if err := usersRepo.Save(ctx, created); err != nil {
				return "", nil, err
			}
			return state, []sendFn{s.text(ev.From, pincodePrompt(*name), gateway.TagGreeting)}, nil
		}
		return state, []sendFn{s.text(ev.From, welcomeMessage, gateway.TagGreeting)}, nil
	}

	if user.HasName() {
		// Returning user: order-scoped state is wiped, identity survives.
		if err := s.cartRepo.WithTx(tx).Clear(ctx, user.Phone); err != nil {
			return "", nil, err
		}
		user.State = enums.StateAwaitingPincode
		if err := usersRepo.ResetForNewOrder(ctx, user, false); err != nil {
			return "", nil, err
		}
		return user.State, []sendFn{s.text(user.Phone, pincodePrompt(*user.Name), gateway.TagGreeting)}, nil
	}

	user.State = enums.StateAwaitingName
	if err := usersRepo.Save(ctx, user); err != nil {
		return "", nil, err
	}
	return user.State, []sendFn{s.text(user.Phone, welcomeMessage, gateway.TagGreeting)}, nil
}

func (s *Service) handleName(ctx context.Context, usersRepo *users.Repository, user *models.User, ev Event) (enums.ConversationState, []sendFn, error) {
	input := ev.ReplyInput()
	if ev.Kind != KindText || !ValidName(input) {
		return user.State, []sendFn{s.text(user.Phone, invalidNameMessage, gateway.TagFallback)}, nil
	}
	user.Name = &input
	user.State = enums.StateAwaitingPincode
	if err := usersRepo.Save(ctx, user); err != nil {
		return "", nil, err
	}
	return user.State, []sendFn{s.text(user.Phone, pincodePrompt(input), gateway.TagGreeting)}, nil
}

func (s *Service) handlePincode(ctx context.Context, usersRepo *users.Repository, user *models.User, ev Event) (enums.ConversationState, []sendFn, error) {
	input := ev.ReplyInput()
	if !ValidPincodeFormat(input) {
		return user.State, []sendFn{s.text(user.Phone, invalidPincodeMessage, gateway.TagFallback)}, nil
	}
	if !s.servesPincode(input) {
		return user.State, []sendFn{s.text(user.Phone, unservedPincodeMessage(s.cfg.Pincodes), gateway.TagFallback)}, nil
	}
	user.Pincode = &input
	user.State = enums.StateAwaitingReferralCode
	if err := usersRepo.Save(ctx, user); err != nil {
		return "", nil, err
	}
	return user.State, []sendFn{
		s.catalogSend(user.Phone),
		s.text(user.Phone, askReferralMessage, gateway.TagReferral),
	}, nil
}

func (s *Service) handleReferralCode(ctx context.Context, tx *gorm.DB, usersRepo *users.Repository, user *models.User, ev Event) (enums.ConversationState, []sendFn, error) {
	input := ev.ReplyInput()
	if ev.Kind != KindText {
		return user.State, []sendFn{s.text(user.Phone, fallbackMessage, gateway.TagFallback)}, nil
	}
	if IsSkip(input) {
		user.ActiveReferralCode = nil
		user.State = enums.StateBrowsingCatalog
		if err := usersRepo.Save(ctx, user); err != nil {
			return "", nil, err
		}
		return user.State, []sendFn{s.catalogSend(user.Phone)}, nil
	}

	code, err := s.referralSvc.WithTx(tx).Validate(ctx, input, user.Phone)
	if err != nil {
		coded := pkgerrors.As(err)
		if coded == nil {
			return "", nil, err
		}
		reprompt := coded.Message() + "\n\nEnter another code, or reply *skip* to continue."
		return user.State, []sendFn{s.text(user.Phone, reprompt, gateway.TagReferral)}, nil
	}
	user.ActiveReferralCode = &code.Code
	user.State = enums.StateBrowsingCatalog
	if err := usersRepo.Save(ctx, user); err != nil {
		return "", nil, err
	}
	return user.State, []sendFn{s.text(user.Phone, referralAppliedMessage, gateway.TagReferral)}, nil
}

func (s *Service) handleCatalogOrder(ctx context.Context, tx *gorm.DB, usersRepo *users.Repository, user *models.User, ev Event) (enums.ConversationState, []sendFn, error) {
	if user.Pincode == nil || *user.Pincode == "" {
		user.State = enums.StateAwaitingPincode
		if err := usersRepo.Save(ctx, user); err != nil {
			return "", nil, err
		}
		name := user.Phone
		if user.HasName() {
			name = *user.Name
		}
		return user.State, []sendFn{s.text(user.Phone, pincodePrompt(name), gateway.TagGreeting)}, nil
	}

	resolver := s.resolver.WithTx(tx)
	deliveryDate := s.checkoutSvc.DeliveryDate()
	invRepo := s.invRepo.WithTx(tx)

	var items []models.CartItem
	for _, line := range ev.Lines {
		entry := resolver.Resolve(ctx, line.ComboID)
		if !entry.Sellable() {
			continue
		}
		items = append(items, models.CartItem{
			ComboID:   line.ComboID,
			ComboName: entry.Name,
			Quantity:  line.Quantity,
			UnitPrice: entry.Price,
		})
	}
	if len(items) == 0 {
		return user.State, []sendFn{
			s.catalogSend(user.Phone),
			s.text(user.Phone, unavailableComboMessage, gateway.TagFallback),
		}, nil
	}

	// One unavailable line rejects the whole selection.
	for _, item := range items {
		remaining, err := invRepo.Remaining(ctx, *user.Pincode, deliveryDate, item.ComboID)
		if err != nil {
			return "", nil, err
		}
		if remaining < item.Quantity {
			msg := fmt.Sprintf("Sorry, *%s* is not available for tomorrow's delivery in your area. Please choose another combo.", item.ComboName)
			return user.State, []sendFn{
				s.text(user.Phone, msg, gateway.TagFallback),
				s.catalogSend(user.Phone),
			}, nil
		}
	}

	if err := s.cartRepo.WithTx(tx).Replace(ctx, user.Phone, items); err != nil {
		return "", nil, err
	}

	if user.HasAddress() {
		user.State = enums.StateAwaitingAddressChoice
		if err := usersRepo.Save(ctx, user); err != nil {
			return "", nil, err
		}
		prompt := addressChoicePrompt(*user.Address)
		return user.State, []sendFn{func(c context.Context) error {
			return s.sender.SendAddressOptions(c, user.Phone, prompt)
		}}, nil
	}

	user.State = enums.StateAwaitingAddress
	if err := usersRepo.Save(ctx, user); err != nil {
		return "", nil, err
	}
	return user.State, []sendFn{s.text(user.Phone, askAddressMessage, gateway.TagAddressChoice)}, nil
}

func (s *Service) handleAddressChoice(ctx context.Context, tx *gorm.DB, usersRepo *users.Repository, user *models.User, ev Event) (enums.ConversationState, []sendFn, error) {
	switch ev.ReplyInput() {
	case gateway.ReplyKeepAddress:
		return s.toOrderConfirm(ctx, tx, usersRepo, user)
	case gateway.ReplyNewAddress:
		user.Address = nil
		user.State = enums.StateAwaitingAddress
		if err := usersRepo.Save(ctx, user); err != nil {
			return "", nil, err
		}
		return user.State, []sendFn{s.text(user.Phone, askAddressMessage, gateway.TagAddressChoice)}, nil
	default:
		return user.State, []sendFn{s.text(user.Phone, fallbackMessage, gateway.TagFallback)}, nil
	}
}

func (s *Service) handleAddress(ctx context.Context, tx *gorm.DB, usersRepo *users.Repository, user *models.User, ev Event) (enums.ConversationState, []sendFn, error) {
	input := ev.ReplyInput()
	if ev.Kind != KindText || !ValidAddress(input) {
		return user.State, []sendFn{s.text(user.Phone, invalidAddressMessage, gateway.TagFallback)}, nil
	}
	user.Address = &input
	return s.toOrderConfirm(ctx, tx, usersRepo, user)
}

// toOrderConfirm persists the address, computes the discount preview with
// the same arithmetic checkout uses, and asks for confirmation.
func (s *Service) toOrderConfirm(ctx context.Context, tx *gorm.DB, usersRepo *users.Repository, user *models.User) (enums.ConversationState, []sendFn, error) {
	items, err := s.cartRepo.WithTx(tx).Items(ctx, user.Phone)
	if err != nil {
		return "", nil, err
	}
	if len(items) == 0 {
		user.State = enums.StateBrowsingCatalog
		if err := usersRepo.Save(ctx, user); err != nil {
			return "", nil, err
		}
		return user.State, []sendFn{
			s.text(user.Phone, noOrderMessage, gateway.TagFallback),
			s.catalogSend(user.Phone),
		}, nil
	}

	quote, err := s.previewQuote(ctx, tx, user, items)
	if err != nil {
		return "", nil, err
	}

	user.State = enums.StateAwaitingOrderConfirm
	if err := usersRepo.Save(ctx, user); err != nil {
		return "", nil, err
	}
	summary := cartSummaryMessage(*user.Name, items, quote, *user.Address)
	return user.State, []sendFn{func(c context.Context) error {
		return s.sender.SendOrderActions(c, user.Phone, summary)
	}}, nil
}

func (s *Service) handleOrderConfirm(ctx context.Context, tx *gorm.DB, usersRepo *users.Repository, user *models.User, input string) (enums.ConversationState, []sendFn, error) {
	switch input {
	case gateway.ReplyConfirm:
		user.State = enums.StateAwaitingPayment
		if err := usersRepo.Save(ctx, user); err != nil {
			return "", nil, err
		}
		return user.State, []sendFn{func(c context.Context) error {
			return s.sender.SendPaymentOptions(c, user.Phone, paymentPromptMessage)
		}}, nil
	case gateway.ReplyMainMenu:
		// Back to browsing: cart and order-scoped fields reset, pincode
		// kept so the catalog stays usable.
		if err := s.cartRepo.WithTx(tx).Clear(ctx, user.Phone); err != nil {
			return "", nil, err
		}
		user.State = enums.StateBrowsingCatalog
		if err := usersRepo.ResetForNewOrder(ctx, user, true); err != nil {
			return "", nil, err
		}
		return user.State, []sendFn{s.catalogSend(user.Phone)}, nil
	default:
		return user.State, []sendFn{s.text(user.Phone, fallbackMessage, gateway.TagFallback)}, nil
	}
}

// handleCheckout runs the checkout orchestrator outside the per-transition
// transaction: the orchestrator commits its own.
func (s *Service) handleCheckout(ctx context.Context, ev Event) {
	method := enums.PaymentMethodCOD
	if ev.ReplyID == gateway.ReplyPayNow {
		method = enums.PaymentMethodPayNow
	}

	result, err := s.checkoutSvc.Execute(ctx, ev.From, method)
	if err != nil {
		s.botMetrics.IncCheckout(string(method), "failed")
		coded := pkgerrors.As(err)
		if coded == nil {
			s.logError(ctx, "checkout failed", err)
			s.sendBestEffort(ctx, func(c context.Context) error {
				return s.sender.SendText(c, ev.From, genericRetryMessage, gateway.TagFallback)
			})
			return
		}
		s.sendBestEffort(ctx, func(c context.Context) error {
			return s.sender.SendText(c, ev.From, coded.Message(), gateway.TagFallback)
		})
		return
	}
	s.botMetrics.IncCheckout(string(method), "ok")

	if s.logg != nil {
		ctx = s.logg.WithReferenceID(ctx, result.ReferenceID)
	}
	total := result.Quote.Total.StringFixed(2)
	var sends []sendFn
	if method == enums.PaymentMethodCOD {
		body := codConfirmationMessage(result.CustomerName, result.Lines, total, result.Address, result.NewReferralCode)
		sends = append(sends, s.text(ev.From, body, gateway.TagConfirmation))
	} else {
		body := paymentLinkMessage(result.CustomerName, result.Lines, total, result.Address, result.PaymentURL)
		sends = append(sends, s.text(ev.From, body, gateway.TagPaymentLink))
	}
	if result.MilestoneIssuer != "" && result.RedeemedCode != nil {
		issuer := result.MilestoneIssuer
		body := milestoneMessage(*result.RedeemedCode)
		sends = append(sends, s.text(issuer, body, gateway.TagReferral))
	}
	s.flush(ctx, sends)
}

func (s *Service) previewQuote(ctx context.Context, tx *gorm.DB, user *models.User, items []models.CartItem) (referrals.Quote, error) {
	referralSvc := s.referralSvc.WithTx(tx)
	flat := decimal.Zero
	if user.ActiveReferralCode != nil {
		if _, err := referralSvc.Validate(ctx, *user.ActiveReferralCode, user.Phone); err == nil {
			flat = referralSvc.FlatDiscount()
		}
	}
	tier, err := referralSvc.TierFor(ctx, user.Phone)
	if err != nil {
		return referrals.Quote{}, err
	}
	return referrals.ComputeQuote(cart.Subtotal(items), flat, tier), nil
}

func (s *Service) servesPincode(pincode string) bool {
	for _, pin := range s.cfg.Pincodes {
		if pin == pincode {
			return true
		}
	}
	return false
}

func (s *Service) text(to, body, tag string) sendFn {
	return func(c context.Context) error {
		return s.sender.SendText(c, to, body, tag)
	}
}

func (s *Service) catalogSend(to string) sendFn {
	return func(c context.Context) error {
		ids := s.resolver.ComboIDs(c)
		return s.sender.SendCatalog(c, to, s.cfg.CatalogID, ids)
	}
}

func (s *Service) flush(ctx context.Context, sends []sendFn) {
	for _, send := range sends {
		s.sendBestEffort(ctx, send)
	}
}

func (s *Service) sendBestEffort(ctx context.Context, send sendFn) {
	if err := send(ctx); err != nil {
		s.logError(ctx, "outbound send failed", err)
	}
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	if err == nil {
		s.logg.Warn(ctx, msg)
		return
	}
	s.logg.Error(ctx, msg, err)
}
