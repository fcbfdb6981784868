package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/order"
	"campus-cafeteria/internal/utils"

	"github.com/google/uuid"
)

type DBLayer interface {
	SettleOrder(ctx context.Context, order *models.Order, payment *models.Payment) error
	GetPaymentByID(ctx context.Context, id string) (*models.Payment, error)
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, payment *models.Payment) error
	CompletedByMethod(ctx context.Context) ([]models.MethodBreakdown, error)
}

// OrderLookup loads the order a payment settles.
type OrderLookup interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
}

// ReceiptRenderer turns a payment into a scannable receipt image.
type ReceiptRenderer interface {
	PNG(p *models.Payment) ([]byte, error)
}

type PaymentService struct {
	DB       DBLayer
	Orders   OrderLookup
	Receipts ReceiptRenderer
	Kafka    kafka.Publisher
	Logger   *logger.Logger
	now      func() time.Time
}

func NewPaymentService(db DBLayer, orders OrderLookup, receipts ReceiptRenderer, events kafka.Publisher, log *logger.Logger) *PaymentService {
	return &PaymentService{DB: db, Orders: orders, Receipts: receipts, Kafka: events, Logger: log, now: time.Now}
}

// MaskCard keeps the last four digits and guesses the brand from the first one.
// Only the length is checked, and it counts the number as typed, separators included.
func MaskCard(number string) (*models.CardDetails, error) {
	if len(number) < 13 || len(number) > 19 {
		return nil, apperr.Validation("card number must have between 13 and 19 characters")
	}
	digits := strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(digits) < 4 {
		return nil, apperr.Validation("card number must contain at least 4 digits")
	}

	brand := "Other"
	switch digits[0] {
	case '4':
		brand = "Visa"
	case '5':
		brand = "Mastercard"
	}
	return &models.CardDetails{LastFour: digits[len(digits)-4:], Brand: brand}, nil
}

// Pay settles an order with the chosen method. The payment always completes.
func (s *PaymentService) Pay(ctx context.Context, user *models.User, req models.PaymentRequest) (*models.PaymentResult, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, apperr.Validation("order_id is required")
	}

	var card *models.CardDetails
	switch req.Method {
	case models.MethodCard:
		if req.Card == nil || req.Card.Number == "" {
			return nil, apperr.Validation("card details are required for card payments")
		}
		masked, err := MaskCard(req.Card.Number)
		if err != nil {
			return nil, err
		}
		card = masked
	case models.MethodPayPal, models.MethodVoucher, models.MethodCash:
	case "":
		return nil, apperr.Validation("a payment method is required")
	default:
		return nil, apperr.Validation("invalid payment method %q", req.Method)
	}

	o, err := s.Orders.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != user.ID {
		return nil, apperr.Authorization("only the owner can pay this order")
	}
	if o.Paid {
		return nil, apperr.Conflict("order %s has already been paid", o.OrderNumber)
	}
	if _, err := order.Transition(o.Status, order.ActionPay, order.ActorFor(user, o), ""); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Payment{
		ID:            uuid.New().String(),
		OrderID:       o.ID,
		UserID:        user.ID,
		Amount:        o.Total,
		Method:        req.Method,
		Status:        models.PaymentCompleted,
		TransactionID: utils.GenerateTransactionID(now),
		ReceiptID:     utils.GenerateReceiptID(now),
		Card:          card,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.UpdatedAt = now
	if err := s.DB.SettleOrder(ctx, o, p); err != nil {
		return nil, err
	}

	s.Logger.LogPayment("COMPLETED", p.TransactionID, fmt.Sprintf("order=%s amount=%.2f method=%s", o.OrderNumber, p.Amount, p.Method))
	kafka.PublishAsync(s.Kafka, s.Logger, models.NewDomainEvent(models.EventPaymentCompleted, p.ID, user.ID, p))
	kafka.PublishAsync(s.Kafka, s.Logger, models.NewDomainEvent(models.EventOrderPaid, o.ID, user.ID, o))
	return &models.PaymentResult{Payment: p, Order: o}, nil
}

func (s *PaymentService) PayByCard(ctx context.Context, user *models.User, req models.CardPaymentRequest) (*models.PaymentResult, error) {
	return s.Pay(ctx, user, models.PaymentRequest{
		OrderID: req.OrderID,
		Method:  models.MethodCard,
		Card: &models.CardInput{
			Number:     req.CardNumber,
			CVV:        req.CVV,
			Expiry:     req.Expiry,
			HolderName: req.HolderName,
		},
	})
}

func (s *PaymentService) GetPayment(ctx context.Context, user *models.User, id string) (*models.Payment, error) {
	p, err := s.DB.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != user.ID && !user.IsAdmin() {
		return nil, apperr.Authorization("not authorized to view this payment")
	}
	return p, nil
}

func (s *PaymentService) ListUserPayments(ctx context.Context, user *models.User) ([]models.Payment, error) {
	return s.DB.ListPayments(ctx, models.PaymentFilter{UserID: user.ID})
}

func (s *PaymentService) ListAllPayments(ctx context.Context, status models.PaymentStatus, method models.PaymentMethod) ([]models.Payment, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("invalid payment status %q", status)
	}
	if method != "" && !method.Valid() {
		return nil, apperr.Validation("invalid payment method %q", method)
	}
	return s.DB.ListPayments(ctx, models.PaymentFilter{Status: status, Method: method})
}

// UpdateStatus is the only way a payment leaves completed. The order is left as it is.
func (s *PaymentService) UpdateStatus(ctx context.Context, user *models.User, id string, status models.PaymentStatus) (*models.Payment, error) {
	if !user.IsAdmin() {
		return nil, apperr.Authorization("only admins can change the payment status")
	}
	if !status.Valid() {
		return nil, apperr.Validation("invalid payment status %q", status)
	}

	p, err := s.DB.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := p.Status
	p.Status = status
	p.UpdatedAt = s.now().UTC()
	if err := s.DB.UpdatePaymentStatus(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.LogPayment("STATUS", p.TransactionID, fmt.Sprintf("%s -> %s by %s", previous, status, user.ID))
	kafka.PublishAsync(s.Kafka, s.Logger, models.NewDomainEvent(models.EventPaymentStatusChanged, p.ID, p.UserID, p))
	return p, nil
}

func (s *PaymentService) Statistics(ctx context.Context) (*models.PaymentStatistics, error) {
	rows, err := s.DB.CompletedByMethod(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.PaymentStatistics{ByMethod: rows}
	var total float64
	for i := range rows {
		rows[i].Total = order.RoundMoney(rows[i].Total)
		stats.TotalCompletedPayments += rows[i].Count
		total += rows[i].Total
	}
	stats.TotalAmount = order.RoundMoney(total)
	return stats, nil
}

// Receipt renders the QR receipt of a payment the user may see.
func (s *PaymentService) Receipt(ctx context.Context, user *models.User, id string) ([]byte, error) {
	p, err := s.GetPayment(ctx, user, id)
	if err != nil {
		return nil, err
	}
	png, err := s.Receipts.PNG(p)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt %s: %w", p.ReceiptID, err)
	}
	return png, nil
}
