package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/refnum"

	"github.com/google/uuid"
)

const maxNumberAttempts = 3

type DBLayer interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
}

// MenuLookup resolves the catalog entries an order refers to.
type MenuLookup interface {
	GetMenuItemsByIDs(ctx context.Context, ids []string) (map[string]*models.MenuItem, error)
}

// NumberGenerator hands out reference numbers. Random is used after a collision.
type NumberGenerator interface {
	Next(ctx context.Context, prefix string) string
	Random(prefix string) string
}

type OrderService struct {
	DB      DBLayer
	Menu    MenuLookup
	Numbers NumberGenerator
	Kafka   kafka.Publisher
	Logger  *logger.Logger
	now     func() time.Time
}

func NewOrderService(db DBLayer, menu MenuLookup, numbers NumberGenerator, events kafka.Publisher, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Menu: menu, Numbers: numbers, Kafka: events, Logger: log, now: time.Now}
}

// RoundMoney rounds to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// ---------------- ORDERS ----------------

// PlaceOrder prices every line from the current catalog and stores the snapshot.
func (s *OrderService) PlaceOrder(ctx context.Context, user *models.User, req models.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("the order must contain at least one item")
	}
	switch req.PaymentMethod {
	case models.MethodCard, models.MethodPayPal, models.MethodVoucher, models.MethodCash:
	case "":
		return nil, apperr.Validation("a payment method is required")
	default:
		return nil, apperr.Validation("invalid payment method %q", req.PaymentMethod)
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.MenuItemID == "" {
			return nil, apperr.Validation("menu_item_id is required")
		}
		if item.Quantity < 1 {
			return nil, apperr.Validation("quantity must be at least 1")
		}
		ids = append(ids, item.MenuItemID)
	}

	catalog, err := s.Menu.GetMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]models.OrderLine, 0, len(req.Items))
	var total float64
	for _, item := range req.Items {
		menuItem, ok := catalog[item.MenuItemID]
		if !ok {
			return nil, apperr.NotFound("menu item %s not found", item.MenuItemID)
		}
		if !menuItem.Available {
			return nil, apperr.Unavailable("menu item %s is not available", menuItem.Name)
		}
		lineTotal := RoundMoney(menuItem.Price * float64(item.Quantity))
		lines = append(lines, models.OrderLine{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   item.Quantity,
			UnitPrice:  menuItem.Price,
			LineTotal:  lineTotal,
		})
		total += lineTotal
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:            uuid.New().String(),
		UserID:        user.ID,
		Lines:         lines,
		Total:         RoundMoney(total),
		Status:        models.OrderPending,
		Paid:          false,
		PaymentMethod: req.PaymentMethod,
		Notes:         strings.TrimSpace(req.Notes),
		PickupTime:    req.PickupTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for attempt := 1; ; attempt++ {
		if attempt == 1 {
			order.OrderNumber = s.Numbers.Next(ctx, refnum.PrefixOrder)
		} else {
			order.OrderNumber = s.Numbers.Random(refnum.PrefixOrder)
		}
		err = s.DB.CreateOrder(ctx, order)
		if err == nil {
			break
		}
		if !errors.Is(err, apperr.ErrConflict) || attempt == maxNumberAttempts {
			return nil, err
		}
		s.Logger.Warn("ORDER", fmt.Sprintf("Order number %s collided, retrying", order.OrderNumber))
	}

	s.Logger.LogOrder("CREATED", order.OrderNumber, fmt.Sprintf("user=%s lines=%d total=%.2f", user.ID, len(lines), order.Total))
	kafka.PublishAsync(s.Kafka, s.Logger, models.NewDomainEvent(models.EventOrderCreated, order.ID, order.UserID, order))
	return order, nil
}

// GetOrder returns the order if user owns it or is an admin.
func (s *OrderService) GetOrder(ctx context.Context, user *models.User, id string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, apperr.Authorization("not authorized to view this order")
	}
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, user *models.User) ([]models.Order, error) {
	return s.DB.ListOrders(ctx, models.OrderFilter{UserID: user.ID})
}

func (s *OrderService) ListAllOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("invalid order status %q", status)
	}
	return s.DB.ListOrders(ctx, models.OrderFilter{Status: status})
}

func (s *OrderService) apply(ctx context.Context, user *models.User, id string, action Action, target models.OrderStatus) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := Transition(order.Status, action, ActorFor(user, order), target)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	order.Status = next
	if action == ActionPay {
		order.Paid = true
	}
	order.UpdatedAt = s.now().UTC()
	if err := s.DB.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.Logger.LogOrder(strings.ToUpper(string(action)), order.OrderNumber, fmt.Sprintf("%s -> %s by %s", previous, next, user.ID))
	return order, nil
}

// UpdateStatus is the admin override; any enumerated status may be set on a live order.
func (s *OrderService) UpdateStatus(ctx context.Context, user *models.User, id string, status models.OrderStatus) (*models.Order, error) {
	order, err := s.apply(ctx, user, id, ActionSetStatus, status)
	if err != nil {
		return nil, err
	}
	kafka.PublishAsync(s.Kafka, s.Logger, models.NewDomainEvent(models.EventOrderStatusChanged, order.ID, order.UserID, order))
	return order, nil
}

// MarkPaid flags the order as paid without recording a payment. Repeating it is harmless.
func (s *OrderService) MarkPaid(ctx context.Context, user *models.User, id string) (*models.Order, error) {
	order, err := s.apply(ctx, user, id, ActionPay, "")
	if err != nil {
		return nil, err
	}
	kafka.PublishAsync(s.Kafka, s.Logger, models.NewDomainEvent(models.EventOrderPaid, order.ID, order.UserID, order))
	return order, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, user *models.User, id string) (*models.Order, error) {
	order, err := s.apply(ctx, user, id, ActionCancel, "")
	if err != nil {
		return nil, err
	}
	kafka.PublishAsync(s.Kafka, s.Logger, models.NewDomainEvent(models.EventOrderCancelled, order.ID, order.UserID, order))
	return order, nil
}
