package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"

	"github.com/google/uuid"
)

type DBLayer interface {
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItemByID(ctx context.Context, id string) (*models.MenuItem, error)
	GetMenuItemsByIDs(ctx context.Context, ids []string) (map[string]*models.MenuItem, error)
	ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error
}

type MenuService struct {
	DB     DBLayer
	Events kafka.Publisher
	Logger *logger.Logger
	now    func() time.Time
}

func NewMenuService(db DBLayer, events kafka.Publisher, log *logger.Logger) *MenuService {
	return &MenuService{DB: db, Events: events, Logger: log, now: time.Now}
}

type menuChange struct {
	Action string           `json:"action"`
	Item   *models.MenuItem `json:"item,omitempty"`
}

func (s *MenuService) publish(action, id string, item *models.MenuItem) {
	kafka.PublishAsync(s.Events, s.Logger, models.NewDomainEvent(models.EventMenuChanged, id, "", menuChange{Action: action, Item: item}))
}

func (s *MenuService) CreateMenuItem(ctx context.Context, req models.CreateMenuItemRequest) (*models.MenuItem, error) {
	if req.Price == nil || *req.Price < 0 {
		return nil, apperr.Validation("price must be zero or more")
	}
	now := s.now().UTC()
	item := &models.MenuItem{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       *req.Price,
		Category:    req.Category,
		Available:   true,
		Image:       req.Image,
		Diet:        req.Diet,
		Ingredients: req.Ingredients,
		Calories:    req.Calories,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if item.Diet == "" {
		item.Diet = models.DietRegular
	}
	if item.Ingredients == nil {
		item.Ingredients = []string{}
	}

	if err := s.DB.CreateMenuItem(ctx, item); err != nil {
		return nil, err
	}
	s.Logger.Info("MENU", fmt.Sprintf("Created menu item %s (%s) at %.2f", item.ID, item.Name, item.Price))
	s.publish("created", item.ID, item)
	return item, nil
}

func (s *MenuService) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	return s.DB.GetMenuItemByID(ctx, id)
}

func (s *MenuService) ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	return s.DB.ListMenuItems(ctx, filter)
}

// UpdateMenuItem applies a partial update. Orders already placed keep the price they captured.
func (s *MenuService) UpdateMenuItem(ctx context.Context, id string, req models.UpdateMenuItemRequest) (*models.MenuItem, error) {
	item, err := s.DB.GetMenuItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if req.Image != nil {
		item.Image = *req.Image
	}
	if req.Diet != nil {
		item.Diet = *req.Diet
	}
	if req.Ingredients != nil {
		item.Ingredients = req.Ingredients
	}
	if req.Calories != nil {
		item.Calories = *req.Calories
	}
	item.UpdatedAt = s.now().UTC()

	if err := s.DB.UpdateMenuItem(ctx, item); err != nil {
		return nil, err
	}
	s.publish("updated", item.ID, item)
	return item, nil
}

func (s *MenuService) SetAvailability(ctx context.Context, id string, available bool) (*models.MenuItem, error) {
	return s.UpdateMenuItem(ctx, id, models.UpdateMenuItemRequest{Available: &available})
}

func (s *MenuService) DeleteMenuItem(ctx context.Context, id string) error {
	if err := s.DB.DeleteMenuItem(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("MENU", fmt.Sprintf("Deleted menu item %s", id))
	s.publish("deleted", id, nil)
	return nil
}
