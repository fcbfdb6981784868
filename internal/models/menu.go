package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategoryDinner    Category = "dinner"
	CategoryBeverage  Category = "beverage"
	CategoryDessert   Category = "dessert"
)

type DietTag string

const (
	DietRegular     DietTag = "regular"
	DietVegan       DietTag = "vegan"
	DietVegetarian  DietTag = "vegetarian"
	DietGlutenFree  DietTag = "gluten-free"
	DietPromotional DietTag = "promo"
)

type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description,notnull" json:"description"`
	Price       float64   `bun:"price,notnull" json:"price"`
	Category    Category  `bun:"category,notnull" json:"category"`
	Available   bool      `bun:"available,notnull" json:"available"`
	Image       string    `bun:"image,nullzero" json:"image,omitempty"`
	Diet        DietTag   `bun:"diet,notnull" json:"diet"`
	Ingredients []string  `bun:"ingredients" json:"ingredients"`
	Calories    int       `bun:"calories,nullzero" json:"calories,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

type MenuFilter struct {
	Category  Category
	Diet      DietTag
	Available *bool
}

type CreateMenuItemRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    Category `json:"category" validate:"required,oneof=breakfast lunch dinner beverage dessert"`
	Available   *bool    `json:"available"`
	Image       string   `json:"image" validate:"omitempty,url"`
	Diet        DietTag  `json:"diet" validate:"omitempty,oneof=regular vegan vegetarian gluten-free promo"`
	Ingredients []string `json:"ingredients" validate:"omitempty,dive,required"`
	Calories    int      `json:"calories" validate:"gte=0"`
}

type UpdateMenuItemRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1"`
	Description *string   `json:"description" validate:"omitempty,min=1"`
	Price       *float64  `json:"price" validate:"omitempty,gte=0"`
	Category    *Category `json:"category" validate:"omitempty,oneof=breakfast lunch dinner beverage dessert"`
	Available   *bool     `json:"available"`
	Image       *string   `json:"image" validate:"omitempty,url"`
	Diet        *DietTag  `json:"diet" validate:"omitempty,oneof=regular vegan vegetarian gluten-free promo"`
	Ingredients []string  `json:"ingredients" validate:"omitempty,dive,required"`
	Calories    *int      `json:"calories" validate:"omitempty,gte=0"`
}

type AvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}
