// Package factories builds randomized fixtures for tests.
package factories

import (
	"time"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"

	"github.com/bitesync/bitesync/internal/models"
)

var fake = faker.New()

type OrderFactory struct{}

// CreateOrder builds an unsynced order with n line items created at ts.
func (of *OrderFactory) CreateOrder(n int, ts time.Time) *models.Order {
	order := &models.Order{
		ID:            cuid.New(),
		CustomerName:  fake.Person().Name(),
		CustomerEmail: fake.Internet().Email(),
		CustomerPhone: fake.Phone().Number(),
		Status:        models.OrderStatusPending,
		Notes:         fake.Lorem().Sentence(5),
		CreatedAt:     ts,
	}
	for i := 0; i < n; i++ {
		qty := fake.IntBetween(1, 4)
		price := fake.Float64(2, 3, 30)
		order.Items = append(order.Items, models.OrderItem{
			OrderID:    order.ID,
			MenuItemID: cuid.New(),
			ItemName:   fake.Lorem().Word(),
			Quantity:   qty,
			UnitPrice:  price,
			LineTotal:  float64(qty) * price,
			Position:   i,
		})
		order.TotalAmount += float64(qty) * price
	}
	return order
}

type MenuFactory struct{}

func (mf *MenuFactory) CreateCategory(displayOrder int) models.Category {
	return models.Category{
		ID:           cuid.New(),
		Name:         fake.Lorem().Word(),
		Description:  fake.Lorem().Sentence(8),
		ImageURL:     fake.Internet().URL() + "/image.jpg",
		DisplayOrder: displayOrder,
		Active:       true,
	}
}

func (mf *MenuFactory) CreateMenuItem(categoryID string, displayOrder int) models.MenuItem {
	return models.MenuItem{
		ID:           cuid.New(),
		CategoryID:   categoryID,
		Name:         fake.Lorem().Word(),
		Description:  fake.Lorem().Sentence(10),
		Price:        fake.Float64(2, 5, 50),
		ImageURL:     fake.Internet().URL() + "/item.jpg",
		DisplayOrder: displayOrder,
		Available:    true,
	}
}
