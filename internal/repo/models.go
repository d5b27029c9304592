package repo

import (
	"database/sql"
	"time"

	"github.com/khyberwear/khyber-shawls-sub000/internal/entities"

	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID string          `db:"product_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Published bool            `db:"published"`
}

type Order struct {
	OrderID         string          `db:"order_id"`
	CustomerName    string          `db:"customer_name"`
	CustomerEmail   string          `db:"customer_email"`
	CustomerPhone   sql.NullString  `db:"customer_phone"`
	ShippingAddress string          `db:"shipping_address"`
	Notes           sql.NullString  `db:"notes"`
	Status          string          `db:"status"`
	Total           decimal.Decimal `db:"total"`
	UserID          sql.NullString  `db:"user_id"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

type OrderItem struct {
	OrderID     string          `db:"order_id"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ID:        p.ProductID,
		Name:      p.Name,
		Price:     p.Price,
		Published: p.Published,
	}
}

func ItemToEntity(i OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
	}
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:              o.OrderID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   nullStringToString(o.CustomerPhone),
		ShippingAddress: o.ShippingAddress,
		Notes:           nullStringToString(o.Notes),
		Status:          entities.OrderStatus(o.Status),
		Total:           o.Total,
		UserID:          nullStringToString(o.UserID),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
