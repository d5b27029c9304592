package handler

import (
	"time"

	"github.com/khyberwear/khyber-shawls-sub000/internal/entities"
	"github.com/khyberwear/khyber-shawls-sub000/internal/service"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the checkout payload
type CreateOrderRequest struct {
	CustomerName    string            `json:"customerName" validate:"required"`
	CustomerEmail   string            `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string            `json:"customerPhone,omitempty"`
	ShippingAddress string            `json:"shippingAddress" validate:"required"`
	Notes           string            `json:"notes,omitempty"`
	Items           []CartItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CartItemRequest is one cart line; the client never submits a price
type CartItemRequest struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderResponse struct {
	OrderID string `json:"orderId"`
}

// TrackOrderRequest authenticates by order number plus email
type TrackOrderRequest struct {
	OrderNumber string `json:"orderNumber" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
}

type UpdateStatusResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type OrderItemResponse struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderResponse is the customer-facing tracking view
type OrderResponse struct {
	OrderID         string              `json:"orderId"`
	Status          string              `json:"status"`
	ShippingAddress string              `json:"shippingAddress"`
	Total           decimal.Decimal     `json:"total"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	Items           []OrderItemResponse `json:"items"`
}

// AdminOrderResponse additionally exposes customer contact fields
type AdminOrderResponse struct {
	OrderResponse
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	Notes         string `json:"notes,omitempty"`
	UserID        string `json:"userId,omitempty"`
}

func CartItemsToService(items []CartItemRequest) []service.CartItem {
	out := make([]service.CartItem, 0, len(items))
	for _, it := range items {
		out = append(out, service.CartItem{ProductID: it.ID, Quantity: it.Quantity})
	}
	return out
}

func ItemEntityToJSON(i entities.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Quantity:    i.Quantity,
		Price:       i.UnitPrice,
	}
}

func OrderEntityToJSON(o entities.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemEntityToJSON(it))
	}

	return OrderResponse{
		OrderID:         o.ID,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		Total:           o.Total,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

func OrderEntityToAdminJSON(o entities.Order) AdminOrderResponse {
	return AdminOrderResponse{
		OrderResponse: OrderEntityToJSON(o),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		Notes:         o.Notes,
		UserID:        o.UserID,
	}
}
