package entities

import (
	"bytes"
	"encoding/gob"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// Valid reports whether s is one of the known status values.
// Transitions between statuses are deliberately unconstrained.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	// Notes is free text; delivery and payment annotations from the
	// storefront end up here verbatim.
	Notes     string
	Status    OrderStatus
	Total     decimal.Decimal
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []OrderItem
}

// OrderItem carries the unit price snapshotted at order time,
// it never tracks later catalog price changes.
type OrderItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrNoPurchasableItems = errors.New("no purchasable items")
	ErrInvalidStatus      = errors.New("invalid order status")
)

func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Order) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	return dec.Decode(o)
}

func init() {
	gob.Register(Order{})
	gob.Register(OrderItem{})
}
