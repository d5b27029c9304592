package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/khyberwear/khyber-shawls-sub000/internal/entities"
	"github.com/khyberwear/khyber-shawls-sub000/pkg/trm"
	"github.com/khyberwear/khyber-shawls-sub000/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderRepo interface {
	ResolveProducts(ctx context.Context, ids []string) ([]entities.Product, error)
	CreateOrder(ctx context.Context, o entities.Order) error
	CreateOrderItems(ctx context.Context, orderID string, items []entities.OrderItem) error
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus, updatedAt time.Time) error
	LatestOrders(ctx context.Context, count int) ([]entities.Order, error)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

type Notifier interface {
	OrderPlaced(ctx context.Context, order entities.Order)
}

type EventPublisher interface {
	OrderCreated(ctx context.Context, order entities.Order) error
	OrderStatusChanged(ctx context.Context, orderID string, status entities.OrderStatus) error
}

type CartItem struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	Notes           string
	UserID          string
	Items           []CartItem
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	cache     Cache
	notifier  Notifier
	events    EventPublisher
}

func NewOrderService(logger *slog.Logger, txManager trm.Manager, repo OrderRepo, cache Cache, notifier Notifier, events EventPublisher) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		cache:     cache,
		notifier:  notifier,
		events:    events,
	}
}

var retryCfg = utils.RetryConfig{
	InitialDelay: 100 * time.Millisecond,
	MaxAttempts:  3,
	Multiplier:   2,
}

// PlaceOrder resolves the cart against the live catalog and persists
// the order with its items in one transaction. Prices always come from
// the catalog lookup inside that transaction, never from the client.
// Notifications and events fire only after commit and never affect the
// result.
func (s *orderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (entities.Order, error) {
	ids, quantities := collapseCart(input.Items)

	var order entities.Order
	fn := func() error {
		return s.txManager.Do(ctx, func(ctx context.Context) error {
			products, err := s.repo.ResolveProducts(ctx, ids)
			if err != nil {
				return fmt.Errorf("failed to resolve products: %w", err)
			}

			byID := make(map[string]entities.Product, len(products))
			for _, p := range products {
				byID[p.ID] = p
			}

			// Unknown and unpublished products drop out silently.
			items := make([]entities.OrderItem, 0, len(ids))
			total := decimal.Zero
			for _, id := range ids {
				p, ok := byID[id]
				if !ok {
					continue
				}
				qty := quantities[id]
				items = append(items, entities.OrderItem{
					ProductID:   p.ID,
					ProductName: p.Name,
					Quantity:    qty,
					UnitPrice:   p.Price,
				})
				total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
			}

			if len(items) == 0 {
				return entities.ErrNoPurchasableItems
			}

			now := time.Now().UTC()
			order = entities.Order{
				ID:              uuid.NewString(),
				CustomerName:    input.CustomerName,
				CustomerEmail:   input.CustomerEmail,
				CustomerPhone:   input.CustomerPhone,
				ShippingAddress: input.ShippingAddress,
				Notes:           input.Notes,
				Status:          entities.StatusPending,
				Total:           total,
				UserID:          input.UserID,
				CreatedAt:       now,
				UpdatedAt:       now,
				Items:           items,
			}

			if err := s.repo.CreateOrder(ctx, order); err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
			if err := s.repo.CreateOrderItems(ctx, order.ID, order.Items); err != nil {
				return fmt.Errorf("failed to create order items: %w", err)
			}

			s.logger.DebugContext(ctx, "order placed", slog.String("order_id", order.ID))
			return nil
		})
	}

	if err := utils.Retry(retryCfg, fn, entities.ErrNoPurchasableItems); err != nil {
		return entities.Order{}, err
	}

	s.notifier.OrderPlaced(ctx, order)

	if err := s.events.OrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order created event",
			slog.Any("error", err), slog.String("order_id", order.ID))
	}

	return order, nil
}

// TrackOrder authenticates by possession: the caller must present the
// order id together with the email stored on the order. A wrong email
// and an unknown id are indistinguishable on purpose.
func (s *orderService) TrackOrder(ctx context.Context, orderID, email string) (entities.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	if !strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(order.CustomerEmail)) {
		return entities.Order{}, entities.ErrOrderNotFound
	}

	return order, nil
}

// UpdateStatus assigns any valid status value. Transitions are not
// constrained, staff may move an order backwards.
func (s *orderService) UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) error {
	if !status.Valid() {
		return entities.ErrInvalidStatus
	}

	err := s.repo.UpdateOrderStatus(ctx, orderID, status, time.Now().UTC())
	if err != nil {
		return err
	}

	s.cache.Delete(orderID)

	if err := s.events.OrderStatusChanged(ctx, orderID, status); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish status changed event",
			slog.Any("error", err), slog.String("order_id", orderID))
	}

	return nil
}

func (s *orderService) ListOrders(ctx context.Context, count int) ([]entities.Order, error) {
	return s.repo.LatestOrders(ctx, count)
}

func (s *orderService) getOrder(ctx context.Context, orderID string) (entities.Order, error) {
	if data, ok := s.cache.Get(orderID); ok {
		var order entities.Order
		if err := order.Unmarshal(data); err == nil {
			return order, nil
		}
		// broken cache entry, fall through to the repo
		s.logger.WarnContext(ctx, "failed to unmarshal cached order", slog.String("order_id", orderID))
	}

	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.repo.GetOrderByID(ctx, orderID)
		return err
	}
	if err := utils.Retry(retryCfg, fn, entities.ErrOrderNotFound); err != nil {
		return entities.Order{}, err
	}

	if data, err := order.Marshal(); err == nil {
		s.cache.Set(orderID, data)
	}
	return order, nil
}

// collapseCart aggregates duplicate cart lines, preserving the order
// in which product ids first appear.
func collapseCart(items []CartItem) ([]string, map[string]int) {
	ids := make([]string, 0, len(items))
	quantities := make(map[string]int, len(items))
	for _, it := range items {
		if _, seen := quantities[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		quantities[it.ProductID] += it.Quantity
	}
	return ids, quantities
}
