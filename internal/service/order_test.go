package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/khyberwear/khyber-shawls-sub000/internal/entities"
	"github.com/khyberwear/khyber-shawls-sub000/internal/service"
	mocks "github.com/khyberwear/khyber-shawls-sub000/internal/service/mocks"
	txMocks "github.com/khyberwear/khyber-shawls-sub000/pkg/trm/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type deps struct {
	repo     *mocks.MockOrderRepo
	cache    *mocks.MockCache
	notifier *mocks.MockNotifier
	events   *mocks.MockEventPublisher
	tx       *txMocks.MockManager
}

func newService(t *testing.T) (*deps, interface {
	PlaceOrder(ctx context.Context, input service.PlaceOrderInput) (entities.Order, error)
	TrackOrder(ctx context.Context, orderID, email string) (entities.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) error
	ListOrders(ctx context.Context, count int) ([]entities.Order, error)
}) {
	d := &deps{
		repo:     mocks.NewMockOrderRepo(t),
		cache:    mocks.NewMockCache(t),
		notifier: mocks.NewMockNotifier(t),
		events:   mocks.NewMockEventPublisher(t),
		tx:       txMocks.NewMockManager(t),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewOrderService(logger, d.tx, d.repo, d.cache, d.notifier, d.events)
	return d, svc
}

func passthroughTx(tx *txMocks.MockManager) {
	tx.EXPECT().
		Do(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, cb func(ctx context.Context) error) error {
			return cb(ctx)
		})
}

func validInput() service.PlaceOrderInput {
	return service.PlaceOrderInput{
		CustomerName:    "Aisha",
		CustomerEmail:   "aisha@example.com",
		ShippingAddress: "12 Chowk Yadgar, Peshawar",
		Items: []service.CartItem{
			{ProductID: "shawl-1", Quantity: 2},
		},
	}
}

func TestOrderService_PlaceOrder(t *testing.T) {
	shawl := entities.Product{
		ID:        "shawl-1",
		Name:      "Kashmiri Shawl",
		Price:     decimal.NewFromInt(5000),
		Published: true,
	}

	t.Run("places order with snapshot prices and catalog total", func(t *testing.T) {
		d, svc := newService(t)
		passthroughTx(d.tx)

		d.repo.EXPECT().
			ResolveProducts(mock.Anything, []string{"shawl-1"}).
			Return([]entities.Product{shawl}, nil).Once()

		var created entities.Order
		d.repo.EXPECT().
			CreateOrder(mock.Anything, mock.Anything).
			Run(func(ctx context.Context, o entities.Order) { created = o }).
			Return(nil).Once()
		d.repo.EXPECT().
			CreateOrderItems(mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()

		d.notifier.EXPECT().OrderPlaced(mock.Anything, mock.Anything).Return().Once()
		d.events.EXPECT().OrderCreated(mock.Anything, mock.Anything).Return(nil).Once()

		order, err := svc.PlaceOrder(context.Background(), validInput())
		require.NoError(t, err)

		assert.NotEmpty(t, order.ID)
		assert.Equal(t, entities.StatusPending, order.Status)
		assert.True(t, order.Total.Equal(decimal.NewFromInt(10000)), "total = %s", order.Total)
		require.Len(t, order.Items, 1)
		assert.Equal(t, "shawl-1", order.Items[0].ProductID)
		assert.Equal(t, "Kashmiri Shawl", order.Items[0].ProductName)
		assert.Equal(t, 2, order.Items[0].Quantity)
		assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromInt(5000)))

		// the persisted row matches what the caller got back
		assert.Equal(t, order.ID, created.ID)
		assert.True(t, created.Total.Equal(order.Total))
	})

	t.Run("unpublished items are dropped silently", func(t *testing.T) {
		d, svc := newService(t)
		passthroughTx(d.tx)

		input := validInput()
		input.Items = append(input.Items, service.CartItem{ProductID: "ghost-id", Quantity: 1})

		// ghost-id is not in the resolved set
		d.repo.EXPECT().
			ResolveProducts(mock.Anything, []string{"shawl-1", "ghost-id"}).
			Return([]entities.Product{shawl}, nil).Once()
		d.repo.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(nil).Once()
		d.repo.EXPECT().
			CreateOrderItems(mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()
		d.notifier.EXPECT().OrderPlaced(mock.Anything, mock.Anything).Return().Once()
		d.events.EXPECT().OrderCreated(mock.Anything, mock.Anything).Return(nil).Once()

		order, err := svc.PlaceOrder(context.Background(), input)
		require.NoError(t, err)
		require.Len(t, order.Items, 1)
		assert.Equal(t, "shawl-1", order.Items[0].ProductID)
	})

	t.Run("nothing purchasable aborts with business error", func(t *testing.T) {
		d, svc := newService(t)
		passthroughTx(d.tx)

		d.repo.EXPECT().
			ResolveProducts(mock.Anything, mock.Anything).
			Return(nil, nil).Once()

		input := validInput()
		input.Items = []service.CartItem{{ProductID: "ghost-id", Quantity: 1}}

		_, err := svc.PlaceOrder(context.Background(), input)
		assert.ErrorIs(t, err, entities.ErrNoPurchasableItems)
		// no CreateOrder expectation set: any persistence call fails the test
	})

	t.Run("persistence failure surfaces and skips notifications", func(t *testing.T) {
		d, svc := newService(t)
		passthroughTx(d.tx)

		dbError := errors.New("db error")
		d.repo.EXPECT().
			ResolveProducts(mock.Anything, mock.Anything).
			Return([]entities.Product{shawl}, nil)
		d.repo.EXPECT().
			CreateOrder(mock.Anything, mock.Anything).
			Return(dbError)

		_, err := svc.PlaceOrder(context.Background(), validInput())
		assert.ErrorIs(t, err, dbError)
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		d, svc := newService(t)
		passthroughTx(d.tx)

		d.repo.EXPECT().
			ResolveProducts(mock.Anything, mock.Anything).
			Return([]entities.Product{shawl}, nil)
		d.repo.EXPECT().
			CreateOrder(mock.Anything, mock.Anything).
			Once().Return(errors.New("temporary error"))
		d.repo.EXPECT().
			CreateOrder(mock.Anything, mock.Anything).
			Once().Return(nil)
		d.repo.EXPECT().
			CreateOrderItems(mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()
		d.notifier.EXPECT().OrderPlaced(mock.Anything, mock.Anything).Return().Once()
		d.events.EXPECT().OrderCreated(mock.Anything, mock.Anything).Return(nil).Once()

		_, err := svc.PlaceOrder(context.Background(), validInput())
		assert.NoError(t, err)
	})

	t.Run("event publish failure does not fail the order", func(t *testing.T) {
		d, svc := newService(t)
		passthroughTx(d.tx)

		d.repo.EXPECT().
			ResolveProducts(mock.Anything, mock.Anything).
			Return([]entities.Product{shawl}, nil).Once()
		d.repo.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(nil).Once()
		d.repo.EXPECT().
			CreateOrderItems(mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()
		d.notifier.EXPECT().OrderPlaced(mock.Anything, mock.Anything).Return().Once()
		d.events.EXPECT().
			OrderCreated(mock.Anything, mock.Anything).
			Return(errors.New("broker down")).Once()

		order, err := svc.PlaceOrder(context.Background(), validInput())
		require.NoError(t, err)
		assert.NotEmpty(t, order.ID)
	})
}

func TestOrderService_TrackOrder(t *testing.T) {
	stored := entities.Order{
		ID:            "ord-1",
		CustomerEmail: "aisha@example.com",
		Status:        entities.StatusPending,
		Total:         decimal.NewFromInt(10000),
	}

	t.Run("matching email returns the order", func(t *testing.T) {
		d, svc := newService(t)
		d.cache.EXPECT().Get("ord-1").Return(nil, false).Once()
		d.repo.EXPECT().
			GetOrderByID(mock.Anything, "ord-1").
			Return(stored, nil).Once()
		d.cache.EXPECT().Set("ord-1", mock.Anything).Return().Once()

		got, err := svc.TrackOrder(context.Background(), "ord-1", "  AISHA@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, got.ID)
	})

	t.Run("wrong email and unknown id are indistinguishable", func(t *testing.T) {
		d, svc := newService(t)
		d.cache.EXPECT().Get("ord-1").Return(nil, false).Once()
		d.repo.EXPECT().
			GetOrderByID(mock.Anything, "ord-1").
			Return(stored, nil).Once()

		_, errWrongEmail := svc.TrackOrder(context.Background(), "ord-1", "stranger@example.com")

		d.cache.EXPECT().Get("nope").Return(nil, false).Once()
		d.repo.EXPECT().
			GetOrderByID(mock.Anything, "nope").
			Return(entities.Order{}, entities.ErrOrderNotFound).Once()

		_, errUnknownID := svc.TrackOrder(context.Background(), "nope", "aisha@example.com")

		assert.ErrorIs(t, errWrongEmail, entities.ErrOrderNotFound)
		assert.ErrorIs(t, errUnknownID, entities.ErrOrderNotFound)
		assert.Equal(t, errWrongEmail, errUnknownID)
	})

	t.Run("served from cache without repo lookup", func(t *testing.T) {
		d, svc := newService(t)
		data, err := stored.Marshal()
		require.NoError(t, err)
		d.cache.EXPECT().Get("ord-1").Return(data, true).Once()

		got, err := svc.TrackOrder(context.Background(), "ord-1", "aisha@example.com")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, got.ID)
	})

	t.Run("broken cache entry falls back to repo", func(t *testing.T) {
		d, svc := newService(t)
		d.cache.EXPECT().Get("ord-1").Return([]byte("broken"), true).Once()
		d.repo.EXPECT().
			GetOrderByID(mock.Anything, "ord-1").
			Return(stored, nil).Once()
		d.cache.EXPECT().Set("ord-1", mock.Anything).Return().Once()

		got, err := svc.TrackOrder(context.Background(), "ord-1", "aisha@example.com")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, got.ID)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	t.Run("invalid status rejected before any persistence", func(t *testing.T) {
		_, svc := newService(t)
		err := svc.UpdateStatus(context.Background(), "ord-1", entities.OrderStatus("TELEPORTED"))
		assert.ErrorIs(t, err, entities.ErrInvalidStatus)
	})

	t.Run("any valid value is assigned, transitions unconstrained", func(t *testing.T) {
		d, svc := newService(t)
		d.repo.EXPECT().
			UpdateOrderStatus(mock.Anything, "ord-1", entities.StatusPending, mock.Anything).
			Return(nil).Once()
		d.cache.EXPECT().Delete("ord-1").Return().Once()
		d.events.EXPECT().
			OrderStatusChanged(mock.Anything, "ord-1", entities.StatusPending).
			Return(nil).Once()

		// DELIVERED back to PENDING is allowed
		err := svc.UpdateStatus(context.Background(), "ord-1", entities.StatusPending)
		assert.NoError(t, err)
	})

	t.Run("unknown order", func(t *testing.T) {
		d, svc := newService(t)
		d.repo.EXPECT().
			UpdateOrderStatus(mock.Anything, "nope", entities.StatusShipped, mock.Anything).
			Return(entities.ErrOrderNotFound).Once()

		err := svc.UpdateStatus(context.Background(), "nope", entities.StatusShipped)
		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})
}
