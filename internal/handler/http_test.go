package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/khyberwear/khyber-shawls-sub000/internal/entities"
	"github.com/khyberwear/khyber-shawls-sub000/internal/handler"
	mocks "github.com/khyberwear/khyber-shawls-sub000/internal/handler/mocks"
	"github.com/khyberwear/khyber-shawls-sub000/internal/identity"
	"github.com/khyberwear/khyber-shawls-sub000/internal/middleware"
	"github.com/khyberwear/khyber-shawls-sub000/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const adminEmail = "staff@khyberwear.example"

func newRouter(t *testing.T) (*mocks.MockOrderService, *chi.Mux) {
	svc := mocks.NewMockOrderService(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewHTTPHandler(logger, svc, middleware.RequireAdmin)

	r := chi.NewRouter()
	r.Use(middleware.WithIdentity(identity.NewHeaderProvider([]string{adminEmail})))
	h.Init(r)
	return svc, r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr.Result()
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func validCheckout() handler.CreateOrderRequest {
	return handler.CreateOrderRequest{
		CustomerName:    "Aisha",
		CustomerEmail:   "aisha@example.com",
		ShippingAddress: "12 Chowk Yadgar, Peshawar",
		Items:           []handler.CartItemRequest{{ID: "shawl-1", Quantity: 2}},
	}
}

func TestHTTPHandler_CreateOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, r := newRouter(t)
		svc.EXPECT().
			PlaceOrder(mock.Anything, mock.Anything).
			Return(entities.Order{ID: "ord-1", Status: entities.StatusPending}, nil).Once()

		res := doJSON(t, r, http.MethodPost, "/orders", validCheckout(), nil)
		body := readBody(t, res)

		assert.Equal(t, http.StatusCreated, res.StatusCode)
		assert.Contains(t, body, `"orderId":"ord-1"`)
	})

	t.Run("attributes the order to the current user", func(t *testing.T) {
		svc, r := newRouter(t)
		svc.EXPECT().
			PlaceOrder(mock.Anything, mock.MatchedBy(func(input service.PlaceOrderInput) bool {
				return input.UserID == "u-42"
			})).
			Return(entities.Order{ID: "ord-1"}, nil).Once()

		res := doJSON(t, r, http.MethodPost, "/orders", validCheckout(), map[string]string{
			"X-User-Id": "u-42",
		})
		readBody(t, res)
		assert.Equal(t, http.StatusCreated, res.StatusCode)
	})

	t.Run("validation failures are rejected before any work", func(t *testing.T) {
		testCases := []struct {
			name      string
			mutate    func(req *handler.CreateOrderRequest)
			wantField string
		}{
			{
				name:      "missing email",
				mutate:    func(req *handler.CreateOrderRequest) { req.CustomerEmail = "" },
				wantField: "CustomerEmail",
			},
			{
				name:      "invalid email",
				mutate:    func(req *handler.CreateOrderRequest) { req.CustomerEmail = "not-an-email" },
				wantField: "CustomerEmail",
			},
			{
				name:      "missing shipping address",
				mutate:    func(req *handler.CreateOrderRequest) { req.ShippingAddress = "" },
				wantField: "ShippingAddress",
			},
			{
				name:      "empty items",
				mutate:    func(req *handler.CreateOrderRequest) { req.Items = nil },
				wantField: "Items",
			},
			{
				name: "non-positive quantity",
				mutate: func(req *handler.CreateOrderRequest) {
					req.Items = []handler.CartItemRequest{{ID: "shawl-1", Quantity: 0}}
				},
				wantField: "Quantity",
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, r := newRouter(t)
				req := validCheckout()
				tc.mutate(&req)

				res := doJSON(t, r, http.MethodPost, "/orders", req, nil)
				body := readBody(t, res)

				assert.Equal(t, http.StatusBadRequest, res.StatusCode)
				assert.Contains(t, body, tc.wantField)
				// no PlaceOrder expectation: the service must not be touched
			})
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		_, r := newRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{broken"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("nothing purchasable", func(t *testing.T) {
		svc, r := newRouter(t)
		svc.EXPECT().
			PlaceOrder(mock.Anything, mock.Anything).
			Return(entities.Order{}, entities.ErrNoPurchasableItems).Once()

		res := doJSON(t, r, http.MethodPost, "/orders", validCheckout(), nil)
		body := readBody(t, res)

		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		assert.Contains(t, body, "no purchasable items")
	})

	t.Run("persistence failure stays generic", func(t *testing.T) {
		svc, r := newRouter(t)
		svc.EXPECT().
			PlaceOrder(mock.Anything, mock.Anything).
			Return(entities.Order{}, errors.New("pq: connection refused")).Once()

		res := doJSON(t, r, http.MethodPost, "/orders", validCheckout(), nil)
		body := readBody(t, res)

		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.Contains(t, body, "internal server error")
		assert.NotContains(t, body, "pq:")
	})
}

func TestHTTPHandler_TrackOrder(t *testing.T) {
	tracked := entities.Order{
		ID:              "ord-1",
		CustomerEmail:   "aisha@example.com",
		ShippingAddress: "12 Chowk Yadgar, Peshawar",
		Status:          entities.StatusPending,
		Total:           decimal.NewFromInt(10000),
		Items: []entities.OrderItem{
			{ProductID: "shawl-1", ProductName: "Kashmiri Shawl", Quantity: 2, UnitPrice: decimal.NewFromInt(5000)},
		},
	}

	t.Run("success", func(t *testing.T) {
		svc, r := newRouter(t)
		svc.EXPECT().
			TrackOrder(mock.Anything, "ord-1", "aisha@example.com").
			Return(tracked, nil).Once()

		res := doJSON(t, r, http.MethodPost, "/orders/track",
			handler.TrackOrderRequest{OrderNumber: "ord-1", Email: "aisha@example.com"}, nil)
		body := readBody(t, res)

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, `"status":"PENDING"`)
		assert.Contains(t, body, `"productName":"Kashmiri Shawl"`)
		assert.Contains(t, body, `"quantity":2`)
	})

	t.Run("wrong email and unknown id are identical to the caller", func(t *testing.T) {
		svc, r := newRouter(t)
		svc.EXPECT().
			TrackOrder(mock.Anything, "ord-1", "stranger@example.com").
			Return(entities.Order{}, entities.ErrOrderNotFound).Once()
		svc.EXPECT().
			TrackOrder(mock.Anything, "nope", "aisha@example.com").
			Return(entities.Order{}, entities.ErrOrderNotFound).Once()

		resWrongEmail := doJSON(t, r, http.MethodPost, "/orders/track",
			handler.TrackOrderRequest{OrderNumber: "ord-1", Email: "stranger@example.com"}, nil)
		bodyWrongEmail := readBody(t, resWrongEmail)

		resUnknownID := doJSON(t, r, http.MethodPost, "/orders/track",
			handler.TrackOrderRequest{OrderNumber: "nope", Email: "aisha@example.com"}, nil)
		bodyUnknownID := readBody(t, resUnknownID)

		assert.Equal(t, http.StatusNotFound, resWrongEmail.StatusCode)
		assert.Equal(t, resWrongEmail.StatusCode, resUnknownID.StatusCode)
		assert.Equal(t, bodyWrongEmail, bodyUnknownID)
	})

	t.Run("missing email is a validation error", func(t *testing.T) {
		_, r := newRouter(t)
		res := doJSON(t, r, http.MethodPost, "/orders/track",
			handler.TrackOrderRequest{OrderNumber: "ord-1"}, nil)
		body := readBody(t, res)

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Contains(t, body, "Email")
	})
}

func TestHTTPHandler_UpdateStatus(t *testing.T) {
	adminHeaders := map[string]string{"X-User-Email": adminEmail}

	t.Run("admin can assign any status", func(t *testing.T) {
		svc, r := newRouter(t)
		svc.EXPECT().
			UpdateStatus(mock.Anything, "ord-1", entities.StatusShipped).
			Return(nil).Once()

		res := doJSON(t, r, http.MethodPatch, "/orders/ord-1/status",
			handler.UpdateStatusRequest{Status: "SHIPPED"}, adminHeaders)
		body := readBody(t, res)

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, `"status":"SHIPPED"`)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		_, r := newRouter(t)

		res := doJSON(t, r, http.MethodPatch, "/orders/ord-1/status",
			handler.UpdateStatusRequest{Status: "SHIPPED"},
			map[string]string{"X-User-Email": "customer@example.com"})
		readBody(t, res)

		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("unknown status value", func(t *testing.T) {
		_, r := newRouter(t)

		res := doJSON(t, r, http.MethodPatch, "/orders/ord-1/status",
			handler.UpdateStatusRequest{Status: "TELEPORTED"}, adminHeaders)
		body := readBody(t, res)

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Contains(t, body, "Status")
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, r := newRouter(t)
		svc.EXPECT().
			UpdateStatus(mock.Anything, "nope", entities.StatusCancelled).
			Return(entities.ErrOrderNotFound).Once()

		res := doJSON(t, r, http.MethodPatch, "/orders/nope/status",
			handler.UpdateStatusRequest{Status: "CANCELLED"}, adminHeaders)
		body := readBody(t, res)

		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Contains(t, body, "order not found")
	})
}

func TestHTTPHandler_ListOrders(t *testing.T) {
	t.Run("admin sees recent orders", func(t *testing.T) {
		svc, r := newRouter(t)
		svc.EXPECT().
			ListOrders(mock.Anything, 50).
			Return([]entities.Order{
				{ID: "ord-1", CustomerName: "Aisha", Status: entities.StatusPending},
				{ID: "ord-2", CustomerName: "Bilal", Status: entities.StatusShipped},
			}, nil).Once()

		res := doJSON(t, r, http.MethodGet, "/orders", nil,
			map[string]string{"X-User-Email": adminEmail})
		body := readBody(t, res)

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, `"orderId":"ord-1"`)
		assert.Contains(t, body, `"customerName":"Bilal"`)
	})

	t.Run("anonymous is forbidden", func(t *testing.T) {
		_, r := newRouter(t)

		res := doJSON(t, r, http.MethodGet, "/orders", nil, nil)
		readBody(t, res)

		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})
}
