package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/khyberwear/khyber-shawls-sub000/internal/entities"
	"github.com/khyberwear/khyber-shawls-sub000/internal/identity"
	"github.com/khyberwear/khyber-shawls-sub000/internal/service"
	"github.com/khyberwear/khyber-shawls-sub000/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const defaultListLimit = 50

type OrderService interface {
	PlaceOrder(ctx context.Context, input service.PlaceOrderInput) (entities.Order, error)
	TrackOrder(ctx context.Context, orderID, email string) (entities.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) error
	ListOrders(ctx context.Context, count int) ([]entities.Order, error)
}

type HTTPHandler struct {
	logger    *slog.Logger
	validate  *validator.Validate
	svc       OrderService
	adminOnly func(next http.Handler) http.Handler
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService, adminOnly func(next http.Handler) http.Handler) *HTTPHandler {
	return &HTTPHandler{
		logger:    logger.With(slog.String("handler", "http")),
		validate:  validator.New(),
		svc:       svc,
		adminOnly: adminOnly,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Post("/track", h.TrackOrder)

		r.Group(func(r chi.Router) {
			r.Use(h.adminOnly)
			r.Get("/", h.ListOrders)
			r.Patch("/{order_id}/status", h.UpdateStatus)
		})
	})
}

// CreateOrder places an order from a cart checkout payload.
// @Summary      Place an order
// @Description  Validates the cart against the live catalog and creates the order with snapshot prices
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request  body      CreateOrderRequest  true  "Checkout payload"
// @Success      201  {object}  CreateOrderResponse
// @Failure      400  {object}  utils.ValidationErrorResponse "Validation error"
// @Failure      422  {object}  utils.ErrorResponse "No purchasable items"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders [post]
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		ordersRejected.WithLabelValues("validation").Inc()
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		ordersRejected.WithLabelValues("validation").Inc()
		utils.WriteValidationError(w, err)
		return
	}

	input := service.PlaceOrderInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		UserID:          identity.FromContext(ctx).UserID,
		Items:           CartItemsToService(req.Items),
	}

	order, err := h.svc.PlaceOrder(ctx, input)

	if errors.Is(err, entities.ErrNoPurchasableItems) {
		ordersRejected.WithLabelValues("business").Inc()
		utils.WriteError(w, "no purchasable items in cart", http.StatusUnprocessableEntity)
		return
	}

	if err != nil {
		ordersRejected.WithLabelValues("internal").Inc()
		h.logger.ErrorContext(ctx, "failed to place order", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	ordersPlaced.Inc()
	utils.WriteJSON(w, CreateOrderResponse{OrderID: order.ID}, http.StatusCreated)
}

// TrackOrder returns an order to a customer who knows its id and email.
// @Summary      Track an order
// @Description  Requires the order number and the email the order was placed with
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request  body      TrackOrderRequest  true  "Tracking credentials"
// @Success      200  {object}  OrderResponse
// @Failure      400  {object}  utils.ValidationErrorResponse "Validation error"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/track [post]
func (h *HTTPHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TrackOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.TrackOrder(ctx, req.OrderNumber, req.Email)

	// a wrong email and an unknown id get the same answer
	if errors.Is(err, entities.ErrOrderNotFound) {
		trackingLookups.WithLabelValues("not_found").Inc()
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to track order", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	trackingLookups.WithLabelValues("found").Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// UpdateStatus assigns a new status to an order.
// @Summary      Update order status
// @Description  Staff-only; any valid status value is accepted
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id  path      string               true  "Order id"
// @Param        request   body      UpdateStatusRequest  true  "Target status"
// @Success      200  {object}  UpdateStatusResponse
// @Failure      400  {object}  utils.ValidationErrorResponse "Validation error"
// @Failure      403  {object}  utils.ErrorResponse "Forbidden"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/{order_id}/status [patch]
func (h *HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req UpdateStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	err := h.svc.UpdateStatus(ctx, orderID, entities.OrderStatus(req.Status))

	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, entities.ErrInvalidStatus) {
		utils.WriteError(w, "invalid order status", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update order status",
			slog.Any("error", err), slog.String("order_id", orderID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	statusUpdates.WithLabelValues(req.Status).Inc()
	utils.WriteJSON(w, UpdateStatusResponse{OrderID: orderID, Status: req.Status}, http.StatusOK)
}

// ListOrders returns the most recent orders for staff.
// @Summary      List recent orders
// @Description  Staff-only order overview, newest first
// @Tags         orders
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of orders"
// @Success      200  {array}   AdminOrderResponse
// @Failure      403  {object}  utils.ErrorResponse "Forbidden"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	orders, err := h.svc.ListOrders(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	res := make([]AdminOrderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, OrderEntityToAdminJSON(o))
	}
	utils.WriteJSON(w, res, http.StatusOK)
}
