package handler

import (
	"net/http"

	"shopcart/internal/config"
	"shopcart/internal/metrics"
	"shopcart/internal/middleware"
	"shopcart/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc      *usecase.OrderUsecase
	metrics *metrics.ServerMetrics
}

func NewOrderHandler(uc *usecase.OrderUsecase, m *metrics.ServerMetrics) *OrderHandler {
	return &OrderHandler{uc: uc, metrics: m}
}

type PlaceOrderRequest struct {
	FirstName    string `json:"first_name" form:"first_name"`
	LastName     string `json:"last_name" form:"last_name"`
	Phone        string `json:"phone" form:"phone"`
	Email        string `json:"email" form:"email"`
	AddressLine1 string `json:"address_line_1" form:"address_line_1"`
	AddressLine2 string `json:"address_line_2" form:"address_line_2"`
	Country      string `json:"country" form:"country"`
	State        string `json:"state" form:"state"`
	City         string `json:"city" form:"city"`
	OrderNote    string `json:"order_note" form:"order_note"`
}

// 決済プロバイダ（のフロント）から届く内容
type PaymentRequest struct {
	OrderID       string `json:"orderID"`
	TransID       string `json:"transID"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	buyer := []echo.MiddlewareFunc{
		middleware.AuthJWT(cfg),
		middleware.RequireRole(middleware.RoleUser, middleware.RoleAdmin),
	}

	g.POST("/place_order", h.placeOrder, append(buyer, middleware.CartSession(cfg.IsProd()))...)
	g.POST("/payments", h.payments, append(buyer, middleware.PaymentSignature(cfg.PaymentWebhookSecret))...)
	g.GET("/order_complete", h.orderComplete)
}

func (h *OrderHandler) placeOrder(c echo.Context) error {
	user, ok := getCheckoutUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), user, usecase.PlaceOrderInput{
		SessionToken: getCartSession(c),
		Billing:      usecase.BillingForm(req),
		IP:           c.RealIP(),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) payments(c echo.Context) error {
	user, ok := getCheckoutUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		h.observePayment(http.StatusBadRequest)
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.ConfirmPayment(c.Request().Context(), user, usecase.ConfirmPaymentInput{
		OrderNumber:   req.OrderID,
		TransactionID: req.TransID,
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
	})
	if err != nil {
		werr := writeError(c, err)
		h.observePayment(c.Response().Status)
		return werr
	}

	h.observePayment(http.StatusOK)
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) orderComplete(c echo.Context) error {
	out, err := h.uc.GetOrderConfirmation(
		c.Request().Context(),
		c.QueryParam("order_number"),
		c.QueryParam("payment_id"),
	)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) observePayment(status int) {
	if h.metrics == nil {
		return
	}
	h.metrics.Payments.WithLabelValues(metrics.PaymentOutcome(status)).Inc()
}
