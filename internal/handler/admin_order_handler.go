package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"shopcart/internal/config"
	"shopcart/internal/middleware"
	"shopcart/internal/repository"
	"shopcart/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/orders", h.list)
	admin.PUT("/orders/:id/status", h.updateStatus)
	admin.GET("/orders/:id/audit_logs", h.auditLogs)
}

// GET /admin/orders?status=&user_id=&order_number=&paid=&from=&to=&page=&limit=
func (h *AdminOrderHandler) list(c echo.Context) error {
	f, err := bindOrderListFilter(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// クエリを一覧の絞り込み条件にする。不正な値は "invalid <name>" で400
func bindOrderListFilter(c echo.Context) (repository.AdminOrderListFilter, error) {
	f := repository.AdminOrderListFilter{Page: 1, Limit: 50}

	var (
		userID int64
		paid   bool
	)
	err := echo.QueryParamsBinder(c).
		FailFast(true).
		Int("page", &f.Page).
		Int("limit", &f.Limit).
		Int64("user_id", &userID).
		Bool("paid", &paid).
		String("order_number", &f.OrderNumber).
		BindError()
	if err != nil {
		var be *echo.BindingError
		if errors.As(err, &be) {
			return f, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+be.Field)
		}
		return f, usecase.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	if c.QueryParam("user_id") != "" {
		f.UserID = &userID
	}
	if c.QueryParam("paid") != "" {
		f.Paid = &paid
	}
	f.Status = strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	f.OrderNumber = strings.TrimSpace(f.OrderNumber)

	var ok bool
	if f.From, ok = usecase.ParseDateTimeRFC3339(c.QueryParam("from")); !ok {
		return f, usecase.NewHTTPError(http.StatusBadRequest, "invalid from")
	}
	if f.To, ok = usecase.ParseDateTimeRFC3339(c.QueryParam("to")); !ok {
		return f, usecase.NewHTTPError(http.StatusBadRequest, "invalid to")
	}
	return f, nil
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//操作した管理者ID（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.UpdateStatus(
		c.Request().Context(),
		adminID,
		orderID,
		usecase.AdminUpdateOrderStatusInput{Status: req.Status},
	); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	logs, err := h.uc.History(c.Request().Context(), orderID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}

