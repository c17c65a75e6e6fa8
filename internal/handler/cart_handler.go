package handler

import (
	"net/http"
	"strconv"
	"strings"

	"shopcart/internal/config"
	"shopcart/internal/middleware"
	"shopcart/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP。ログイン不要（セッション単位）
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.CartSession(cfg.IsProd()))

	g.GET("", h.getCart)
	g.POST("/add/:product_id", h.addToCart)
	g.POST("/remove/:product_id/:cart_item_id", h.decrementItem)
	g.POST("/remove_item/:product_id/:cart_item_id", h.removeItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.ViewCart(c.Request().Context(), getCartSession(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 本文は {"color":"red","size":"M"} かフォーム（color=red&size=M）
func (h *CartHandler) addToCart(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	options, err := bindOptions(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), getCartSession(c), usecase.AddCartInput{
		ProductID: productID,
		Options:   options,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) decrementItem(c echo.Context) error {
	return h.remove(c, usecase.RemoveDecrement)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	return h.remove(c, usecase.RemoveDelete)
}

func (h *CartHandler) remove(c echo.Context, mode usecase.RemoveMode) error {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}
	itemID, err := strconv.ParseInt(c.Param("cart_item_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid cart_item_id"})
	}

	out, err := h.uc.RemoveCartItem(c.Request().Context(), getCartSession(c), productID, itemID, mode)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func bindOptions(c echo.Context) (map[string]string, error) {
	options := map[string]string{}

	req := c.Request()
	if req.ContentLength == 0 {
		return options, nil
	}

	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		//Bindだとパスパラメータまでmapに入るので本文だけ読む
		if err := c.Echo().JSONSerializer.Deserialize(c, &options); err != nil {
			return nil, err
		}
		return options, nil
	}

	params, err := c.FormParams()
	if err != nil {
		return nil, err
	}
	for k, vs := range params {
		if len(vs) > 0 {
			options[k] = vs[0]
		}
	}
	return options, nil
}
