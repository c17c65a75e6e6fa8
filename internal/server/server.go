package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shopcart/internal/config"
	"shopcart/internal/handler"
	"shopcart/internal/metrics"
	"shopcart/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// ルート登録に必要なもの
type Deps struct {
	Config  config.Config
	Logger  *zap.Logger
	Metrics *metrics.ServerMetrics

	Cart       *handler.CartHandler
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler

	// /healthz で呼ぶ（DBのpingなど）。nilなら常にok
	Health func(ctx context.Context) error
}

func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Logger))
	if d.Metrics != nil {
		e.Use(middleware.Metrics(d.Metrics))
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	e.GET("/healthz", func(c echo.Context) error {
		if d.Health != nil {
			if err := d.Health(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, handler.ErrorResponse{Error: "unhealthy"})
			}
		}
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	d.Cart.RegisterRoutes(e, d.Config)
	d.Order.RegisterRoutes(e, d.Config)
	d.AdminOrder.RegisterRoutes(e, d.Config)

	return e
}

// ctxが終わるまで待ち受けて、終わったら処理中のリクエストを待って止める
func Start(ctx context.Context, e *echo.Echo, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("server shutting down")
	return e.Shutdown(shutdownCtx)
}
