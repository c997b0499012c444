package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"freshleap/internal/config"
	"freshleap/internal/handler"
	"freshleap/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Handlers はルート登録に必要なハンドラ一式。
type Handlers struct {
	Auth          *handler.AuthHandler
	Product       *handler.ProductHandler
	Cart          *handler.CartHandler
	GuestCart     *handler.GuestCartHandler
	Checkout      *handler.CheckoutHandler
	Order         *handler.OrderHandler
	FarmerProduct *handler.FarmerProductHandler
	FarmerOrder   *handler.FarmerOrderHandler
}

type Server struct {
	e   *echo.Echo
	cfg config.Config
	log *slog.Logger
}

func New(cfg config.Config, log *slog.Logger, h Handlers, userRepo repository.UserRepository) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Guest-Token", "X-CSRF-Token"},
		AllowCredentials: true,
	}))

	//リクエストログ（slog）
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Auth.RegisterRoutes(e, userRepo)
	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	if h.GuestCart != nil {
		h.GuestCart.RegisterRoutes(e)
	}
	h.Checkout.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.FarmerProduct.RegisterRoutes(e, cfg, userRepo)
	h.FarmerOrder.RegisterRoutes(e, cfg, userRepo)

	return &Server{e: e, cfg: cfg, log: log}
}

// Start はサーバーを起動して、ctxキャンセルでgraceful shutdownする。
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server started", slog.String("port", s.cfg.Port))
		errCh <- s.e.Start(":" + s.cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.log.Info("shutting down")
		return s.e.Shutdown(shutdownCtx)
	}
}
