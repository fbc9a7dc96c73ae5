package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gig-marketplace/internal/apperr"
	"gig-marketplace/internal/config"
	"gig-marketplace/internal/handler"
	authmw "gig-marketplace/internal/middleware"
	"gig-marketplace/internal/service"

	goerrors "github.com/goliatone/go-errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Services struct {
	Checkout service.CheckoutService
	Webhook  service.WebhookService
	Offer    service.OfferService
	Seller   service.SellerService
	Order    service.OrderService
}

type Server struct {
	echo          *echo.Echo
	log           *zap.Logger
	gatherer      prometheus.Gatherer
	webhookLimit  rate.Limit
	stripeHandler *handler.StripeHandler
	offerHandler  *handler.OfferHandler
	sellerHandler *handler.SellerHandler
	orderHandler  *handler.OrderHandler
}

func NewServer(cfg *config.Config, log *zap.Logger, gatherer prometheus.Gatherer, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	s := &Server{
		echo:          e,
		log:           log.Named("http"),
		gatherer:      gatherer,
		webhookLimit:  rate.Limit(cfg.Webhook.RateLimit),
		stripeHandler: handler.NewStripeHandler(services.Checkout, services.Webhook),
		offerHandler:  handler.NewOfferHandler(services.Offer),
		sellerHandler: handler.NewSellerHandler(services.Seller),
		orderHandler:  handler.NewOrderHandler(services.Order),
	}
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.RequestID != "" {
				fields = append(fields, zap.String("request_id", v.RequestID))
			}
			if v.Error != nil {
				s.log.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			s.log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- processor callbacks --------
	api.POST("/stripe/webhook", s.stripeHandler.Webhook,
		middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(s.webhookLimit)))

	// -------- public reads --------
	api.GET("/gigs/:gigId/offers", s.offerHandler.ListOffers)
	api.GET("/gigs/:gigId/offers/:tier", s.offerHandler.GetOffer)
	api.POST("/sellers", s.sellerHandler.RegisterSeller)

	// -------- authenticated --------
	auth := authmw.AuthMiddleware()
	api.POST("/checkout/sessions", s.stripeHandler.CreateCheckoutSession, auth)
	api.POST("/offers", s.offerHandler.CreateOffer, auth)
	api.PUT("/sellers/:id/payout-account", s.sellerHandler.ConnectPayoutAccount, auth)
	api.POST("/sellers/:id/payout-account/refresh", s.sellerHandler.RefreshPayoutStatus, auth)
	api.GET("/orders/:id", s.orderHandler.GetOrder, auth)
	api.GET("/orders", s.orderHandler.ListOrders, auth)
}

// errorHandler renders domain errors as {"error":{"code","message"}}.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status  int
		code    string
		message string
	)
	var (
		rich *goerrors.Error
		he   *echo.HTTPError
	)
	switch {
	case goerrors.As(err, &rich):
		status, code, message = rich.Code, rich.TextCode, rich.Message
	case errors.As(err, &he):
		status = he.Code
		code = strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
		message = fmt.Sprint(he.Message)
	default:
		rich = apperr.From(err)
		status, code, message = rich.Code, rich.TextCode, rich.Message
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request error", zap.String("path", c.Path()), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, map[string]any{
			"error": map[string]string{
				"code":    code,
				"message": message,
			},
		})
	}
	if err != nil {
		s.log.Error("write error response", zap.Error(err))
	}
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
