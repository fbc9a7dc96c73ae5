package handler

import (
	"io"
	"net/http"

	"gig-marketplace/internal/apperr"
	"gig-marketplace/internal/dto"
	"gig-marketplace/internal/middleware"
	"gig-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBytes = 64 << 10
)

type StripeHandler struct {
	checkoutService service.CheckoutService
	webhookService  service.WebhookService
}

func NewStripeHandler(checkoutService service.CheckoutService, webhookService service.WebhookService) *StripeHandler {
	return &StripeHandler{
		checkoutService: checkoutService,
		webhookService:  webhookService,
	}
}

func (h *StripeHandler) CreateCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.checkoutService.CreateCheckoutSession(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// Webhook answers 200 once the event is processed or known to be a
// duplicate, and 400 otherwise so the processor redelivers.
func (h *StripeHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.WebhookErrorResponse{Error: "could not read request body"})
	}

	result, err := h.webhookService.HandleWebhook(ctx, body, c.Request().Header.Get(signatureHeader))
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.WebhookErrorResponse{Error: apperr.From(err).Message})
	}

	return c.JSON(http.StatusOK, dto.WebhookResponse{
		Received: true,
		Status:   result.Status,
		OrderID:  result.OrderID,
	})
}
