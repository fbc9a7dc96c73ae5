package handler

import (
	"net/http"

	"gig-marketplace/internal/dto"
	"gig-marketplace/internal/middleware"
	"gig-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type SellerHandler struct {
	sellerService service.SellerService
}

func NewSellerHandler(sellerService service.SellerService) *SellerHandler {
	return &SellerHandler{
		sellerService: sellerService,
	}
}

func (h *SellerHandler) RegisterSeller(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterSellerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sellerID, err := h.sellerService.RegisterSeller(ctx, req.Username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"id": sellerID,
	})
}

func (h *SellerHandler) ConnectPayoutAccount(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := ownSellerID(c)
	if err != nil {
		return err
	}

	var req dto.ConnectPayoutAccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.sellerService.ConnectPayoutAccount(ctx, sellerID, req.AccountID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "connected",
	})
}

func (h *SellerHandler) RefreshPayoutStatus(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, err := ownSellerID(c)
	if err != nil {
		return err
	}

	seller, err := h.sellerService.RefreshPayoutStatus(ctx, sellerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewSellerResponse(seller))
}

// ownSellerID only lets sellers manage their own payout account.
func ownSellerID(c echo.Context) (string, error) {
	sellerID := c.Param("id")
	if sellerID != middleware.UserID(c) {
		return "", echo.NewHTTPError(http.StatusForbidden, "cannot manage another seller's payout account")
	}
	return sellerID, nil
}
