package handler

import (
	"net/http"

	"gig-marketplace/internal/apperr"
	"gig-marketplace/internal/dto"
	"gig-marketplace/internal/middleware"
	"gig-marketplace/internal/model"
	"gig-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type OfferHandler struct {
	offerService service.OfferService
}

func NewOfferHandler(offerService service.OfferService) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
	}
}

func (h *OfferHandler) CreateOffer(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOfferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	offer, err := h.offerService.CreateOffer(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.NewOfferResponse(offer))
}

func (h *OfferHandler) GetOffer(c echo.Context) error {
	ctx := c.Request().Context()

	tier := model.Tier(c.Param("tier"))
	if !tier.Valid() {
		return apperr.BadInput("unknown tier "+string(tier), nil)
	}

	offer, err := h.offerService.GetOffer(ctx, c.Param("gigId"), tier)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOfferResponse(offer))
}

func (h *OfferHandler) ListOffers(c echo.Context) error {
	ctx := c.Request().Context()

	offers, err := h.offerService.ListOffersByGig(ctx, c.Param("gigId"))
	if err != nil {
		return err
	}

	resp := make([]*dto.OfferResponse, len(offers))
	for i, o := range offers {
		resp[i] = dto.NewOfferResponse(o)
	}

	return c.JSON(http.StatusOK, resp)
}
