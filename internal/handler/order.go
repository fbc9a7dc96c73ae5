package handler

import (
	"context"
	"net/http"

	"gig-marketplace/internal/apperr"
	"gig-marketplace/internal/dto"
	"gig-marketplace/internal/model"
	"gig-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetOrder(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

// ListOrders filters by exactly one of buyer_id, gig_id or seller_id.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	filters := map[string]func(context.Context, string) ([]*model.Order, error){
		"buyer_id":  h.orderService.ListByBuyer,
		"gig_id":    h.orderService.ListByGig,
		"seller_id": h.orderService.ListBySeller,
	}

	var (
		list func(context.Context, string) ([]*model.Order, error)
		key  string
	)
	for param, fn := range filters {
		if v := c.QueryParam(param); v != "" {
			if list != nil {
				list = nil
				break
			}
			list, key = fn, v
		}
	}
	if list == nil {
		return apperr.BadInput("exactly one of buyer_id, gig_id or seller_id is required", nil)
	}

	orders, err := list(ctx, key)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.NewOrderResponses(orders))
}
