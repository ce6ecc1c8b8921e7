package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/server/http/dto"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	items, err := itemSet(req.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), usecase.CreateOrderRequest{
		BuyerID:  CurrentRequester(c).UserID,
		Products: items,
		Currency: req.Currency,
		Shipping: model.OrderDetail(req.Shipping),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(*order))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.facade.Order(c.Request.Context(), CurrentRequester(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.facade.Orders(c.Request.Context(), CurrentRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}

	c.JSON(http.StatusOK, response)
}

// Update handles PATCH /api/orders/:id.
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var update usecase.UpdateOrderRequest
	if req.Status != nil {
		status := model.OrderStatus(*req.Status)
		update.Status = &status
	}
	if req.Items != nil {
		items, err := itemSet(req.Items)
		if err != nil {
			respondError(c, err)
			return
		}
		update.Items = items
	}
	if req.Shipping != nil {
		patch := model.ShippingPatch(*req.Shipping)
		update.Shipping = &patch
	}

	order, err := h.facade.UpdateOrder(c.Request.Context(), CurrentRequester(c), id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// Delete handles DELETE /api/orders/:id.
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.facade.DeleteOrder(c.Request.Context(), CurrentRequester(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// itemSet converts the item list to a product to quantity map. The result is
// never nil so an explicit empty list still reaches validation.
func itemSet(items []dto.OrderItemRequest) (map[int64]int, error) {
	set := make(map[int64]int, len(items))
	for _, item := range items {
		if _, dup := set[item.ProductID]; dup {
			return nil, domainErrors.NewValidation("items", fmt.Sprintf("product %d is listed more than once", item.ProductID))
		}
		set[item.ProductID] = item.Quantity
	}
	return set, nil
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Currency:  item.Currency,
			Subtotal:  item.Subtotal(),
		})
	}

	resp := dto.OrderResponse{
		ID:        order.ID,
		UserID:    order.UserID,
		Status:    string(order.Status),
		Currency:  order.Currency,
		Total:     order.Total(),
		Items:     items,
		Shipping:  dto.Shipping(order.Detail),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	if order.Payment != nil {
		payment := toPaymentResponse(*order.Payment)
		resp.Payment = &payment
	}
	if order.Loyalty != nil {
		points := order.Loyalty.Points
		resp.LoyaltyPoints = &points
	}
	return resp
}
