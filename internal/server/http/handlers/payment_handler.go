package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/server/http/dto"
	"github.com/polkiloo/marketplace/internal/usecase"
)

// PaymentHandler settles orders.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Pay handles POST /api/orders/:id/payment.
func (h *PaymentHandler) Pay(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	settlement, err := h.facade.Pay(c.Request.Context(), usecase.PaymentRequest{
		Requester:    CurrentRequester(c),
		OrderID:      id,
		ProviderName: req.ProviderName,
		Amount:       req.Amount,
		Currency:     req.Currency,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SettlementResponse{
		Payment:       toPaymentResponse(settlement.Payment),
		ReceiptURL:    settlement.ReceiptURL,
		LoyaltyPoints: settlement.Points,
	})
}

func toPaymentResponse(p model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:                p.ID,
		ProviderName:      p.ProviderName,
		ProviderPaymentID: p.ProviderPaymentID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		CreatedAt:         p.CreatedAt,
	}
}
