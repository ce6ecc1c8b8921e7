package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/server/http/dto"
)

// LoyaltyHandler manages loyalty points endpoints.
type LoyaltyHandler struct {
	facade LoyaltyFacade
}

// NewLoyaltyHandler constructs LoyaltyHandler.
func NewLoyaltyHandler(facade LoyaltyFacade) *LoyaltyHandler {
	return &LoyaltyHandler{facade: facade}
}

// Balance handles GET /api/user/loyalty.
func (h *LoyaltyHandler) Balance(c *gin.Context) {
	balance, err := h.facade.Balance(c.Request.Context(), CurrentRequester(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoyaltyBalanceResponse{Current: balance.Current, Redeemed: balance.Redeemed})
}

// History handles GET /api/user/loyalty/transactions.
func (h *LoyaltyHandler) History(c *gin.Context) {
	history, err := h.facade.LoyaltyHistory(c.Request.Context(), CurrentRequester(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(history) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.LoyaltyTransactionResponse, 0, len(history))
	for _, tx := range history {
		resp = append(resp, toTransactionResponse(tx))
	}
	c.JSON(http.StatusOK, resp)
}

// Redeem handles POST /api/user/loyalty/redeem.
func (h *LoyaltyHandler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tx, err := h.facade.Redeem(c.Request.Context(), CurrentRequester(c), req.OrderID, req.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(*tx))
}

func toTransactionResponse(tx model.LoyaltyTransaction) dto.LoyaltyTransactionResponse {
	resp := dto.LoyaltyTransactionResponse{
		ID:        tx.ID,
		Kind:      string(tx.Kind),
		Points:    tx.Points,
		CreatedAt: tx.CreatedAt,
	}
	if tx.OrderID != 0 {
		orderID := tx.OrderID
		resp.OrderID = &orderID
	}
	return resp
}
