package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/backoffice-api/internal/application/service"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/request"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/response"
)

// RewardsHandler handles loyalty program HTTP requests
type RewardsHandler struct {
	rewardsService *service.RewardsService
}

// NewRewardsHandler creates a new rewards handler
func NewRewardsHandler(rewardsService *service.RewardsService) *RewardsHandler {
	return &RewardsHandler{rewardsService: rewardsService}
}

// Enable handles enrolling a customer in the program
func (h *RewardsHandler) Enable(c *gin.Context) {
	id, ok := parseID(c, "customer")
	if !ok {
		return
	}

	var req request.EnableRewardsRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	customer, err := h.rewardsService.Enable(c.Request.Context(), id, service.EnableRewardsInput{
		ReferentPhone: req.ReferentPhone,
		ReferentName:  req.ReferentName,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Rewards enabled", customer)
}

// AcceptTerms handles recording that a member accepted the program terms
func (h *RewardsHandler) AcceptTerms(c *gin.Context) {
	id, ok := parseID(c, "customer")
	if !ok {
		return
	}

	customer, err := h.rewardsService.AcceptTerms(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Terms accepted", customer)
}

// Search handles finding a member by phone or name
func (h *RewardsHandler) Search(c *gin.Context) {
	profile, err := h.rewardsService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Member found", profile)
}

// Redeem handles exchanging points for a prize
func (h *RewardsHandler) Redeem(c *gin.Context) {
	var req request.RedeemRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.rewardsService.Redeem(c.Request.Context(), service.RedeemInput{
		CustomerID: req.CustomerID,
		PrizeID:    req.PrizeID,
		OrderID:    req.OrderID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, "Prize redeemed", result)
}

// ListPrizes handles listing the active prizes
func (h *RewardsHandler) ListPrizes(c *gin.Context) {
	prizes, err := h.rewardsService.ListPrizes(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Prizes retrieved successfully", prizes)
}

// CreatePrize handles adding a prize to the catalogue
func (h *RewardsHandler) CreatePrize(c *gin.Context) {
	var req request.CreatePrizeRequest
	if !bindJSON(c, &req) {
		return
	}

	prize, err := h.rewardsService.CreatePrize(c.Request.Context(), service.CreatePrizeInput{
		ProductID:      req.ProductID,
		ProductName:    req.ProductName,
		ProductCost:    req.ProductCost,
		PointsRequired: req.PointsRequired,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, "Prize created successfully", prize)
}

// DeactivatePrize handles withdrawing a prize
func (h *RewardsHandler) DeactivatePrize(c *gin.Context) {
	id, ok := parseID(c, "prize")
	if !ok {
		return
	}

	if err := h.rewardsService.DeactivatePrize(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	response.NoContent(c)
}

// GetConfig handles reading the program rules
func (h *RewardsHandler) GetConfig(c *gin.Context) {
	cfg, err := h.rewardsService.GetConfig(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Rewards config retrieved successfully", cfg)
}

// UpdateConfig handles changing the program rules
func (h *RewardsHandler) UpdateConfig(c *gin.Context) {
	var req request.UpdateRewardsConfigRequest
	if !bindJSON(c, &req) {
		return
	}

	cfg, err := h.rewardsService.UpdateConfig(c.Request.Context(), service.UpdateRewardsConfigInput{
		MinPurchaseAmount:       req.MinPurchaseAmount,
		PointsPerPurchase:       req.PointsPerPurchase,
		PointsForPrize:          req.PointsForPrize,
		MaxReferralsPerMonth:    req.MaxReferralsPerMonth,
		ReferralValidityDays:    req.ReferralValidityDays,
		MaxPrizeCost:            req.MaxPrizeCost,
		SuperPrizeRequirements:  req.SuperPrizeRequirements,
		SuperPrizePeriodMonths:  req.SuperPrizePeriodMonths,
		MaxSuperPrizesPerPeriod: req.MaxSuperPrizesPerPeriod,
		SuperPrizeProductName:   req.SuperPrizeProductName,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Rewards config updated successfully", cfg)
}
