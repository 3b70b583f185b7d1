package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rootstofarm.com/market/go-api/pkg/global"
	"rootstofarm.com/market/go-api/pkg/models"
)

func (h *Handler) ListFarmers(c *gin.Context) {
	list, err := h.Farmers.ListFarmers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("farmers", list))
}

func (h *Handler) GetFarmer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	profile, err := h.Farmers.GetFarmer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("farmer", profile))
}

func (h *Handler) GetFarmerProducts(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	products, err := h.Farmers.FarmerProducts(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("products", products))
}

func (h *Handler) CreateFarmerProfile(c *gin.Context) {
	var req models.FarmerProfileRequest
	if !bind(c, &req) {
		return
	}
	farmer, err := h.Farmers.CreateProfile(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse("farmer", farmer))
}

func (h *Handler) UpdateFarmerProfile(c *gin.Context) {
	var req models.FarmerProfileRequest
	if !bind(c, &req) {
		return
	}
	farmer, err := h.Farmers.UpdateProfile(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("farmer", farmer))
}

func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.Farmers.DashboardStats(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("stats", stats))
}

func (h *Handler) DashboardInsights(c *gin.Context) {
	report, err := h.Farmers.DashboardInsights(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("report", report))
}
