package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rootstofarm.com/market/go-api/pkg/global"
	"rootstofarm.com/market/go-api/pkg/models"
)

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bind(c, &req) {
		return
	}
	session, err := h.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessFields(map[string]interface{}{
		"token": session.Token,
		"user":  session.User,
		"cart":  session.Cart,
	}))
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bind(c, &req) {
		return
	}
	session, err := h.Auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessFields(map[string]interface{}{
		"token": session.Token,
		"user":  session.User,
		"cart":  session.Cart,
	}))
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.Auth.Me(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("user", user))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Auth.UpdateProfile(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("user", user))
}
