package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ambro01/simple-calories-sub000/services"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (ac *AuthController) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.auth.Register(req.Email, req.Password, req.FullName)
	if err != nil {
		respondError(c, "auth.register", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := ac.auth.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, "auth.login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
