// internal/api/account_handlers.go
// Account registration and authentication HTTP handlers

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tournament-core/internal/account"
	"tournament-core/internal/identity"
	"tournament-core/internal/utils"
)

// HandleRegister handles account creation
func HandleRegister(store *account.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DisplayName string `json:"display_name" binding:"required"`
			Email       string `json:"email" binding:"required"`
			Password    string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
			return
		}
		if err := utils.ValidateEmail(req.Email); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := utils.ValidatePassword(req.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		acc, err := store.Register(c.Request.Context(), req.DisplayName, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, account.ErrEmailTaken) {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register account"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"account_id": acc.ID.String()})
	}
}

// HandleLogin authenticates an account and mints a session token
func HandleLogin(store *account.Store, id *identity.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
			return
		}

		acc, err := store.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}

		token, err := id.Mint(acc.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mint token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"account_id": acc.ID.String(),
			"token":      token,
		})
	}
}
