package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pulsedash/pulse-backend-go/pkg/utils"
)

// LoginRequest is the PIN exchange payload.
type LoginRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// Login exchanges the configured PIN for a signed JWT.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "pin is required")
		return
	}

	if !h.cfg.Auth.Enabled {
		utils.SendError(c, http.StatusNotFound, "Authentication is disabled")
		return
	}
	if req.PIN != h.cfg.Auth.PIN {
		h.logger.WithField("client_ip", c.ClientIP()).Warn("Failed login attempt")
		utils.SendError(c, http.StatusUnauthorized, "Invalid PIN")
		return
	}

	expiry := time.Duration(h.cfg.Auth.TokenExpiry) * time.Second
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		Issuer:    "pulse-backend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.Auth.JWTSecret))
	if err != nil {
		h.logger.WithError(err).Error("Failed to sign token")
		utils.SendError(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	utils.SendSuccess(c, gin.H{
		"token":      signed,
		"expires_at": now.Add(expiry).UTC(),
	})
}
