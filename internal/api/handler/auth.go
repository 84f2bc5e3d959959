package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const playerIDContextKey = "playerID"

// GetAnonID mints an anonymous player identity: a fresh UUID wrapped in a
// signed JWT. The id stays stable for as long as the client keeps the
// token, which is all the duel flows need.
func (h *Handler) GetAnonID(c *gin.Context) {
	playerID := uuid.New().String()

	claims := jwt.MapClaims{
		"player_id": playerID,
		"exp":       time.Now().Add(72 * time.Hour).Unix(),
		"iss":       "reflexduel-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.JWTSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": signed, "player_id": playerID})
}

// RequirePlayer validates the bearer token and stores the caller's player
// id on the request context for the game handlers.
func (h *Handler) RequirePlayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, err := h.playerIDFromRequest(c)
		if err != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err})
			return
		}
		c.Set(playerIDContextKey, playerID)
		c.Next()
	}
}

// playerIDFromRequest extracts and validates the bearer token. Returns the
// player id, or a non-empty error message for the client.
func (h *Handler) playerIDFromRequest(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "Authorization token missing"
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return "", "Invalid token or expired"
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "Invalid token claims"
	}
	playerID, _ := claims["player_id"].(string)
	if playerID == "" {
		return "", "Invalid token claims"
	}
	return playerID, ""
}

func callerID(c *gin.Context) string {
	return c.GetString(playerIDContextKey)
}
