package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/conduct-api/internal/middleware"
	"github.com/noah-isme/conduct-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// queryInt parses an integer query parameter, returning ok=false when absent
// or malformed.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// queryGroup parses the optional group scope. Nil means the whole class.
// Accepts both group_number and the shorter group.
func queryGroup(c *gin.Context) *int {
	for _, name := range []string{"group_number", "group"} {
		if v, ok := queryInt(c, name); ok && v > 0 {
			return &v
		}
	}
	return nil
}
