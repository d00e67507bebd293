package public

import (
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionHeader carries the guest cart session for unauthenticated
// requests. Logged-in requests ignore it.
const SessionHeader = "X-Session-Id"

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}

// cartKeyForRequest resolves the cart identity for the request: the
// authenticated user when present, otherwise the guest session header.
// Writes the error response itself when neither is available.
func cartKeyForRequest(c *gin.Context) (service.CartKey, bool) {
	if value, exists := c.Get("user_id"); exists {
		if uid, ok := value.(uint); ok && uid > 0 {
			return service.UserCartKey(uid), true
		}
	}
	sessionID := strings.TrimSpace(c.GetHeader(SessionHeader))
	if sessionID != "" {
		return service.GuestCartKey(sessionID), true
	}
	respondError(c, response.CodeBadRequest, "missing session", nil)
	return "", false
}

func guestSessionID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(SessionHeader))
}
