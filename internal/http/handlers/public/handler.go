package public

import "github.com/storefront-next/internal/provider"

// Handler storefront-facing API handlers, serving both guests and
// logged-in users.
type Handler struct {
	*provider.Container
}

// New creates the storefront handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
