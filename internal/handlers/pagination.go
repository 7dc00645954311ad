package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// parseLimit reads ?limit=. Missing means fallback; values above max are capped.
func parseLimit(c *fiber.Ctx, fallback, max int) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return fallback, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, false
	}
	if limit > max {
		limit = max
	}
	return limit, true
}
