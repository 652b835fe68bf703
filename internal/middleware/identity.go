package middleware

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID returns a stable string form of the authenticated
// user for cache and rate-limit key building. JWTAuth stores the raw
// "sub" claim, which arrives as a float64 after JSON decoding; an
// unauthenticated request maps to "anon".
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case nil:
		return "anon"
	case string:
		if v != "" {
			return v
		}
		return "anon"
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
