package middleware

// identity.go holds the identity extraction shared by middleware files.
// currentUserID reads the user_id value that JWTAuth stored in the Echo
// context; rate-limit keys use it to scope buckets per operator.  When
// no user is authenticated, "anon" is returned.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user's identifier from the
// context, or "anon" when the request carries no usable identity.  JWT
// numeric claims decode as float64, so both representations are handled.
func currentUserID(c echo.Context) string {
	for _, key := range []string{"user_id", "userID"} {
		switch v := c.Get(key).(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatUint(uint64(v), 10)
		case uint64:
			return strconv.FormatUint(v, 10)
		}
	}
	return "anon"
}
