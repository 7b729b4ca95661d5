package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// mentorMiddleware gates a route on the mentor claim. The claim reflects the
// role at token issuance; services re-verify against the stored user before
// any privileged write.
func mentorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsMentor {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
