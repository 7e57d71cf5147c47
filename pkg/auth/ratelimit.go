package auth

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 3 * time.Minute

// NewRateLimiter throttles requests per client IP with a token bucket that
// refills perSecond tokens up to burst. Over the limit a request gets a 429.
func NewRateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: limiterIdleTTL,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(_ echo.Context, _ error) error {
			return errcodes.TooManyRequests()
		},
		DenyHandler: func(_ echo.Context, _ string, _ error) error {
			return errcodes.TooManyRequests()
		},
	})
}
