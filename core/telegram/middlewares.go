package telegram

import (
	coreconfig "github.com/okhomin/freightbot/core/config"
	"github.com/okhomin/freightbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain for bots.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil && cfg.RateLimit.Enabled && cfg.RateLimit.Interval > 0 {
		opts := middleware.RateLimitOptions{
			Interval: cfg.RateLimit.Interval,
			Burst:    cfg.RateLimit.Burst,
			// callbacks stay responsive even under per-user throttling
			Exclude: map[string]struct{}{"callback": {}},
		}
		if onLimited != nil {
			opts.OnLimited = onLimited
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use:  middleware.RateLimitMiddleware(opts),
		})
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)

	return mws
}
