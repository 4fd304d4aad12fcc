package ratelimit

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewLimiter),
	fx.Invoke(func(lc fx.Lifecycle, l *Limiter) {
		lc.Append(fx.StopHook(func(context.Context) error {
			return l.Close()
		}))
	}),
)
