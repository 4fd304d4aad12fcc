package syncer

import "go.uber.org/fx"

var Module = fx.Module("platform.sync",
	fx.Provide(New),
)
