package webhook

import (
	"github.com/smallbiznis/paybridge/internal/platform/webhook/repository"
	"github.com/smallbiznis/paybridge/internal/platform/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("platform.webhook",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
