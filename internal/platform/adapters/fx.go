package adapters

import (
	"github.com/smallbiznis/paybridge/internal/config"
	obsmetrics "github.com/smallbiznis/paybridge/internal/observability/metrics"
	"github.com/smallbiznis/paybridge/internal/platform/adapter"
	"github.com/smallbiznis/paybridge/internal/platform/vendorhttp"
	"github.com/smallbiznis/paybridge/internal/platform/vendors"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("platform.adapters",
	fx.Provide(NewRegistryFromConfig),
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	Store      txdomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// NewRegistryFromConfig registers every supported vendor, sharing one
// outbound rate limiter pool.
func NewRegistryFromConfig(p Params) *Registry {
	deps := adapter.Deps{
		Writer:   p.Store,
		Log:      p.Log,
		Metrics:  p.ObsMetrics,
		Limiters: vendorhttp.NewLimiterPool(p.Cfg.Vendor.RequestsPerSec, p.Cfg.Vendor.Burst),
		Timeout:  p.Cfg.Vendor.Timeout,
	}
	return NewRegistry(vendors.All(deps)...)
}
