// Package vendors holds the definition of every supported payment platform:
// endpoints, auth scheme, webhook events, status vocabulary and payload
// normalizer.
package vendors

import (
	"github.com/smallbiznis/paybridge/internal/platform/adapter"
	"github.com/smallbiznis/paybridge/internal/platform/domain"
)

// Definitions returns one vendor per catalog platform, in catalog order.
func Definitions() []adapter.Vendor {
	return []adapter.Vendor{
		doppusVendor(),
		pagtrustVendor(),
		hotmartVendor(),
		kiwifyVendor(),
		eduzzVendor(),
		monetizzeVendor(),
		braipVendor(),
		perfectpayVendor(),
		tictoVendor(),
		greennVendor(),
		lastlinkVendor(),
		caktoVendor(),
		yampiVendor(),
		appmaxVendor(),
		pagarmeVendor(),
		mercadopagoVendor(),
		pagseguroVendor(),
		asaasVendor(),
		iuguVendor(),
		kirvanoVendor(),
	}
}

// Lookup returns the definition of a single vendor.
func Lookup(platform string) (adapter.Vendor, bool) {
	for _, v := range Definitions() {
		if v.Platform == platform {
			return v, true
		}
	}
	return adapter.Vendor{}, false
}

// All binds every vendor definition to the shared adapter dependencies.
func All(deps adapter.Deps) []domain.AdapterFactory {
	defs := Definitions()
	out := make([]domain.AdapterFactory, 0, len(defs))
	for _, v := range defs {
		out = append(out, adapter.NewFactory(v, deps))
	}
	return out
}
