// Package catalog enumerates the payment platforms the service can integrate with.
package catalog

import (
	"strings"

	"github.com/gosimple/slug"
)

type Platform struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Logo            string `json:"logo"`
	Website         string `json:"website"`
	SupportsWebhook bool   `json:"supports_webhook"`
	SupportsRefund  bool   `json:"supports_refund"`
}

type entry struct {
	id          string
	name        string
	description string
	website     string
	refunds     bool
}

var entries = []entry{
	{name: "Doppus", description: "Plataforma de vendas de produtos digitais e assinaturas", website: "https://doppus.com", refunds: true},
	{name: "PagTrust", description: "Gateway de pagamentos com antifraude e split", website: "https://pagtrust.com.br", refunds: true},
	{name: "Hotmart", description: "Marketplace de produtos digitais e afiliados", website: "https://hotmart.com", refunds: true},
	{name: "Kiwify", description: "Checkout para infoprodutores", website: "https://kiwify.com.br", refunds: true},
	{name: "Eduzz", description: "Plataforma de vendas e entrega de conteúdo digital", website: "https://eduzz.com", refunds: true},
	{name: "Monetizze", description: "Plataforma de afiliados e produtos físicos e digitais", website: "https://monetizze.com.br"},
	{name: "Braip", description: "Checkout e gestão de afiliados", website: "https://braip.com"},
	{id: "perfectpay", name: "Perfect Pay", description: "Checkout de alta conversão para produtores", website: "https://perfectpay.com.br"},
	{name: "Ticto", description: "Plataforma de vendas para infoprodutos", website: "https://ticto.com.br"},
	{name: "Greenn", description: "Checkout com recorrência e order bump", website: "https://greenn.com.br"},
	{name: "Lastlink", description: "Assinaturas e comunidades pagas", website: "https://lastlink.com"},
	{name: "Cakto", description: "Checkout para produtos digitais", website: "https://cakto.com.br"},
	{name: "Yampi", description: "Checkout transparente para e-commerce", website: "https://yampi.com.br", refunds: true},
	{name: "Appmax", description: "Gateway e checkout para e-commerce", website: "https://appmax.com.br", refunds: true},
	{id: "pagarme", name: "Pagar.me", description: "Gateway de pagamentos online", website: "https://pagar.me", refunds: true},
	{id: "mercadopago", name: "Mercado Pago", description: "Pagamentos online e PIX", website: "https://mercadopago.com.br", refunds: true},
	{name: "PagSeguro", description: "Pagamentos online e maquininhas", website: "https://pagseguro.uol.com.br", refunds: true},
	{name: "Asaas", description: "Cobranças, boletos e PIX", website: "https://asaas.com", refunds: true},
	{name: "Iugu", description: "Cobrança recorrente e split de pagamentos", website: "https://iugu.com", refunds: true},
	{name: "Kirvano", description: "Checkout e área de membros", website: "https://kirvano.com"},
}

var (
	platforms []Platform
	byID      map[string]int
)

func init() {
	platforms = make([]Platform, 0, len(entries))
	byID = make(map[string]int, len(entries))
	for _, e := range entries {
		id := e.id
		if id == "" {
			id = slug.Make(e.name)
		}
		byID[id] = len(platforms)
		platforms = append(platforms, Platform{
			ID:              id,
			Name:            e.name,
			Description:     e.description,
			Logo:            "/logos/" + id + ".svg",
			Website:         e.website,
			SupportsWebhook: true,
			SupportsRefund:  e.refunds,
		})
	}
}

// Platforms returns the catalog in display order. The slice is a copy.
func Platforms() []Platform {
	out := make([]Platform, len(platforms))
	copy(out, platforms)
	return out
}

// IDs returns platform ids in display order.
func IDs() []string {
	ids := make([]string, len(platforms))
	for i, p := range platforms {
		ids[i] = p.ID
	}
	return ids
}

func Find(id string) (Platform, bool) {
	idx, ok := byID[Normalize(id)]
	if !ok {
		return Platform{}, false
	}
	return platforms[idx], true
}

func Exists(id string) bool {
	_, ok := byID[Normalize(id)]
	return ok
}

func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
