package vendors

import (
	"github.com/smallbiznis/paybridge/internal/platform/adapter"
	"github.com/smallbiznis/paybridge/internal/platform/normalize"
	"github.com/smallbiznis/paybridge/internal/platform/status"
	"github.com/smallbiznis/paybridge/internal/platform/vendorhttp"
)

// Digital product marketplaces.
const (
	Hotmart    = "hotmart"
	Kiwify     = "kiwify"
	Eduzz      = "eduzz"
	Monetizze  = "monetizze"
	Braip      = "braip"
	PerfectPay = "perfectpay"
	Ticto      = "ticto"
	Greenn     = "greenn"
	LastLink   = "lastlink"
	Cakto      = "cakto"
	Kirvano    = "kirvano"
)

func prefixes(extra ...string) []string {
	out := make([]string, 0, len(extra)+len(adapter.DefaultEventPrefixes))
	out = append(out, extra...)
	return append(out, adapter.DefaultEventPrefixes...)
}

func fieldMapVendor(v adapter.Vendor, fm normalize.FieldMap, vocab status.Vocabulary) adapter.Vendor {
	v.Status = status.NewMapper(vocab)
	v.Normalize = fm.Normalizer(v.Platform, v.Status)
	if len(v.EventPrefixes) == 0 {
		v.EventPrefixes = adapter.DefaultEventPrefixes
	}
	return v
}

func hotmartVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      Hotmart,
		BaseURL:       "https://developers.hotmart.com/payments/api/v1",
		SandboxURL:    "https://sandbox.hotmart.com/payments/api/v1",
		Auth:          vendorhttp.AuthBearer,
		OrdersPath:    "/sales/history",
		ListKey:       "items",
		WebhookPath:   "/webhooks",
		WebhookEvents: []string{"PURCHASE_APPROVED", "PURCHASE_COMPLETE", "PURCHASE_CANCELED", "PURCHASE_REFUNDED", "PURCHASE_CHARGEBACK", "PURCHASE_BILLET_PRINTED"},
		EventPrefixes: prefixes("purchase_"),
	}, normalize.FieldMap{
		ID:               []string{"purchase.transaction", "transaction"},
		OrderID:          []string{"purchase.order_ref", "purchase.transaction"},
		Amount:           []string{"purchase.price.value", "purchase.full_price.value"},
		Currency:         []string{"purchase.price.currency_value", "purchase.price.currency_code"},
		Status:           []string{"purchase.status", "status"},
		PaymentMethod:    []string{"purchase.payment.type"},
		CreatedAt:        []string{"purchase.order_date", "creation_date"},
		UpdatedAt:        []string{"purchase.approved_date", "purchase.order_date"},
		Customer:         "buyer",
		CustomerName:     []string{"name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"checkout_phone", "phone"},
		CustomerDocument: []string{"document"},
		Product:          "product",
		ItemID:           []string{"id", "ucode"},
		ItemName:         []string{"name"},
		Metadata:         []string{"affiliates", "producer", "commissions", "subscription", "purchase.payment", "purchase.offer"},
	}, status.Vocabulary{
		Completed: []string{"approved", "complete", "completed"},
		Pending:   []string{"waiting_payment", "billet_printed", "started", "under_analisys", "under_analysis", "printed_billet", "delayed"},
	})
}

func kiwifyVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      Kiwify,
		BaseURL:       "https://public-api.kiwify.com.br/v1",
		SandboxURL:    "https://sandbox-api.kiwify.com.br/v1",
		Auth:          vendorhttp.AuthBearer,
		OrdersPath:    "/sales",
		ListKey:       "data",
		WebhookPath:   "/webhooks",
		WebhookEvents: []string{"order_approved", "order_refunded", "order_rejected", "billet_created", "pix_created", "chargeback", "subscription_canceled"},
		EventPrefixes: prefixes("order_", "pix_", "billet_", "chargeback"),
	}, normalize.FieldMap{
		ID:               []string{"order_id", "id"},
		OrderID:          []string{"order_ref", "reference"},
		Amount:           []string{"Commissions.charge_amount", "net_amount", "amount"},
		AmountInCents:    true,
		Currency:         []string{"Commissions.currency", "currency"},
		Status:           []string{"order_status", "status"},
		PaymentMethod:    []string{"payment_method"},
		CreatedAt:        []string{"created_at"},
		UpdatedAt:        []string{"updated_at", "approved_date"},
		Customer:         "Customer",
		CustomerName:     []string{"full_name", "name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"mobile", "phone"},
		CustomerDocument: []string{"CPF", "cnpj"},
		Product:          "Product",
		ItemID:           []string{"product_id", "id"},
		ItemName:         []string{"product_name", "name"},
		Metadata:         []string{"Commissions", "Subscription", "TrackingParameters", "installments", "card_type"},
	}, status.Vocabulary{
		Completed: []string{"paid", "approved", "completed"},
		Pending:   []string{"waiting_payment", "pending", "processing", "authorized"},
	})
}

func eduzzVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:        Eduzz,
		BaseURL:         "https://api2.eduzz.com",
		SandboxURL:      "https://sandbox-api2.eduzz.com",
		Auth:            vendorhttp.AuthHeaderPair,
		APIKeyHeader:    "PublicKey",
		SecretKeyHeader: "ApiKey",
		OrdersPath:      "/sale/get_sale_list",
		ListKey:         "data",
		WebhookPath:     "/webhook",
		WebhookEvents:   []string{"invoice_paid", "invoice_open", "invoice_canceled", "invoice_refunded"},
		EventPrefixes:   prefixes("invoice_", "sale_"),
	}, normalize.FieldMap{
		ID:               []string{"trans_cod", "sale_id"},
		OrderID:          []string{"trans_cod", "sale_id"},
		Amount:           []string{"trans_value", "sale_net_gain", "sale_amount_win"},
		Currency:         []string{"trans_currency"},
		Status:           []string{"trans_status", "sale_status_name", "sale_status"},
		PaymentMethod:    []string{"trans_paymentmethod", "sale_payment_method"},
		CreatedAt:        []string{"trans_createdate", "date_create"},
		UpdatedAt:        []string{"trans_paiddate", "date_payment"},
		Customer:         ".",
		CustomerName:     []string{"cus_name", "client_name"},
		CustomerEmail:    []string{"cus_email", "client_email"},
		CustomerPhone:    []string{"cus_cel", "client_cel"},
		CustomerDocument: []string{"cus_taxnumber", "client_document"},
		Product:          ".",
		ItemID:           []string{"product_cod", "content_id"},
		ItemName:         []string{"product_name", "content_title"},
		ItemPrice:        []string{"trans_value"},
		Metadata:         []string{"aff_cod", "aff_name", "trans_installments", "utm_source", "utm_campaign"},
	}, status.Vocabulary{
		// Eduzz numeric status codes: 3 paid, 1 open, 6 awaiting refund, 11 recovering.
		Completed: []string{"3", "paid", "paga"},
		Pending:   []string{"1", "11", "open", "aberta", "recovering"},
	})
}

func monetizzeVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      Monetizze,
		BaseURL:       "https://api.monetizze.com.br/2.1",
		SandboxURL:    "https://sandbox.monetizze.com.br/2.1",
		Auth:          vendorhttp.AuthHeaderPair,
		APIKeyHeader:  "X_CONSUMER_KEY",
		OrdersPath:    "/transactions",
		ListKey:       "dados",
		WebhookPath:   "/postback",
		WebhookEvents: []string{"venda.finalizada", "venda.aguardando", "venda.cancelada", "venda.devolvida"},
		EventPrefixes: prefixes("venda."),
	}, normalize.FieldMap{
		ID:               []string{"venda.codigo"},
		OrderID:          []string{"venda.codigo"},
		Amount:           []string{"venda.valor", "venda.valorRecebido"},
		Status:           []string{"venda.status"},
		PaymentMethod:    []string{"venda.formaPagamento"},
		CreatedAt:        []string{"venda.dataInicio"},
		UpdatedAt:        []string{"venda.dataFinalizada", "venda.dataInicio"},
		Customer:         "comprador",
		CustomerName:     []string{"nome"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"telefone"},
		CustomerDocument: []string{"cnpj_cpf"},
		Product:          "produto",
		ItemID:           []string{"codigo"},
		ItemName:         []string{"nome"},
		Metadata:         []string{"comissoes", "assinatura", "venda.parcelas", "venda.cupom"},
	}, status.Vocabulary{
		Completed: []string{"finalizada", "completa", "2", "6"},
		Pending:   []string{"aguardando pagamento", "aguardando", "1"},
	})
}

func braipVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      Braip,
		BaseURL:       "https://ev.braip.com/api",
		SandboxURL:    "https://sandbox.braip.com/api",
		Auth:          vendorhttp.AuthBearer,
		OrdersPath:    "/vendas",
		ListKey:       "data",
		WebhookPath:   "/postback",
		WebhookEvents: []string{"venda_aprovada", "venda_aguardando", "venda_cancelada", "venda_reembolsada", "venda_chargeback"},
		EventPrefixes: prefixes("venda_"),
	}, normalize.FieldMap{
		ID:               []string{"trans_key"},
		OrderID:          []string{"trans_key"},
		Amount:           []string{"trans_value", "trans_total_value"},
		AmountInCents:    true,
		Status:           []string{"trans_status"},
		PaymentMethod:    []string{"trans_payment"},
		CreatedAt:        []string{"trans_createdate"},
		UpdatedAt:        []string{"trans_updatedate", "trans_createdate"},
		Customer:         ".",
		CustomerName:     []string{"client_name"},
		CustomerEmail:    []string{"client_email"},
		CustomerPhone:    []string{"client_cel"},
		CustomerDocument: []string{"client_documment", "client_document"},
		Product:          ".",
		ItemID:           []string{"product_key"},
		ItemName:         []string{"product_name"},
		Metadata:         []string{"commissions", "plan_key", "trans_installments", "meta"},
	}, status.Vocabulary{
		Completed: []string{"pagamento aprovado", "aprovado", "2"},
		Pending:   []string{"aguardando pagamento", "em análise", "1", "10"},
	})
}

func perfectpayVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      PerfectPay,
		BaseURL:       "https://app.perfectpay.com.br/api/v1",
		SandboxURL:    "https://sandbox.perfectpay.com.br/api/v1",
		Auth:          vendorhttp.AuthBearer,
		OrdersPath:    "/sales/get",
		ListKey:       "sales",
		WebhookPath:   "/webhooks",
		WebhookEvents: []string{"sale_approved", "sale_pending", "sale_refunded", "sale_chargeback", "sale_canceled"},
		EventPrefixes: prefixes("sale_"),
	}, normalize.FieldMap{
		ID:               []string{"code"},
		OrderID:          []string{"code"},
		Amount:           []string{"sale_amount"},
		Currency:         []string{"currency_enum_key"},
		Status:           []string{"sale_status_enum_key", "sale_status_detail"},
		PaymentMethod:    []string{"payment_type_enum_key"},
		CreatedAt:        []string{"date_created"},
		UpdatedAt:        []string{"date_approved", "date_created"},
		Customer:         "customer",
		CustomerName:     []string{"full_name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"phone_number"},
		CustomerDocument: []string{"identification_number"},
		Product:          "product",
		ItemID:           []string{"code"},
		ItemName:         []string{"name"},
		Metadata:         []string{"plan", "affiliate", "commission", "installments", "metadata"},
	}, status.Vocabulary{
		Completed: []string{"approved", "completed"},
		Pending:   []string{"pending", "in_process", "in_review", "authorized"},
	})
}

func tictoVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      Ticto,
		BaseURL:       "https://glados.ticto.cloud/api/v1",
		SandboxURL:    "https://sandbox.ticto.cloud/api/v1",
		Auth:          vendorhttp.AuthBearer,
		OrdersPath:    "/orders",
		ListKey:       "data",
		WebhookPath:   "/webhooks",
		WebhookEvents: []string{"authorized", "waiting_payment", "refused", "refunded", "chargeback"},
		EventPrefixes: prefixes("authorized", "waiting_payment", "refused", "refunded", "chargeback"),
	}, normalize.FieldMap{
		ID:               []string{"order.hash", "order.id"},
		OrderID:          []string{"order.hash"},
		Amount:           []string{"order.paid_amount", "order.total"},
		AmountInCents:    true,
		Status:           []string{"status", "order.status"},
		PaymentMethod:    []string{"payment_method"},
		CreatedAt:        []string{"order.order_date", "order.created_at"},
		UpdatedAt:        []string{"order.updated_at", "order.order_date"},
		Customer:         "customer",
		CustomerName:     []string{"name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"phone.number"},
		CustomerDocument: []string{"cpf", "cnpj"},
		Items:            "order.items",
		Product:          "item",
		ItemID:           []string{"product_id", "id"},
		ItemName:         []string{"product_name", "name"},
		ItemPrice:        []string{"amount", "price"},
		ItemQuantity:     []string{"quantity"},
		Metadata:         []string{"affiliates", "producer", "tracking", "order.installments", "subscriptions"},
	}, status.Vocabulary{
		Completed: []string{"approved", "paid"},
		Pending:   []string{"waiting_payment", "pending", "processing", "authorized"},
	})
}

func greennVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      Greenn,
		BaseURL:       "https://api.greenn.com.br/api",
		SandboxURL:    "https://sandbox.greenn.com.br/api",
		Auth:          vendorhttp.AuthBearer,
		OrdersPath:    "/sales",
		ListKey:       "data",
		WebhookPath:   "/webhooks",
		WebhookEvents: []string{"sale.paid", "sale.waiting_payment", "sale.refused", "sale.refunded", "sale.chargedback"},
		EventPrefixes: prefixes("sale."),
	}, normalize.FieldMap{
		ID:               []string{"sale.id"},
		OrderID:          []string{"sale.id"},
		Amount:           []string{"sale.amount", "sale.total"},
		Status:           []string{"sale.status", "currentStatus"},
		PaymentMethod:    []string{"sale.method"},
		CreatedAt:        []string{"sale.created_at"},
		UpdatedAt:        []string{"sale.updated_at", "sale.created_at"},
		Customer:         "client",
		CustomerName:     []string{"name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"cellphone", "phone"},
		CustomerDocument: []string{"document", "cpf_cnpj"},
		Product:          "product",
		ItemID:           []string{"id"},
		ItemName:         []string{"name"},
		ItemPrice:        []string{"amount"},
		Metadata:         []string{"seller", "affiliate", "contract", "sale.installments", "sale.offer"},
	}, status.Vocabulary{
		Completed: []string{"paid", "approved"},
		Pending:   []string{"waiting_payment", "pending", "processing", "trialing"},
	})
}

func lastlinkVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      LastLink,
		BaseURL:       "https://api.lastlink.com/v1",
		SandboxURL:    "https://sandbox-api.lastlink.com/v1",
		Auth:          vendorhttp.AuthBearer,
		OrdersPath:    "/purchases",
		ListKey:       "Data",
		WebhookPath:   "/webhooks",
		WebhookEvents: []string{"Purchase_Order_Confirmed", "Payment_Refund", "Payment_Chargeback", "Subscription_Canceled"},
		EventPrefixes: prefixes("purchase_", "payment_"),
	}, normalize.FieldMap{
		ID:               []string{"Purchase.PaymentId", "Id"},
		OrderID:          []string{"Purchase.OrderId", "Id"},
		Amount:           []string{"Purchase.Price.Value", "Purchase.Amount"},
		Currency:         []string{"Purchase.Price.Currency"},
		Status:           []string{"Purchase.Status", "Status"},
		PaymentMethod:    []string{"Purchase.Payment.PaymentMethod"},
		CreatedAt:        []string{"CreatedAt"},
		UpdatedAt:        []string{"Purchase.PaymentDate", "CreatedAt"},
		Customer:         "Buyer",
		CustomerName:     []string{"Name"},
		CustomerEmail:    []string{"Email"},
		CustomerPhone:    []string{"PhoneNumber"},
		CustomerDocument: []string{"Document"},
		Items:            "Products",
		ItemID:           []string{"Id"},
		ItemName:         []string{"Name"},
		ItemPrice:        []string{"Price"},
		Metadata:         []string{"Subscriptions", "Affiliate", "Purchase.Payment", "Utm"},
	}, status.Vocabulary{
		Completed: []string{"confirmed", "paid", "approved"},
		Pending:   []string{"pending", "waiting_payment", "processing"},
	})
}

func caktoVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      Cakto,
		BaseURL:       "https://api.cakto.com.br/public_api",
		SandboxURL:    "https://sandbox.cakto.com.br/public_api",
		Auth:          vendorhttp.AuthBasic,
		OrdersPath:    "/orders",
		ListKey:       "results",
		WebhookPath:   "/webhooks",
		WebhookEvents: []string{"purchase_approved", "purchase_refused", "refund", "chargeback", "pix_gerado", "boleto_gerado"},
		EventPrefixes: prefixes("purchase_", "refund", "chargeback", "pix_", "boleto_"),
	}, normalize.FieldMap{
		ID:               []string{"id"},
		OrderID:          []string{"refId", "id"},
		Amount:           []string{"amount", "baseAmount"},
		Status:           []string{"status"},
		PaymentMethod:    []string{"paymentMethod"},
		CreatedAt:        []string{"createdAt"},
		UpdatedAt:        []string{"paidAt", "createdAt"},
		Customer:         "customer",
		CustomerName:     []string{"name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"phone"},
		CustomerDocument: []string{"docNumber"},
		Product:          "product",
		ItemID:           []string{"id"},
		ItemName:         []string{"name"},
		ItemPrice:        []string{"price"},
		Metadata:         []string{"offer", "affiliate", "commissions", "utm_source", "installments", "pix", "boleto"},
	}, status.Vocabulary{
		Completed: []string{"paid", "approved"},
		Pending:   []string{"waiting_payment", "pending", "processing", "authorized"},
	})
}

func kirvanoVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      Kirvano,
		BaseURL:       "https://api.kirvano.com/v1",
		SandboxURL:    "https://sandbox-api.kirvano.com/v1",
		Auth:          vendorhttp.AuthBearer,
		OrdersPath:    "/sales",
		ListKey:       "data",
		WebhookPath:   "/webhooks",
		WebhookEvents: []string{"SALE_APPROVED", "SALE_REFUSED", "SALE_REFUNDED", "SALE_CHARGEBACK", "PIX_GENERATED", "BANK_SLIP_GENERATED"},
		EventPrefixes: prefixes("sale_", "pix_", "bank_slip_"),
	}, normalize.FieldMap{
		ID:               []string{"sale_id", "checkout_id"},
		OrderID:          []string{"checkout_id", "sale_id"},
		Amount:           []string{"total_price", "fiscal.total_value"},
		Status:           []string{"status"},
		PaymentMethod:    []string{"payment_method", "payment.method"},
		CreatedAt:        []string{"created_at"},
		UpdatedAt:        []string{"updated_at", "created_at"},
		Customer:         "customer",
		CustomerName:     []string{"name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"phone_number"},
		CustomerDocument: []string{"document"},
		Items:            "products",
		ItemID:           []string{"id", "offer_id"},
		ItemName:         []string{"name"},
		ItemPrice:        []string{"price"},
		Metadata:         []string{"utm", "payment", "fiscal", "plan"},
	}, status.Vocabulary{
		Completed: []string{"approved", "paid"},
		Pending:   []string{"pending", "waiting_payment", "processing"},
	})
}
