package vendors

import (
	"github.com/smallbiznis/paybridge/internal/platform/adapter"
	"github.com/smallbiznis/paybridge/internal/platform/normalize"
	"github.com/smallbiznis/paybridge/internal/platform/status"
	"github.com/smallbiznis/paybridge/internal/platform/vendorhttp"
)

// Payment gateways and e-commerce checkouts.
const (
	Yampi       = "yampi"
	Appmax      = "appmax"
	Pagarme     = "pagarme"
	MercadoPago = "mercadopago"
	PagSeguro   = "pagseguro"
	Asaas       = "asaas"
	Iugu        = "iugu"
)

func yampiVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:        Yampi,
		BaseURL:         "https://api.dooki.com.br/v2",
		SandboxURL:      "https://sandbox.dooki.com.br/v2",
		Auth:            vendorhttp.AuthHeaderPair,
		APIKeyHeader:    "User-Token",
		SecretKeyHeader: "User-Secret-Key",
		OrdersPath:      "/orders",
		ListKey:         "data",
		WebhookPath:     "/webhooks",
		WebhookEvents:   []string{"order.created", "order.paid", "order.status.updated", "transaction.payment.refused"},
	}, normalize.FieldMap{
		ID:               []string{"id"},
		OrderID:          []string{"number", "id"},
		Amount:           []string{"value_total", "value_products"},
		Status:           []string{"status.data.alias", "status"},
		PaymentMethod:    []string{"payments.0.alias", "transactions.data.0.payment.data.alias"},
		CreatedAt:        []string{"created_at.date", "created_at"},
		UpdatedAt:        []string{"updated_at.date", "updated_at"},
		Customer:         "customer.data",
		CustomerName:     []string{"name", "first_name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"phone.full_number", "phone"},
		CustomerDocument: []string{"cpf", "cnpj"},
		Items:            "items.data",
		ItemID:           []string{"product_id", "sku_id", "id"},
		ItemName:         []string{"sku.data.title", "name"},
		ItemPrice:        []string{"price"},
		ItemQuantity:     []string{"quantity"},
		Metadata:         []string{"shipping_address", "transactions", "promocode", "value_shipment", "utm_source"},
	}, status.Vocabulary{
		Completed: []string{"paid", "invoiced", "shipped", "delivered", "handling_products"},
		Pending:   []string{"waiting_payment", "pending", "on_carriage"},
	})
}

func appmaxVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:        Appmax,
		BaseURL:         "https://admin.appmax.com.br/api/v3",
		SandboxURL:      "https://homolog.sandboxappmax.com.br/api/v3",
		Auth:            vendorhttp.AuthHeaderPair,
		APIKeyHeader:    "access-token",
		SecretKeyHeader: "access-secret",
		OrdersPath:      "/order",
		ListKey:         "data",
		WebhookPath:     "/webhook",
		WebhookEvents:   []string{"OrderApproved", "OrderPaid", "OrderPendingIntegration", "OrderRefund", "OrderChargeBack", "PaymentNotAuthorized"},
		EventPrefixes:   prefixes("orderapproved", "orderpaid", "orderpending", "orderrefund", "orderchargeback"),
	}, normalize.FieldMap{
		ID:               []string{"id"},
		OrderID:          []string{"id"},
		Amount:           []string{"total", "full_payment_amount"},
		Status:           []string{"status"},
		PaymentMethod:    []string{"payment_type"},
		CreatedAt:        []string{"created_at"},
		UpdatedAt:        []string{"updated_at", "paid_at"},
		Customer:         "customer",
		CustomerName:     []string{"fullname", "firstname"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"telephone"},
		CustomerDocument: []string{"document_number"},
		Items:            "products",
		ItemID:           []string{"sku", "id"},
		ItemName:         []string{"name"},
		ItemPrice:        []string{"price"},
		ItemQuantity:     []string{"quantity"},
		Metadata:         []string{"installments", "billet_url", "pix_qrcode", "upsell_order_id", "interest"},
	}, status.Vocabulary{
		Completed: []string{"aprovado", "approved", "integrado"},
		Pending:   []string{"pendente", "pending", "autorizado", "análise antifraude", "em análise"},
	})
}

func pagarmeVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      Pagarme,
		BaseURL:       "https://api.pagar.me/core/v5",
		SandboxURL:    "https://sdx-api.pagar.me/core/v5",
		Auth:          vendorhttp.AuthBasic,
		OrdersPath:    "/orders",
		ListKey:       "data",
		WebhookPath:   "/hooks",
		WebhookEvents: []string{"order.created", "order.paid", "order.payment_failed", "order.canceled", "charge.refunded", "charge.chargedback"},
		EventPrefixes: prefixes("charge."),
	}, normalize.FieldMap{
		ID:               []string{"id"},
		OrderID:          []string{"code", "id"},
		Amount:           []string{"amount"},
		AmountInCents:    true,
		Currency:         []string{"currency"},
		Status:           []string{"status"},
		PaymentMethod:    []string{"charges.0.payment_method"},
		CreatedAt:        []string{"created_at"},
		UpdatedAt:        []string{"updated_at"},
		Customer:         "customer",
		CustomerName:     []string{"name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"phones.mobile_phone.number"},
		CustomerDocument: []string{"document"},
		Items:            "items",
		ItemID:           []string{"code", "id"},
		ItemName:         []string{"description"},
		ItemPrice:        []string{"amount"},
		ItemQuantity:     []string{"quantity"},
		Metadata:         []string{"charges", "shipping", "metadata", "antifraud"},
	}, status.Vocabulary{
		Completed: []string{"paid"},
		Pending:   []string{"pending", "processing", "authorized_pending_capture", "waiting_capture"},
	})
}

func mercadopagoVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      MercadoPago,
		BaseURL:       "https://api.mercadopago.com",
		SandboxURL:    "https://api.mercadopago.com/sandbox",
		Auth:          vendorhttp.AuthBearer,
		OrdersPath:    "/v1/payments/search",
		ListKey:       "results",
		WebhookPath:   "/v1/webhooks",
		WebhookEvents: []string{"payment.created", "payment.updated", "chargebacks"},
		EventPrefixes: prefixes("payment."),
	}, normalize.FieldMap{
		ID:               []string{"id"},
		OrderID:          []string{"order.id", "external_reference", "id"},
		Amount:           []string{"transaction_amount"},
		Currency:         []string{"currency_id"},
		Status:           []string{"status"},
		PaymentMethod:    []string{"payment_type_id", "payment_method_id"},
		CreatedAt:        []string{"date_created"},
		UpdatedAt:        []string{"date_last_updated", "date_approved"},
		Customer:         "payer",
		CustomerName:     []string{"first_name", "name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"phone.number"},
		CustomerDocument: []string{"identification.number"},
		Items:            "additional_info.items",
		ItemID:           []string{"id"},
		ItemName:         []string{"title"},
		ItemPrice:        []string{"unit_price"},
		ItemQuantity:     []string{"quantity"},
		Metadata:         []string{"installments", "fee_details", "transaction_details", "point_of_interaction", "metadata"},
	}, status.Vocabulary{
		Completed: []string{"approved"},
		Pending:   []string{"pending", "authorized", "in_process", "in_mediation"},
	})
}

func pagseguroVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      PagSeguro,
		BaseURL:       "https://api.pagseguro.com",
		SandboxURL:    "https://sandbox.api.pagseguro.com",
		Auth:          vendorhttp.AuthBearer,
		OrdersPath:    "/orders",
		ListKey:       "orders",
		WebhookPath:   "/notifications",
		WebhookEvents: []string{"order.paid", "order.canceled", "charge.paid", "charge.declined"},
		EventPrefixes: prefixes("charge."),
	}, normalize.FieldMap{
		ID:               []string{"id"},
		OrderID:          []string{"reference_id", "id"},
		Amount:           []string{"charges.0.amount.value", "amount.value"},
		AmountInCents:    true,
		Currency:         []string{"charges.0.amount.currency", "amount.currency"},
		Status:           []string{"charges.0.status", "status"},
		PaymentMethod:    []string{"charges.0.payment_method.type"},
		CreatedAt:        []string{"created_at"},
		UpdatedAt:        []string{"charges.0.paid_at", "updated_at"},
		Customer:         "customer",
		CustomerName:     []string{"name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"phones.0.number"},
		CustomerDocument: []string{"tax_id"},
		Items:            "items",
		ItemID:           []string{"reference_id"},
		ItemName:         []string{"name"},
		ItemPrice:        []string{"unit_amount"},
		ItemQuantity:     []string{"quantity"},
		Metadata:         []string{"charges", "qr_codes", "shipping", "notification_urls"},
	}, status.Vocabulary{
		Completed: []string{"paid"},
		Pending:   []string{"authorized", "in_analysis", "waiting", "pending"},
	})
}

func asaasVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:        Asaas,
		BaseURL:         "https://api.asaas.com/v3",
		SandboxURL:      "https://sandbox.asaas.com/api/v3",
		Auth:            vendorhttp.AuthHeaderPair,
		APIKeyHeader:    "access_token",
		SecretKeyHeader: "X-Asaas-Secret",
		OrdersPath:      "/payments",
		ListKey:         "data",
		WebhookPath:     "/webhooks",
		WebhookEvents:   []string{"PAYMENT_CREATED", "PAYMENT_RECEIVED", "PAYMENT_CONFIRMED", "PAYMENT_OVERDUE", "PAYMENT_REFUNDED"},
		EventPrefixes:   prefixes("payment_"),
	}, normalize.FieldMap{
		ID:               []string{"id"},
		OrderID:          []string{"externalReference", "invoiceNumber", "id"},
		Amount:           []string{"value"},
		Status:           []string{"status"},
		PaymentMethod:    []string{"billingType"},
		CreatedAt:        []string{"dateCreated"},
		UpdatedAt:        []string{"confirmedDate", "paymentDate", "clientPaymentDate"},
		Customer:         "customerObject",
		CustomerName:     []string{"name"},
		CustomerEmail:    []string{"email"},
		CustomerPhone:    []string{"mobilePhone", "phone"},
		CustomerDocument: []string{"cpfCnpj"},
		Metadata:         []string{"installment", "subscription", "split", "discount", "fine", "interest", "bankSlipUrl"},
	}, status.Vocabulary{
		Completed: []string{"received", "confirmed", "received_in_cash"},
		Pending:   []string{"pending", "awaiting_risk_analysis", "awaiting_chargeback_reversal"},
	})
}

func iuguVendor() adapter.Vendor {
	return fieldMapVendor(adapter.Vendor{
		Platform:      Iugu,
		BaseURL:       "https://api.iugu.com/v1",
		SandboxURL:    "https://sandbox.iugu.com/v1",
		Auth:          vendorhttp.AuthBasic,
		OrdersPath:    "/invoices",
		ListKey:       "items",
		WebhookPath:   "/web_hooks",
		WebhookEvents: []string{"invoice.created", "invoice.status_changed", "invoice.refund", "invoice.payment_failed"},
		EventPrefixes: prefixes("invoice."),
	}, normalize.FieldMap{
		ID:               []string{"id"},
		OrderID:          []string{"order_id", "id"},
		Amount:           []string{"total_cents", "total_paid_cents"},
		AmountInCents:    true,
		Currency:         []string{"currency"},
		Status:           []string{"status"},
		PaymentMethod:    []string{"payable_with", "payment_method"},
		CreatedAt:        []string{"created_at_iso", "created_at"},
		UpdatedAt:        []string{"updated_at", "paid_at"},
		Customer:         ".",
		CustomerName:     []string{"payer_name", "customer_name"},
		CustomerEmail:    []string{"email", "payer_email"},
		CustomerPhone:    []string{"payer_phone"},
		CustomerDocument: []string{"payer_cpf_cnpj"},
		Items:            "items",
		ItemID:           []string{"id"},
		ItemName:         []string{"description"},
		ItemPrice:        []string{"price_cents"},
		ItemQuantity:     []string{"quantity"},
		Metadata:         []string{"variables", "custom_variables", "pix", "bank_slip", "split_rules", "installments"},
	}, status.Vocabulary{
		Completed: []string{"paid", "externally_paid"},
		Pending:   []string{"pending", "partially_paid", "in_analysis", "in_protest"},
	})
}
