package vendors_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paybridge/internal/platform/vendors"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizeWith(t *testing.T, platform, payload string) *txdomain.Transaction {
	t.Helper()
	v, ok := vendors.Lookup(platform)
	require.True(t, ok)
	tx, err := v.Normalize(json.RawMessage(payload))
	require.NoError(t, err)
	assert.Equal(t, platform, tx.PlatformID)
	return tx
}

func TestVendorPayloads(t *testing.T) {
	cases := []struct {
		platform string
		payload  string
		id       string
		amount   string
		status   txdomain.Status
		email    string
		product  string
		metadata []string
	}{
		{
			platform: vendors.Hotmart,
			payload: `{
				"buyer": {"name": "Ana Lima", "email": "ana@example.com", "checkout_phone": "11999990000"},
				"product": {"id": 1234, "name": "Mentoria"},
				"purchase": {"transaction": "HP1234", "status": "APPROVED", "price": {"value": 497.0, "currency_value": "BRL"}, "payment": {"type": "CREDIT_CARD", "installments_number": 6}},
				"affiliates": [{"affiliate_code": "X1"}]
			}`,
			id: "HP1234", amount: "497", status: txdomain.StatusCompleted, email: "ana@example.com", product: "1234",
			metadata: []string{"affiliates", "payment"},
		},
		{
			platform: vendors.Kiwify,
			payload: `{
				"order_id": "kw_1", "order_ref": "REF1", "order_status": "paid", "payment_method": "pix",
				"Customer": {"full_name": "Bia", "email": "bia@example.com", "CPF": "11122233344"},
				"Product": {"product_id": "p9", "product_name": "Ebook"},
				"Commissions": {"charge_amount": 4790, "currency": "BRL"}
			}`,
			id: "kw_1", amount: "47.90", status: txdomain.StatusCompleted, email: "bia@example.com", product: "p9",
			metadata: []string{"Commissions"},
		},
		{
			platform: vendors.Eduzz,
			payload: `{
				"trans_cod": 998877, "trans_value": "150.00", "trans_status": 3,
				"cus_name": "Caio", "cus_email": "caio@example.com",
				"product_cod": 55, "product_name": "Curso",
				"aff_cod": 12
			}`,
			id: "998877", amount: "150", status: txdomain.StatusCompleted, email: "caio@example.com", product: "55",
			metadata: []string{"aff_cod"},
		},
		{
			platform: vendors.Braip,
			payload: `{
				"trans_key": "BR1", "trans_value": 9700, "trans_status": "Aguardando Pagamento",
				"client_name": "Davi", "client_email": "davi@example.com",
				"product_key": "pk", "product_name": "Suplemento"
			}`,
			id: "BR1", amount: "97", status: txdomain.StatusPending, email: "davi@example.com", product: "pk",
		},
		{
			platform: vendors.MercadoPago,
			payload: `{
				"id": 1300, "status": "rejected", "transaction_amount": 59.9, "currency_id": "BRL", "payment_type_id": "credit_card",
				"payer": {"first_name": "Eva", "email": "eva@example.com", "identification": {"number": "123"}},
				"additional_info": {"items": [{"id": "sku1", "title": "Camiseta", "unit_price": "59.90", "quantity": "1"}]},
				"installments": 1
			}`,
			id: "1300", amount: "59.9", status: txdomain.StatusFailed, email: "eva@example.com", product: "sku1",
			metadata: []string{"items", "installments"},
		},
		{
			platform: vendors.PagSeguro,
			payload: `{
				"id": "ORDE_1", "reference_id": "ext-1",
				"customer": {"name": "Fabio", "email": "fabio@example.com", "tax_id": "12345678909"},
				"items": [{"reference_id": "i1", "name": "Caneca", "unit_amount": 2500, "quantity": 2}],
				"charges": [{"status": "PAID", "amount": {"value": 5000, "currency": "BRL"}, "payment_method": {"type": "PIX"}}]
			}`,
			id: "ORDE_1", amount: "50", status: txdomain.StatusCompleted, email: "fabio@example.com", product: "i1",
			metadata: []string{"charges", "items"},
		},
		{
			platform: vendors.Asaas,
			payload: `{
				"id": "pay_1", "status": "PENDING", "value": 120.5, "billingType": "BOLETO",
				"customerObject": {"name": "Gil", "email": "gil@example.com", "cpfCnpj": "000"},
				"bankSlipUrl": "https://asaas.example/boleto"
			}`,
			id: "pay_1", amount: "120.5", status: txdomain.StatusPending, email: "gil@example.com",
			metadata: []string{"bankSlipUrl"},
		},
		{
			platform: vendors.Iugu,
			payload: `{
				"id": "INV1", "status": "paid", "total_cents": 19900, "payable_with": "pix",
				"payer_name": "Hugo", "email": "hugo@example.com",
				"items": [{"id": "it1", "description": "Plano", "price_cents": 19900, "quantity": 1}]
			}`,
			id: "INV1", amount: "199", status: txdomain.StatusCompleted, email: "hugo@example.com", product: "it1",
		},
		{
			platform: vendors.Kirvano,
			payload: `{
				"sale_id": "KV1", "status": "APPROVED", "total_price": "R$ 97,00", "payment_method": "CREDIT_CARD",
				"customer": {"name": "Ines", "email": "ines@example.com", "document": "1"},
				"products": [{"id": "prd", "name": "Curso", "price": "R$ 97,00"}],
				"utm": {"src": "ig"}
			}`,
			id: "KV1", amount: "97", status: txdomain.StatusCompleted, email: "ines@example.com", product: "prd",
			metadata: []string{"utm", "items"},
		},
		{
			platform: vendors.Appmax,
			payload: `{
				"id": 501, "status": "aprovado", "total": 89.9, "payment_type": "CreditCard",
				"customer": {"fullname": "Joao", "email": "joao@example.com"},
				"products": [{"sku": "S1", "name": "Kit", "price": 89.9, "quantity": 1}]
			}`,
			id: "501", amount: "89.9", status: txdomain.StatusCompleted, email: "joao@example.com", product: "S1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.platform, func(t *testing.T) {
			tx := normalizeWith(t, tc.platform, tc.payload)
			assert.Equal(t, tc.id, tx.ID)
			assert.True(t, tx.Amount.Equal(decimal.RequireFromString(tc.amount)), "amount %s", tx.Amount)
			assert.Equal(t, tc.status, tx.Status)
			assert.Equal(t, tc.email, tx.Customer.Email)
			assert.Equal(t, tc.product, tx.Product.ID)
			for _, key := range tc.metadata {
				assert.Contains(t, tx.Metadata, key)
			}
		})
	}
}

func TestPagTrustKeepsFraudAndSplitBlocks(t *testing.T) {
	payload := `{
		"transaction_id": "pt_1", "reference": "order-77", "amount": "349.90", "status": "captured",
		"payment_method": "credit_card", "installments": 3,
		"buyer": {"name": "Lia", "email": "lia@example.com", "cpf": "12345678909"},
		"product": {"id": "p1", "name": "Assinatura", "price": "349.90"},
		"fraud_analysis": {"score": 18, "decision": "approved", "provider": "clearsale"},
		"split_rules": [{"recipient_id": "rp_1", "percentage": 70}, {"recipient_id": "rp_2", "percentage": 30}]
	}`
	tx := normalizeWith(t, vendors.PagTrust, payload)

	assert.Equal(t, "pt_1", tx.ID)
	assert.Equal(t, "order-77", tx.OrderID)
	assert.Equal(t, txdomain.StatusCompleted, tx.Status)
	assert.Equal(t, "12345678909", tx.Customer.Document)
	assert.True(t, tx.Product.Price.Decimal.Equal(decimal.RequireFromString("349.90")))

	var source map[string]any
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&source))
	for _, key := range []string{"fraud_analysis", "split_rules", "installments"} {
		assert.Equal(t, source[key], tx.Metadata[key], key)
	}
}

func TestDoppusWithoutOptionalBlocks(t *testing.T) {
	tx := normalizeWith(t, vendors.Doppus, `{
		"order_number": 4411, "status": "in_analysis", "total": "59,90",
		"customer": {"name": "Rui", "email": "rui@example.com"}
	}`)
	assert.Equal(t, "4411", tx.ID)
	assert.Equal(t, "4411", tx.OrderID)
	assert.Equal(t, txdomain.StatusPending, tx.Status)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("59.90")))
	assert.Nil(t, tx.Metadata)
	assert.Equal(t, txdomain.Product{}, tx.Product)
}

func TestNumericAndStringScalarsAreAccepted(t *testing.T) {
	tx := normalizeWith(t, vendors.Doppus, `{
		"id": 90210, "status": "approved", "total": 120,
		"customer": {"name": "Rui", "email": "rui@example.com", "phone": 5511988887777, "document": 39053344705},
		"items": [{"id": 7, "name": "Kit", "price": "60.00", "quantity": "2"}]
	}`)
	assert.Equal(t, "90210", tx.ID)
	assert.Equal(t, "90210", tx.OrderID)
	assert.Equal(t, "5511988887777", tx.Customer.Phone)
	assert.Equal(t, "39053344705", tx.Customer.Document)
	assert.Equal(t, "7", tx.Product.ID)
	assert.Equal(t, 2, tx.Product.Quantity)

	tx = normalizeWith(t, vendors.PagTrust, `{
		"transaction_id": 5001, "amount": 10, "status": "paid",
		"buyer": {"name": "Lia", "email": "lia@example.com", "cnpj": 11222333000181},
		"product": {"id": "p1", "name": "Plano", "quantity": "3"}
	}`)
	assert.Equal(t, "5001", tx.ID)
	assert.Equal(t, "11222333000181", tx.Customer.Document)
	assert.Equal(t, 3, tx.Product.Quantity)

	tx = normalizeWith(t, vendors.Doppus, `{
		"id": "dp_q", "status": "paid", "total": 1,
		"customer": {"name": "Rui", "email": "rui@example.com"},
		"items": [{"id": "x", "quantity": "a few"}]
	}`)
	assert.Equal(t, 0, tx.Product.Quantity)
}
