package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paybridge/internal/platform/domain"
	"github.com/smallbiznis/paybridge/internal/platform/status"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMap = FieldMap{
	ID:               []string{"id"},
	OrderID:          []string{"order_number"},
	Amount:           []string{"amount", "total"},
	Currency:         []string{"currency"},
	Status:           []string{"status"},
	PaymentMethod:    []string{"payment.method"},
	CreatedAt:        []string{"created_at"},
	UpdatedAt:        []string{"updated_at"},
	Customer:         "customer",
	CustomerName:     []string{"name"},
	CustomerEmail:    []string{"email"},
	CustomerPhone:    []string{"phone"},
	CustomerDocument: []string{"document", "cpf"},
	Items:            "items",
	ItemID:           []string{"id"},
	ItemName:         []string{"name"},
	ItemPrice:        []string{"price"},
	ItemQuantity:     []string{"quantity"},
	Metadata:         []string{"affiliate", "subscription", "fraud", "split", "payment.installments"},
}

var testMapper = status.NewMapper(status.Vocabulary{
	Completed: []string{"approved"},
	Pending:   []string{"waiting"},
})

const fullPayload = `{
	"id": "ord_1",
	"order_number": "1001",
	"total": "1.234,50",
	"status": "APPROVED",
	"payment": {"method": "credit_card", "installments": 3},
	"created_at": "2026-01-02T10:00:00-03:00",
	"updated_at": 1767362400,
	"customer": {"name": "Ana", "email": "ana@example.com", "cpf": "12345678900"},
	"items": [
		{"id": "p1", "name": "Curso", "price": 1000.5, "quantity": 1},
		{"id": "p2", "name": "Bonus", "price": 234, "quantity": 2}
	],
	"affiliate": {"id": "af_9", "commission": {"percent": 40, "amount": 493.8}},
	"subscription": {"id": "sub_1", "status": "active", "cycle": 2},
	"fraud": {"score": 12.75, "decision": "approve"},
	"split": [{"recipient": "r1", "percent": 60}, {"recipient": "r2", "percent": 40}]
}`

func TestFieldMapNormalizesFullPayload(t *testing.T) {
	tx, err := testMap.Normalizer("kiwify", testMapper)(json.RawMessage(fullPayload))
	require.NoError(t, err)

	assert.Equal(t, "ord_1", tx.ID)
	assert.Equal(t, "1001", tx.OrderID)
	assert.Equal(t, "kiwify", tx.PlatformID)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1234.50")), tx.Amount.String())
	assert.Equal(t, "BRL", tx.Currency)
	assert.Equal(t, txdomain.StatusCompleted, tx.Status)
	assert.Equal(t, "credit_card", tx.PaymentMethod)
	assert.Equal(t, "12345678900", tx.Customer.Document)
	assert.Equal(t, "p1", tx.Product.ID)
	assert.Equal(t, 1, tx.Product.Quantity)
	assert.True(t, tx.Product.Price.Valid)
	assert.Equal(t, time.Date(2026, 1, 2, 13, 0, 0, 0, time.UTC), tx.CreatedAt)
	require.NotNil(t, tx.SourceUpdatedAt)
	assert.Equal(t, time.Unix(1767362400, 0).UTC(), *tx.SourceUpdatedAt)
	assert.True(t, tx.UpdatedAt.IsZero())

	items, ok := tx.Metadata["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
	assert.Equal(t, json.Number("3"), tx.Metadata["installments"])
}

func TestFieldMapPreservesMetadataBlocks(t *testing.T) {
	tx, err := testMap.Normalizer("kiwify", testMapper)(json.RawMessage(fullPayload))
	require.NoError(t, err)

	source, err := Decode([]byte(fullPayload))
	require.NoError(t, err)
	for _, key := range []string{"affiliate", "subscription", "fraud", "split"} {
		assert.Equal(t, source[key], tx.Metadata[key], key)

		got, err := json.Marshal(tx.Metadata[key])
		require.NoError(t, err)
		want, err := json.Marshal(source[key])
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(got), key)
	}
}

func TestFieldMapOptionalFieldsMayBeAbsent(t *testing.T) {
	payload := `{"order_number":"55","amount":10,"status":"weird","customer":{"name":"Bo","email":"bo@x.io"}}`
	tx, err := testMap.Normalizer("kiwify", testMapper)(json.RawMessage(payload))
	require.NoError(t, err)

	assert.Equal(t, "55", tx.ID)
	assert.Equal(t, txdomain.StatusFailed, tx.Status)
	assert.Nil(t, tx.Metadata)
	assert.True(t, tx.CreatedAt.IsZero())
	assert.Equal(t, txdomain.Product{}, tx.Product)
}

func TestFieldMapRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		field   string
	}{
		{"no_id", `{"amount":1,"status":"approved","customer":{"name":"a","email":"b"}}`, "id"},
		{"no_amount", `{"id":"1","status":"approved","customer":{"name":"a","email":"b"}}`, "amount"},
		{"nan_amount", `{"id":"1","amount":"NaN","status":"approved","customer":{"name":"a","email":"b"}}`, "amount"},
		{"null_amount", `{"id":"1","amount":null,"status":"approved","customer":{"name":"a","email":"b"}}`, "amount"},
		{"no_status", `{"id":"1","amount":1,"customer":{"name":"a","email":"b"}}`, "status"},
		{"no_customer", `{"id":"1","amount":1,"status":"approved"}`, "customer"},
		{"no_name", `{"id":"1","amount":1,"status":"approved","customer":{"email":"b"}}`, "customer.name"},
		{"no_email", `{"id":"1","amount":1,"status":"approved","customer":{"name":"a"}}`, "customer.email"},
		{"not_object", `[1,2]`, "payload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := testMap.Normalizer("kiwify", testMapper)(json.RawMessage(tc.payload))
			var nerr *domain.NormalizationError
			require.True(t, errors.As(err, &nerr), "got %v", err)
			assert.Equal(t, tc.field, nerr.Field)
			assert.Equal(t, "kiwify", nerr.Platform)
		})
	}
}

func TestCentsAmounts(t *testing.T) {
	m := testMap
	m.AmountInCents = true
	tx, err := m.Normalizer("pagarme", testMapper)(json.RawMessage(
		`{"id":"1","amount":19990,"status":"approved","customer":{"name":"a","email":"b"},"items":[{"price":19990}]}`,
	))
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("199.90")))
	assert.True(t, tx.Product.Price.Decimal.Equal(decimal.RequireFromString("199.90")))
}

func TestAllFailsWholeBatch(t *testing.T) {
	good := json.RawMessage(`{"id":"1","amount":1,"status":"approved","customer":{"name":"a","email":"b"}}`)
	bad := json.RawMessage(`{"id":"3","amount":1,"status":"approved"}`)

	txs, err := All(testMap.Normalizer("kiwify", testMapper), []json.RawMessage{good, good, bad, good, good})
	assert.Nil(t, txs)
	var nerr *domain.NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, 2, nerr.Index)
	assert.Equal(t, "customer", nerr.Field)
}

func TestParseTimeIn(t *testing.T) {
	cases := map[string]time.Time{
		"2026-01-02T10:00:00Z":      time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		"2026-01-02 10:00:00":       time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		"2026-01-02":                time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		"1767348000":                time.Unix(1767348000, 0).UTC(),
		"1767348000000":             time.Unix(1767348000, 0).UTC(),
		"2026-01-02T10:00:00.5Z":    time.Date(2026, 1, 2, 10, 0, 0, 5e8, time.UTC),
		"2026-01-02T07:00:00-03:00": time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseTimeIn(in, time.UTC)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
	}

	_, err := ParseTimeIn("yesterday", time.UTC)
	assert.Error(t, err)
}

func TestParseTimeInBrasilia(t *testing.T) {
	got, err := ParseTimeIn("2026-04-01 06:30:00", Brasilia)
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC).Equal(got), "got %s", got)
	assert.Equal(t, time.UTC, got.Location())

	// An explicit offset wins over the vendor zone.
	got, err = ParseTimeIn("2026-04-01T06:30:00Z", Brasilia)
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 4, 1, 6, 30, 0, 0, time.UTC).Equal(got), "got %s", got)

	got, err = ParseTimeIn("01/04/2026 06:30:00", nil)
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 4, 1, 6, 30, 0, 0, time.UTC).Equal(got), "got %s", got)
}

func TestParseAmount(t *testing.T) {
	cases := map[any]string{
		json.Number("10.5"): "10.5",
		"R$ 1.000,00":       "1000",
		"99.90":             "99.9",
		float64(3):          "3",
		"1,234.56":          "1234.56",
		"1.234,56":          "1234.56",
		"1234,56":           "1234.56",
		"1.234.567":         "1234567",
		"1,234,567.89":      "1234567.89",
		"-1.234,50":         "-1234.5",
		"R$ 12.345.678,90":  "12345678.9",
		"297":               "297",
		"0,5":               "0.5",
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		require.NoError(t, err, "%v", in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%v -> %s", in, got)
	}

	for _, in := range []any{true, "", "1,234", "1.234.56", "12,34,567.8", "1.234,5.6", "abc"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "%v", in)
	}
}

func TestObjectGet(t *testing.T) {
	obj, err := Decode([]byte(`{"a":{"b":[{"c":"x"}]},"n":null}`))
	require.NoError(t, err)

	v, ok := obj.Get("a.b.0.c")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = obj.Get("a.b.1.c")
	assert.False(t, ok)
	_, ok = obj.Get("n")
	assert.False(t, ok)
	assert.Equal(t, "", obj.String("missing", "n"))
}

func TestBlocks(t *testing.T) {
	md, err := Blocks(map[string]json.RawMessage{
		"pix":    json.RawMessage(`{"qr_code":"000201"}`),
		"boleto": json.RawMessage(`null`),
		"none":   nil,
	})
	require.NoError(t, err)
	assert.Len(t, md, 1)
	assert.Equal(t, map[string]any{"qr_code": "000201"}, md["pix"])

	md, err = Blocks(map[string]json.RawMessage{"x": nil})
	require.NoError(t, err)
	assert.Nil(t, md)
}
