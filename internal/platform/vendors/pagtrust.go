package vendors

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paybridge/internal/platform/adapter"
	"github.com/smallbiznis/paybridge/internal/platform/normalize"
	"github.com/smallbiznis/paybridge/internal/platform/status"
	"github.com/smallbiznis/paybridge/internal/platform/vendorhttp"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
)

const PagTrust = "pagtrust"

var pagtrustStatus = status.NewMapper(status.Vocabulary{
	Completed: []string{"paid", "approved", "captured"},
	Pending:   []string{"pending", "waiting_payment", "processing", "authorized", "analyzing"},
})

func pagtrustVendor() adapter.Vendor {
	return adapter.Vendor{
		Platform:    PagTrust,
		BaseURL:     "https://api.pagtrust.com.br",
		SandboxURL:  "https://sandbox.pagtrust.com.br",
		Auth:        vendorhttp.AuthHeaderPair,
		OrdersPath:  "/v1/transactions",
		ListKey:     "transactions",
		WebhookPath: "/v1/webhooks",
		WebhookEvents: []string{
			"transaction.created", "transaction.paid", "transaction.refused",
			"transaction.refunded", "transaction.chargeback",
		},
		EventPrefixes: adapter.DefaultEventPrefixes,
		Status:        pagtrustStatus,
		Normalize:     normalizePagTrust,
	}
}

type pagtrustTransaction struct {
	TransactionID json.RawMessage `json:"transaction_id"`
	Reference     json.RawMessage `json:"reference"`
	Amount        json.RawMessage `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     json.RawMessage `json:"created_at"`
	UpdatedAt     json.RawMessage `json:"updated_at"`

	Buyer *struct {
		Name  string          `json:"name"`
		Email string          `json:"email"`
		Phone json.RawMessage `json:"phone"`
		CPF   json.RawMessage `json:"cpf"`
		CNPJ  json.RawMessage `json:"cnpj"`
	} `json:"buyer"`

	Product *struct {
		ID       json.RawMessage `json:"id"`
		Name     string          `json:"name"`
		Price    json.RawMessage `json:"price"`
		Quantity json.RawMessage `json:"quantity"`
	} `json:"product"`

	Installments  json.RawMessage `json:"installments"`
	FraudAnalysis json.RawMessage `json:"fraud_analysis"`
	SplitRules    json.RawMessage `json:"split_rules"`
	Antifraud     json.RawMessage `json:"antifraud"`
	Card          json.RawMessage `json:"card"`
	Pix           json.RawMessage `json:"pix"`
	Boleto        json.RawMessage `json:"boleto"`
}

func normalizePagTrust(raw json.RawMessage) (*txdomain.Transaction, error) {
	var in pagtrustTransaction
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, normalize.Fail(PagTrust, "payload", err.Error())
	}

	id := rawScalar(in.TransactionID)
	reference := rawScalar(in.Reference)
	if id == "" && reference == "" {
		return nil, normalize.Fail(PagTrust, "id", "missing transaction identifier")
	}
	if id == "" {
		id = reference
	}
	if reference == "" {
		reference = id
	}

	amount, err := rawAmount(in.Amount)
	if err != nil {
		return nil, normalize.Fail(PagTrust, "amount", err.Error())
	}
	if strings.TrimSpace(in.Status) == "" {
		return nil, normalize.Fail(PagTrust, "status", "missing")
	}
	if in.Buyer == nil {
		return nil, normalize.Fail(PagTrust, "customer", "missing")
	}
	document := rawScalar(in.Buyer.CPF)
	if document == "" {
		document = rawScalar(in.Buyer.CNPJ)
	}
	customer, err := normalize.RequireCustomer(PagTrust, txdomain.Customer{
		Name:     in.Buyer.Name,
		Email:    in.Buyer.Email,
		Phone:    rawScalar(in.Buyer.Phone),
		Document: document,
	})
	if err != nil {
		return nil, err
	}

	tx := &txdomain.Transaction{
		ID:            id,
		PlatformID:    PagTrust,
		OrderID:       reference,
		Amount:        amount,
		Currency:      normalize.Currency(in.Currency),
		Status:        pagtrustStatus(in.Status),
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Customer:      customer,
		CreatedAt:     rawTime(in.CreatedAt),

		SourceUpdatedAt: rawSourceTime(in.UpdatedAt),
	}
	if in.Product != nil {
		tx.Product = txdomain.Product{
			ID:       rawScalar(in.Product.ID),
			Name:     strings.TrimSpace(in.Product.Name),
			Quantity: rawQuantity(in.Product.Quantity),
		}
		if price, err := rawAmount(in.Product.Price); err == nil {
			tx.Product.Price = decimal.NewNullDecimal(price)
		}
	}

	metadata, err := normalize.Blocks(map[string]json.RawMessage{
		"installments":   in.Installments,
		"fraud_analysis": in.FraudAnalysis,
		"split_rules":    in.SplitRules,
		"antifraud":      in.Antifraud,
		"card":           in.Card,
		"pix":            in.Pix,
		"boleto":         in.Boleto,
	})
	if err != nil {
		return nil, normalize.Fail(PagTrust, "metadata", err.Error())
	}
	tx.Metadata = metadata
	return tx, nil
}
