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

const Doppus = "doppus"

var doppusStatus = status.NewMapper(status.Vocabulary{
	Completed: []string{"approved", "paid", "complete", "completed"},
	Pending:   []string{"pending", "waiting_payment", "processing", "in_analysis", "billet_printed", "pix_generated"},
})

func doppusVendor() adapter.Vendor {
	return adapter.Vendor{
		Platform:    Doppus,
		BaseURL:     "https://api.doppus.com",
		SandboxURL:  "https://sandbox.api.doppus.com",
		Auth:        vendorhttp.AuthBearer,
		OrdersPath:  "/v1/orders",
		ListKey:     "orders",
		WebhookPath: "/v1/webhooks",
		WebhookEvents: []string{
			"order.created", "order.paid", "order.refunded", "order.canceled", "order.chargeback",
			"subscription.created", "subscription.renewed", "subscription.canceled",
		},
		EventPrefixes: adapter.DefaultEventPrefixes,
		Status:        doppusStatus,
		Normalize:     normalizeDoppus,
	}
}

type doppusOrder struct {
	ID          json.RawMessage `json:"id"`
	OrderNumber json.RawMessage `json:"order_number"`
	Status      string          `json:"status"`
	Total       json.RawMessage `json:"total"`
	Currency    string          `json:"currency"`
	CreatedAt   json.RawMessage `json:"created_at"`
	UpdatedAt   json.RawMessage `json:"updated_at"`

	Customer *struct {
		Name     string          `json:"name"`
		Email    string          `json:"email"`
		Phone    json.RawMessage `json:"phone"`
		Document json.RawMessage `json:"document"`
	} `json:"customer"`

	Items json.RawMessage `json:"items"`

	Payment *struct {
		Method       string          `json:"method"`
		Installments json.RawMessage `json:"installments"`
		Pix          json.RawMessage `json:"pix"`
		Boleto       json.RawMessage `json:"boleto"`
		Card         json.RawMessage `json:"card"`
	} `json:"payment"`

	Affiliate    json.RawMessage `json:"affiliate"`
	Commissions  json.RawMessage `json:"commissions"`
	Subscription json.RawMessage `json:"subscription"`
	Coupon       json.RawMessage `json:"coupon"`
	Tracking     json.RawMessage `json:"tracking"`
}

type doppusItem struct {
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Quantity json.RawMessage `json:"quantity"`
}

func normalizeDoppus(raw json.RawMessage) (*txdomain.Transaction, error) {
	var order doppusOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, normalize.Fail(Doppus, "payload", err.Error())
	}
	var items []doppusItem
	if len(order.Items) > 0 && string(order.Items) != "null" {
		if err := json.Unmarshal(order.Items, &items); err != nil {
			return nil, normalize.Fail(Doppus, "items", err.Error())
		}
	}

	id := rawScalar(order.ID)
	orderNumber := rawScalar(order.OrderNumber)
	if id == "" && orderNumber == "" {
		return nil, normalize.Fail(Doppus, "id", "missing order identifier")
	}
	if id == "" {
		id = orderNumber
	}
	if orderNumber == "" {
		orderNumber = id
	}

	amount, err := rawAmount(order.Total)
	if err != nil {
		return nil, normalize.Fail(Doppus, "amount", err.Error())
	}
	if strings.TrimSpace(order.Status) == "" {
		return nil, normalize.Fail(Doppus, "status", "missing")
	}
	if order.Customer == nil {
		return nil, normalize.Fail(Doppus, "customer", "missing")
	}
	customer, err := normalize.RequireCustomer(Doppus, txdomain.Customer{
		Name:     order.Customer.Name,
		Email:    order.Customer.Email,
		Phone:    rawScalar(order.Customer.Phone),
		Document: rawScalar(order.Customer.Document),
	})
	if err != nil {
		return nil, err
	}

	tx := &txdomain.Transaction{
		ID:         id,
		PlatformID: Doppus,
		OrderID:    orderNumber,
		Amount:     amount,
		Currency:   normalize.Currency(order.Currency),
		Status:     doppusStatus(order.Status),
		Customer:   customer,
		CreatedAt:  rawTime(order.CreatedAt),

		SourceUpdatedAt: rawSourceTime(order.UpdatedAt),
	}
	if len(items) > 0 {
		first := items[0]
		tx.Product = txdomain.Product{
			ID:       rawScalar(first.ID),
			Name:     strings.TrimSpace(first.Name),
			Quantity: rawQuantity(first.Quantity),
		}
		if price, err := rawAmount(first.Price); err == nil {
			tx.Product.Price = decimal.NewNullDecimal(price)
		}
	}

	blocks := map[string]json.RawMessage{
		"affiliate":    order.Affiliate,
		"commissions":  order.Commissions,
		"subscription": order.Subscription,
		"coupon":       order.Coupon,
		"tracking":     order.Tracking,
	}
	if len(items) > 0 {
		blocks["items"] = order.Items
	}
	if order.Payment != nil {
		tx.PaymentMethod = strings.TrimSpace(order.Payment.Method)
		blocks["installments"] = order.Payment.Installments
		blocks["pix"] = order.Payment.Pix
		blocks["boleto"] = order.Payment.Boleto
		blocks["card"] = order.Payment.Card
	}
	metadata, err := normalize.Blocks(blocks)
	if err != nil {
		return nil, normalize.Fail(Doppus, "metadata", err.Error())
	}
	tx.Metadata = metadata
	return tx, nil
}
