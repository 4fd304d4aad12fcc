package normalize

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paybridge/internal/platform/domain"
	"github.com/smallbiznis/paybridge/internal/platform/status"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
	"gorm.io/datatypes"
)

// Normalizer maps one vendor order payload to a canonical transaction. It
// performs no I/O.
type Normalizer func(raw json.RawMessage) (*txdomain.Transaction, error)

// FieldMap describes where a vendor keeps each canonical field. Every entry
// lists candidate dotted paths tried in order.
type FieldMap struct {
	ID            []string
	OrderID       []string
	Amount        []string
	AmountInCents bool
	Currency      []string
	Status        []string
	PaymentMethod []string
	CreatedAt     []string
	UpdatedAt     []string

	// Location reads timestamps sent without an offset. Nil means Brasilia.
	Location *time.Location

	// Customer is the path of the customer object. The customer fields are
	// relative to it.
	Customer         string
	CustomerName     []string
	CustomerEmail    []string
	CustomerPhone    []string
	CustomerDocument []string

	// Items is the path of the line item array. Product is used when the
	// vendor sends a single product object instead.
	Items        string
	Product      string
	ItemID       []string
	ItemName     []string
	ItemPrice    []string
	ItemQuantity []string

	// Metadata lists optional blocks copied verbatim, keyed by their last
	// path segment.
	Metadata []string
}

func (f FieldMap) Normalizer(platform string, mapper status.Mapper) Normalizer {
	return func(raw json.RawMessage) (*txdomain.Transaction, error) {
		obj, err := Decode(raw)
		if err != nil {
			return nil, Fail(platform, "payload", err.Error())
		}
		return f.normalize(platform, mapper, obj)
	}
}

func (f FieldMap) normalize(platform string, mapper status.Mapper, obj Object) (*txdomain.Transaction, error) {
	id := obj.String(f.ID...)
	orderID := obj.String(f.OrderID...)
	if id == "" && orderID == "" {
		return nil, Fail(platform, "id", "missing order identifier")
	}
	if id == "" {
		id = orderID
	}
	if orderID == "" {
		orderID = id
	}

	amountRaw, ok := obj.First(f.Amount...)
	if !ok {
		return nil, Fail(platform, "amount", "missing")
	}
	amount, err := ParseAmount(amountRaw)
	if err != nil {
		return nil, Fail(platform, "amount", "not a number")
	}
	if f.AmountInCents {
		amount = amount.Shift(-2)
	}

	vendorStatus := obj.String(f.Status...)
	if vendorStatus == "" {
		return nil, Fail(platform, "status", "missing")
	}

	customerObj, ok := obj.Object(f.Customer)
	if !ok {
		return nil, Fail(platform, "customer", "missing")
	}
	customer, err := RequireCustomer(platform, txdomain.Customer{
		Name:     customerObj.String(f.CustomerName...),
		Email:    customerObj.String(f.CustomerEmail...),
		Phone:    customerObj.String(f.CustomerPhone...),
		Document: customerObj.String(f.CustomerDocument...),
	})
	if err != nil {
		return nil, err
	}

	tx := &txdomain.Transaction{
		ID:            id,
		PlatformID:    platform,
		OrderID:       orderID,
		Amount:        amount,
		Currency:      Currency(obj.String(f.Currency...)),
		Status:        mapper(vendorStatus),
		Customer:      customer,
		PaymentMethod: obj.String(f.PaymentMethod...),
	}
	if v, ok := obj.First(f.CreatedAt...); ok {
		tx.CreatedAt, _ = ParseTimeIn(v, f.location())
	}
	if v, ok := obj.First(f.UpdatedAt...); ok {
		if t, err := ParseTimeIn(v, f.location()); err == nil {
			tx.SourceUpdatedAt = &t
		}
	}

	metadata := datatypes.JSONMap{}
	if f.Items != "" {
		if items, ok := obj.Slice(f.Items); ok && len(items) > 0 {
			if first, ok := items[0].(map[string]any); ok {
				tx.Product = f.product(Object(first))
			}
			metadata["items"] = items
		}
	}
	if tx.Product == (txdomain.Product{}) && f.Product != "" {
		if product, ok := obj.Object(f.Product); ok {
			tx.Product = f.product(product)
		}
	}
	for _, path := range f.Metadata {
		if v, ok := obj.Get(path); ok {
			metadata[lastSegment(path)] = v
		}
	}
	if len(metadata) > 0 {
		tx.Metadata = metadata
	}
	return tx, nil
}

func (f FieldMap) location() *time.Location {
	if f.Location != nil {
		return f.Location
	}
	return Brasilia
}

func (f FieldMap) product(item Object) txdomain.Product {
	product := txdomain.Product{
		ID:   item.String(f.ItemID...),
		Name: item.String(f.ItemName...),
	}
	if v, ok := item.First(f.ItemPrice...); ok {
		if price, err := ParseAmount(v); err == nil {
			if f.AmountInCents {
				price = price.Shift(-2)
			}
			product.Price = decimal.NewNullDecimal(price)
		}
	}
	if v, ok := item.First(f.ItemQuantity...); ok {
		product.Quantity = ParseQuantity(v)
	}
	return product
}

// RequireCustomer enforces the customer fields every vendor must send.
func RequireCustomer(platform string, c txdomain.Customer) (txdomain.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" {
		return c, Fail(platform, "customer.name", "missing")
	}
	if c.Email == "" {
		return c, Fail(platform, "customer.email", "missing")
	}
	return c, nil
}

// Currency upper-cases a vendor currency code, defaulting to BRL.
func Currency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return txdomain.DefaultCurrency
	}
	return code
}

func Fail(platform, field, reason string) error {
	return domain.NewNormalizationError(platform, field, reason)
}

func lastSegment(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
