package repository

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/paybridge/internal/transaction/domain"
	"gorm.io/gorm"
)

const selectColumns = `id, platform_id, user_id, order_id, amount, currency, status,
	customer_name, customer_email, customer_phone, customer_document,
	product_id, product_name, product_price, product_quantity,
	payment_method, created_at, updated_at, metadata, source_updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tx *domain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO transactions (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insertArgs(tx)...,
	).Error
}

// Upsert writes tx unless both rows carry a vendor timestamp and the stored
// one is newer. An incoming row without one keeps the stored timestamp.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, tx *domain.Transaction) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO transactions (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (platform_id, id) DO UPDATE SET
			user_id = CASE WHEN excluded.user_id <> '' THEN excluded.user_id ELSE transactions.user_id END,
			order_id = excluded.order_id,
			amount = excluded.amount,
			currency = excluded.currency,
			status = excluded.status,
			customer_name = excluded.customer_name,
			customer_email = excluded.customer_email,
			customer_phone = excluded.customer_phone,
			customer_document = excluded.customer_document,
			product_id = excluded.product_id,
			product_name = excluded.product_name,
			product_price = excluded.product_price,
			product_quantity = excluded.product_quantity,
			payment_method = excluded.payment_method,
			updated_at = excluded.updated_at,
			metadata = excluded.metadata,
			source_updated_at = COALESCE(excluded.source_updated_at, transactions.source_updated_at)
		WHERE transactions.source_updated_at IS NULL
			OR excluded.source_updated_at IS NULL
			OR transactions.source_updated_at <= excluded.source_updated_at`,
		insertArgs(tx)...,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, key domain.Key, patch domain.Patch, updatedAt time.Time) (int64, error) {
	sets := make([]string, 0, 16)
	args := make([]any, 0, 20)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.OrderID != nil {
		set("order_id", *patch.OrderID)
	}
	if patch.Amount != nil {
		set("amount", *patch.Amount)
	}
	if patch.Currency != nil {
		set("currency", *patch.Currency)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Customer != nil {
		set("customer_name", patch.Customer.Name)
		set("customer_email", patch.Customer.Email)
		set("customer_phone", patch.Customer.Phone)
		set("customer_document", patch.Customer.Document)
	}
	if patch.Product != nil {
		set("product_id", patch.Product.ID)
		set("product_name", patch.Product.Name)
		set("product_price", patch.Product.Price)
		set("product_quantity", patch.Product.Quantity)
	}
	if patch.PaymentMethod != nil {
		set("payment_method", *patch.PaymentMethod)
	}
	if patch.Metadata != nil {
		set("metadata", patch.Metadata)
	}
	set("updated_at", updatedAt)

	args = append(args, key.PlatformID, key.ID)
	res := db.WithContext(ctx).Exec(
		`UPDATE transactions SET `+strings.Join(sets, ", ")+`
		 WHERE platform_id = ? AND id = ?`,
		args...,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, key domain.Key) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM transactions WHERE platform_id = ? AND id = ?`,
		key.PlatformID,
		key.ID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, key domain.Key) (*domain.Transaction, error) {
	var item domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM transactions
		 WHERE platform_id = ? AND id = ?
		 LIMIT 1`,
		key.PlatformID,
		key.ID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == "" {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Transaction, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.PlatformID != "" {
		where = append(where, "platform_id = ?")
		args = append(args, filter.PlatformID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.OrderID != "" {
		where = append(where, "order_id = ?")
		args = append(args, filter.OrderID)
	}
	if filter.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		where = append(where, "created_at <= ?")
		args = append(args, filter.To.UTC())
	}

	query := `SELECT ` + selectColumns + `
		 FROM transactions
		 WHERE ` + strings.Join(where, " AND ") + `
		 ORDER BY created_at DESC, platform_id, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var items []domain.Transaction
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Summarize(ctx context.Context, db *gorm.DB, userID string) ([]domain.StatusTotal, error) {
	var totals []domain.StatusTotal
	err := db.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount
		 FROM transactions
		 WHERE user_id = ?
		 GROUP BY status
		 ORDER BY status`,
		userID,
	).Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func insertArgs(tx *domain.Transaction) []any {
	return []any{
		tx.ID,
		tx.PlatformID,
		tx.UserID,
		tx.OrderID,
		tx.Amount,
		tx.Currency,
		string(tx.Status),
		tx.Customer.Name,
		tx.Customer.Email,
		tx.Customer.Phone,
		tx.Customer.Document,
		tx.Product.ID,
		tx.Product.Name,
		tx.Product.Price,
		tx.Product.Quantity,
		tx.PaymentMethod,
		tx.CreatedAt,
		tx.UpdatedAt,
		tx.Metadata,
		tx.SourceUpdatedAt,
	}
}
