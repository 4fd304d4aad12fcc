package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	txdomain "github.com/smallbiznis/paybridge/internal/transaction/domain"
)

type updateTransactionRequest struct {
	OrderID       *string            `json:"order_id"`
	Amount        *decimal.Decimal   `json:"amount"`
	Currency      *string            `json:"currency"`
	Status        *string            `json:"status"`
	Customer      *txdomain.Customer `json:"customer"`
	Product       *txdomain.Product  `json:"product"`
	PaymentMethod *string            `json:"payment_method"`
	Metadata      map[string]any     `json:"metadata"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) ListTransactions(c *gin.Context) {
	var query struct {
		Platform string `form:"platform"`
		Status   string `form:"status"`
		OrderID  string `form:"order_id"`
		From     string `form:"from"`
		To       string `form:"to"`
		Limit    string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter := txdomain.ListFilter{
		UserID:     currentUserID(c),
		PlatformID: strings.TrimSpace(query.Platform),
		OrderID:    strings.TrimSpace(query.OrderID),
	}
	if strings.TrimSpace(query.Status) != "" {
		status, err := txdomain.ParseStatus(query.Status)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		filter.Status = status
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}
	filter.From, filter.To = from, to

	limit, err := listLimit(query.Limit)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}
	filter.Limit = limit

	txs, err := s.transactions.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if txs == nil {
		txs = []txdomain.Transaction{}
	}

	c.JSON(http.StatusOK, gin.H{"data": txs})
}

func (s *Server) SummarizeTransactions(c *gin.Context) {
	summary, err := s.transactions.Summarize(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) GetTransaction(c *gin.Context) {
	tx, err := s.ownedTransaction(c.Request.Context(), currentUserID(c), transactionKey(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tx})
}

func (s *Server) UpdateTransaction(c *gin.Context) {
	var req updateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	patch := txdomain.Patch{
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Customer:      req.Customer,
		Product:       req.Product,
		PaymentMethod: req.PaymentMethod,
	}
	if req.Status != nil {
		status, err := txdomain.ParseStatus(*req.Status)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		patch.Status = &status
	}
	if req.Metadata != nil {
		patch.Metadata = req.Metadata
	}

	ctx := c.Request.Context()
	key := transactionKey(c)
	if _, err := s.ownedTransaction(ctx, currentUserID(c), key); err != nil {
		AbortWithError(c, err)
		return
	}

	updated, err := s.transactions.Update(ctx, key, patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (s *Server) UpdateTransactionStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	status, err := txdomain.ParseStatus(req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	key := transactionKey(c)
	if _, err := s.ownedTransaction(ctx, currentUserID(c), key); err != nil {
		AbortWithError(c, err)
		return
	}

	updated, err := s.transactions.UpdateStatus(ctx, key, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (s *Server) DeleteTransaction(c *gin.Context) {
	ctx := c.Request.Context()
	key := transactionKey(c)
	if _, err := s.ownedTransaction(ctx, currentUserID(c), key); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.transactions.Delete(ctx, key); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ownedTransaction hides rows of other users behind not found.
func (s *Server) ownedTransaction(ctx context.Context, userID string, key txdomain.Key) (*txdomain.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, key)
	if err != nil {
		return nil, err
	}
	if tx == nil || tx.UserID != userID {
		return nil, txdomain.ErrNotFound
	}
	return tx, nil
}

func transactionKey(c *gin.Context) txdomain.Key {
	return txdomain.Key{PlatformID: c.Param("platform"), ID: c.Param("id")}
}
