package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/models"
)

// TransactionService is the read-only query surface over the ledger.
// Nothing outside InvoiceService ever writes a transaction row.
type TransactionService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewTransactionService(db *gorm.DB, logger *zap.Logger) *TransactionService {
	return &TransactionService{db: db, logger: logger}
}

type TransactionFilter struct {
	TransactionType string
	InvoiceID       uint
	DateAfter       *time.Time
	DateBefore      *time.Time
	Sort            string
	Page            int
	PageSize        int
}

type TransactionPage struct {
	Count    int64                `json:"count"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Results  []models.Transaction `json:"results"`
}

// ListTransactions returns a page of ledger entries matching the filter.
func (s *TransactionService) ListTransactions(ctx context.Context, filter TransactionFilter) (*TransactionPage, error) {
	query := s.db.WithContext(ctx).Model(&models.Transaction{})

	if filter.TransactionType != "" {
		query = query.Where("transaction_type = ?", filter.TransactionType)
	}
	if filter.InvoiceID != 0 {
		query = query.Where("invoice_id = ?", filter.InvoiceID)
	}
	if filter.DateAfter != nil {
		query = query.Where("transaction_date >= ?", *filter.DateAfter)
	}
	if filter.DateBefore != nil {
		query = query.Where("transaction_date <= ?", *filter.DateBefore)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	order := orderClause(filter.Sort, map[string]string{
		"transaction_date": "transaction_date",
		"amount":           "amount",
		"transaction_type": "transaction_type",
	}, "transaction_date DESC")

	var transactions []models.Transaction
	err := query.
		Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return &TransactionPage{Count: count, Page: page, PageSize: pageSize, Results: transactions}, nil
}

// GetTransaction returns one ledger entry with its invoice.
func (s *TransactionService) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.WithContext(ctx).Preload("Invoice").First(&transaction, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "transaction", ID: id}
		}
		return nil, err
	}
	return &transaction, nil
}
