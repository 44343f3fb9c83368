package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of ledger entry. Sale is written once when an
// invoice is created, Payment once when it transitions to Paid.
type TransactionType string

const (
	TransactionSale    TransactionType = "Sale"
	TransactionPayment TransactionType = "Payment"
)

// Transaction is an append-only ledger entry. Rows are never updated or
// deleted directly; they only go away when their invoice is deleted.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	InvoiceID       uint            `gorm:"index;not null" json:"invoice_id"`
	Invoice         Invoice         `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	TransactionType TransactionType `gorm:"size:20;not null;index" json:"transaction_type"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	TransactionDate time.Time       `gorm:"autoCreateTime;index:idx_transactions_date,sort:desc" json:"transaction_date"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatedByID     uint            `gorm:"not null" json:"created_by_id"`
	CreatedBy       User            `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT" json:"created_by,omitempty"`
}

// TableName overrides the table name
func (Transaction) TableName() string {
	return "transactions"
}
