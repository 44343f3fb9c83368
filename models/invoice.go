package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the invoice lifecycle state. The only transition is
// Pending -> Paid; never the other way.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "Pending"
	StatusPaid    InvoiceStatus = "Paid"
)

type Invoice struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time       `gorm:"index:idx_invoices_created_at,sort:desc" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ReferenceNumber string          `gorm:"uniqueIndex;size:50;not null" json:"reference_number"`
	CustomerName    string          `gorm:"size:200;not null" json:"customer_name"`
	CustomerEmail   string          `gorm:"size:255;not null" json:"customer_email"`
	CustomerPhone   string          `gorm:"size:20" json:"customer_phone,omitempty"`
	CustomerAddress string          `gorm:"type:text" json:"customer_address,omitempty"`
	Status          InvoiceStatus   `gorm:"size:20;default:'Pending';index" json:"status"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	CreatedByID     uint            `gorm:"not null" json:"created_by_id"`
	CreatedBy       User            `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT" json:"created_by,omitempty"`
	Items           []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Transactions    []Transaction   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

// TableName overrides the table name
func (Invoice) TableName() string {
	return "invoices"
}

// CanBePaid reports whether the invoice is still pending.
func (i *Invoice) CanBePaid() bool {
	return i.Status == StatusPending
}

type InvoiceItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	InvoiceID   uint            `gorm:"index;not null" json:"invoice_id"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`
}

// TableName overrides the table name
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// CalculateLineTotal returns quantity × unit price. LineTotal must always
// hold exactly this value at rest.
func (i *InvoiceItem) CalculateLineTotal() decimal.Decimal {
	return LineTotal(i.Quantity, i.UnitPrice)
}
