package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/models"
)

// InvoiceService owns every mutation of an invoice, its items, and its
// ledger entries. Handlers never compute totals or write transactions
// themselves; each operation here runs as one database transaction that
// either fully applies (including the recomputed total and any ledger
// writes) or fully rolls back.
type InvoiceService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewInvoiceService(db *gorm.DB, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{db: db, logger: logger}
}

type ItemInput struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

type CreateInvoiceInput struct {
	ReferenceNumber string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	Items           []ItemInput
}

// CustomerInfoInput carries a partial customer-field update. Nil fields are
// left untouched. Status, items, and the ledger are never affected.
type CustomerInfoInput struct {
	CustomerName    *string
	CustomerEmail   *string
	CustomerPhone   *string
	CustomerAddress *string
}

type InvoiceFilter struct {
	Status        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	CustomerName  string
	CustomerEmail string
	Sort          string
	Page          int
	PageSize      int
}

type InvoicePage struct {
	Count    int64            `json:"count"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Results  []models.Invoice `json:"results"`
}

const defaultPageSize = 10

// CreateInvoice validates and persists an invoice with its items, computes
// the total, and writes the one Sale ledger entry — all atomically. Either
// the invoice, all of its items, and the Sale transaction exist afterwards,
// or none do.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input CreateInvoiceInput, actingUserID uint) (*models.Invoice, error) {
	reference := strings.TrimSpace(input.ReferenceNumber)
	if reference == "" {
		return nil, validationErr("reference_number", "Reference number cannot be empty or contain only whitespace.")
	}

	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return nil, validationErr("customer_name", "Customer name cannot be empty or contain only whitespace.")
	}

	email := strings.ToLower(strings.TrimSpace(input.CustomerEmail))
	if email == "" {
		return nil, validationErr("customer_email", "Customer email cannot be empty or contain only whitespace.")
	}

	if len(input.Items) == 0 {
		return nil, validationErr("items", "Invoice must have at least one item.")
	}
	for _, item := range input.Items {
		if err := validateItem(item); err != nil {
			return nil, err
		}
	}

	var created *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Invoice{}).Where("reference_number = ?", reference).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return validationErr("reference_number", fmt.Sprintf("Invoice with reference number '%s' already exists.", reference))
		}

		invoice := models.Invoice{
			ReferenceNumber: reference,
			CustomerName:    name,
			CustomerEmail:   email,
			CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
			CustomerAddress: strings.TrimSpace(input.CustomerAddress),
			Status:          models.StatusPending,
			TotalAmount:     decimal.Zero,
			CreatedByID:     actingUserID,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		items := make([]models.InvoiceItem, 0, len(input.Items))
		for _, in := range input.Items {
			items = append(items, models.InvoiceItem{
				InvoiceID:   invoice.ID,
				Description: strings.TrimSpace(in.Description),
				Quantity:    in.Quantity,
				UnitPrice:   models.NormalizeAmount(in.UnitPrice),
				LineTotal:   models.LineTotal(in.Quantity, in.UnitPrice),
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		total := models.SumLineTotals(items)
		if err := tx.Model(&invoice).Update("total_amount", total).Error; err != nil {
			return err
		}

		sale := models.Transaction{
			InvoiceID:       invoice.ID,
			TransactionType: models.TransactionSale,
			Amount:          total,
			Description:     fmt.Sprintf("Sale transaction for invoice %s", reference),
			CreatedByID:     actingUserID,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		loaded, err := s.loadInvoice(tx, invoice.ID)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.Uint("invoice_id", created.ID),
		zap.String("reference_number", created.ReferenceNumber),
		zap.Uint("user_id", actingUserID),
	)
	return created, nil
}

// GetInvoice returns the invoice with its items and ledger entries.
func (s *InvoiceService) GetInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	return s.loadInvoice(s.db.WithContext(ctx), id)
}

// UpdateCustomerInfo updates customer fields on a pending or paid invoice.
func (s *InvoiceService) UpdateCustomerInfo(ctx context.Context, id uint, input CustomerInfoInput) (*models.Invoice, error) {
	updates := map[string]interface{}{}

	if input.CustomerName != nil {
		name := strings.TrimSpace(*input.CustomerName)
		if name == "" {
			return nil, validationErr("customer_name", "Customer name cannot be empty or contain only whitespace.")
		}
		updates["customer_name"] = name
	}
	if input.CustomerEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*input.CustomerEmail))
		if email == "" {
			return nil, validationErr("customer_email", "Customer email cannot be empty or contain only whitespace.")
		}
		updates["customer_email"] = email
	}
	if input.CustomerPhone != nil {
		updates["customer_phone"] = strings.TrimSpace(*input.CustomerPhone)
	}
	if input.CustomerAddress != nil {
		updates["customer_address"] = strings.TrimSpace(*input.CustomerAddress)
	}

	var updated *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.lockInvoice(tx, id)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(invoice).Updates(updates).Error; err != nil {
				return err
			}
		}
		updated, err = s.loadInvoice(tx, invoice.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteInvoice removes the invoice together with its items and ledger
// entries. Ledger entries do not outlive their invoice.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.lockInvoice(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(invoice).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info("invoice deleted", zap.Uint("invoice_id", id))
	return nil
}

// AddItem appends a line item and synchronously recomputes the invoice
// total in the same transaction.
func (s *InvoiceService) AddItem(ctx context.Context, invoiceID uint, input ItemInput) (*models.Invoice, error) {
	if err := validateItem(input); err != nil {
		return nil, err
	}

	var updated *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.lockInvoice(tx, invoiceID)
		if err != nil {
			return err
		}

		item := models.InvoiceItem{
			InvoiceID:   invoice.ID,
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			UnitPrice:   models.NormalizeAmount(input.UnitPrice),
			LineTotal:   models.LineTotal(input.Quantity, input.UnitPrice),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		if err := s.recalculateTotal(tx, invoice); err != nil {
			return err
		}
		updated, err = s.loadInvoice(tx, invoice.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateItem replaces the item's fields, recomputes its line total, and
// recomputes the invoice total.
func (s *InvoiceService) UpdateItem(ctx context.Context, invoiceID, itemID uint, input ItemInput) (*models.Invoice, error) {
	if err := validateItem(input); err != nil {
		return nil, err
	}

	var updated *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.lockInvoice(tx, invoiceID)
		if err != nil {
			return err
		}

		var item models.InvoiceItem
		if err := tx.Where("invoice_id = ?", invoice.ID).First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "invoice item", ID: itemID}
			}
			return err
		}

		unitPrice := models.NormalizeAmount(input.UnitPrice)
		if err := tx.Model(&item).Updates(map[string]interface{}{
			"description": strings.TrimSpace(input.Description),
			"quantity":    input.Quantity,
			"unit_price":  unitPrice,
			"line_total":  models.LineTotal(input.Quantity, unitPrice),
		}).Error; err != nil {
			return err
		}
		if err := s.recalculateTotal(tx, invoice); err != nil {
			return err
		}
		updated, err = s.loadInvoice(tx, invoice.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes a line item and recomputes the invoice total. The last
// remaining item of an invoice cannot be deleted.
func (s *InvoiceService) DeleteItem(ctx context.Context, invoiceID, itemID uint) (*models.Invoice, error) {
	var updated *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.lockInvoice(tx, invoiceID)
		if err != nil {
			return err
		}

		var item models.InvoiceItem
		if err := tx.Where("invoice_id = ?", invoice.ID).First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "invoice item", ID: itemID}
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.InvoiceItem{}).Where("invoice_id = ?", invoice.ID).Count(&count).Error; err != nil {
			return err
		}
		if count <= 1 {
			return validationErr("items", "Cannot delete the last item from an invoice. Each invoice must have at least one item.")
		}

		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		if err := s.recalculateTotal(tx, invoice); err != nil {
			return err
		}
		updated, err = s.loadInvoice(tx, invoice.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// PayInvoice performs the one-way Pending -> Paid transition and writes the
// single Payment ledger entry in the same transaction. A second pay attempt
// is rejected with a validation error, not silently ignored; when two
// concurrent attempts race, the status-guarded update lets exactly one win.
func (s *InvoiceService) PayInvoice(ctx context.Context, id uint, actingUserID uint) (*models.Invoice, error) {
	var paid *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.lockInvoice(tx, id)
		if err != nil {
			return err
		}
		if !invoice.CanBePaid() {
			return validationErr("status", fmt.Sprintf("Cannot mark invoice as paid. Current status is '%s'.", invoice.Status))
		}

		var itemCount int64
		if err := tx.Model(&models.InvoiceItem{}).Where("invoice_id = ?", invoice.ID).Count(&itemCount).Error; err != nil {
			return err
		}
		if itemCount == 0 {
			return validationErr("items", "Cannot mark invoice as paid. Invoice must have at least one item.")
		}

		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND status = ?", invoice.ID, models.StatusPending).
			Update("status", models.StatusPaid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return validationErr("status", "Invoice is already paid.")
		}

		payment := models.Transaction{
			InvoiceID:       invoice.ID,
			TransactionType: models.TransactionPayment,
			Amount:          invoice.TotalAmount,
			Description:     fmt.Sprintf("Payment received for invoice %s", invoice.ReferenceNumber),
			CreatedByID:     actingUserID,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		paid, err = s.loadInvoice(tx, invoice.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice paid",
		zap.Uint("invoice_id", paid.ID),
		zap.String("reference_number", paid.ReferenceNumber),
		zap.Uint("user_id", actingUserID),
	)
	return paid, nil
}

// ListInvoices returns a page of invoice summaries matching the filter.
func (s *InvoiceService) ListInvoices(ctx context.Context, filter InvoiceFilter) (*InvoicePage, error) {
	query := s.db.WithContext(ctx).Model(&models.Invoice{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.CustomerName != "" {
		query = query.Where("customer_name LIKE ?", "%"+filter.CustomerName+"%")
	}
	if filter.CustomerEmail != "" {
		query = query.Where("customer_email LIKE ?", "%"+filter.CustomerEmail+"%")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	order := orderClause(filter.Sort, map[string]string{
		"created_at":       "created_at",
		"updated_at":       "updated_at",
		"total_amount":     "total_amount",
		"reference_number": "reference_number",
	}, "created_at DESC")

	var invoices []models.Invoice
	err := query.
		Select("id", "reference_number", "customer_name", "customer_email", "status", "total_amount", "created_at").
		Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}

	return &InvoicePage{Count: count, Page: page, PageSize: pageSize, Results: invoices}, nil
}

func (s *InvoiceService) lockInvoice(tx *gorm.DB, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "invoice", ID: id}
		}
		return nil, err
	}
	return &invoice, nil
}

// recalculateTotal re-derives total_amount from the current item set and
// persists it when it changed. Runs before the surrounding transaction
// commits, so callers always observe the updated total.
func (s *InvoiceService) recalculateTotal(tx *gorm.DB, invoice *models.Invoice) error {
	var items []models.InvoiceItem
	if err := tx.Where("invoice_id = ?", invoice.ID).Find(&items).Error; err != nil {
		return err
	}

	total := models.SumLineTotals(items)
	if invoice.TotalAmount.Equal(total) {
		return nil
	}
	if err := tx.Model(invoice).Update("total_amount", total).Error; err != nil {
		return err
	}
	invoice.TotalAmount = total
	return nil
}

func (s *InvoiceService) loadInvoice(tx *gorm.DB, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := tx.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("invoice_items.id") }).
		Preload("Transactions").
		First(&invoice, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "invoice", ID: id}
		}
		return nil, err
	}
	return &invoice, nil
}

func validateItem(input ItemInput) error {
	if strings.TrimSpace(input.Description) == "" {
		return validationErr("description", "Item description cannot be empty.")
	}
	if input.Quantity < 1 {
		return validationErr("quantity", "Quantity must be at least 1.")
	}
	if input.UnitPrice.IsNegative() {
		return validationErr("unit_price", "Unit price cannot be negative.")
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

// orderClause maps a "-field" style sort key onto a whitelisted ORDER BY
// expression, falling back to the default when the key is unknown.
func orderClause(sort string, allowed map[string]string, fallback string) string {
	if sort == "" {
		return fallback
	}
	desc := strings.HasPrefix(sort, "-")
	key := strings.TrimPrefix(sort, "-")
	column, ok := allowed[key]
	if !ok {
		return fallback
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}
