package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/services"
)

// TransactionHandler exposes the ledger read-only. Transactions are written
// by the invoice service alone and cannot be created, edited, or deleted
// through the API.
type TransactionHandler struct {
	service *services.TransactionService
}

func NewTransactionHandler(service *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	filter := services.TransactionFilter{
		TransactionType: c.Query("transaction_type"),
		InvoiceID:       uint(queryInt(c, "invoice_id", 0)),
		Sort:            c.Query("ordering"),
		Page:            queryInt(c, "page", 1),
		PageSize:        queryInt(c, "page_size", 0),
	}
	filter.DateAfter = queryDate(c, "date_after")
	filter.DateBefore = queryDate(c, "date_before")

	page, err := h.service.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	transaction, err := h.service.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}
