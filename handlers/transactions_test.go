package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/models"
)

func TestTransactionEndpoints(t *testing.T) {
	router, db := setupTestRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/invoices", createInvoiceBody("INV-400"))
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, "POST", fmt.Sprintf("/api/v1/invoices/%d/pay", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("List All", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/transactions", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Count   int64                    `json:"count"`
			Results []map[string]interface{} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.EqualValues(t, 2, page.Count)
	})

	t.Run("Filter By Type", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/transactions?transaction_type=Payment", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Count   int64                `json:"count"`
			Results []models.Transaction `json:"results"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		require.EqualValues(t, 1, page.Count)
		assert.Equal(t, models.TransactionPayment, page.Results[0].TransactionType)
	})

	t.Run("Get One", func(t *testing.T) {
		var txn models.Transaction
		require.NoError(t, db.First(&txn).Error)

		w := doJSON(t, router, "GET", fmt.Sprintf("/api/v1/transactions/%d", txn.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Get Missing", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/transactions/9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
