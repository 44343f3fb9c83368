package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/config"
	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/models"
	"github.com/Tanjim-Noor/BE-Sales-Invoice-Management/services"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	user := models.User{Username: "tester", Email: "tester@example.com", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	logger := zap.NewNop()
	invoiceHandler := NewInvoiceHandler(services.NewInvoiceService(db, logger))
	transactionHandler := NewTransactionHandler(services.NewTransactionService(db, logger))
	userHandler := NewUserHandler(services.NewUserService(db, logger))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", user.ID)
		c.Next()
	})

	api := router.Group("/api/v1")
	{
		api.POST("/invoices", invoiceHandler.CreateInvoice)
		api.GET("/invoices", invoiceHandler.ListInvoices)
		api.GET("/invoices/:id", invoiceHandler.GetInvoice)
		api.PATCH("/invoices/:id", invoiceHandler.UpdateInvoice)
		api.DELETE("/invoices/:id", invoiceHandler.DeleteInvoice)
		api.POST("/invoices/:id/pay", invoiceHandler.PayInvoice)
		api.POST("/invoices/:id/items", invoiceHandler.AddItem)
		api.PUT("/invoices/:id/items/:itemID", invoiceHandler.UpdateItem)
		api.DELETE("/invoices/:id/items/:itemID", invoiceHandler.DeleteItem)
		api.GET("/transactions", transactionHandler.ListTransactions)
		api.GET("/transactions/:id", transactionHandler.GetTransaction)
		api.POST("/users", userHandler.CreateUser)
		api.DELETE("/users/:id", userHandler.DeleteUser)
	}

	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createInvoiceBody(reference string) map[string]interface{} {
	return map[string]interface{}{
		"reference_number": reference,
		"customer_name":    "John Doe",
		"customer_email":   "john@example.com",
		"items": []map[string]interface{}{
			{"description": "Widget", "quantity": 2, "unit_price": "50.00"},
			{"description": "Gadget", "quantity": 1, "unit_price": "75.00"},
		},
	}
}

func TestCreateInvoiceEndpoint(t *testing.T) {
	router, db := setupTestRouter(t)

	t.Run("Valid Request", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/v1/invoices", createInvoiceBody("INV-001"))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "INV-001")

		var invoice models.Invoice
		require.NoError(t, db.First(&invoice).Error)
		assert.Equal(t, models.StatusPending, invoice.Status)
		assert.Equal(t, "175", invoice.TotalAmount.String())

		var saleCount int64
		db.Model(&models.Transaction{}).Where("transaction_type = ?", models.TransactionSale).Count(&saleCount)
		assert.EqualValues(t, 1, saleCount)
	})

	t.Run("Duplicate Reference", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/v1/invoices", createInvoiceBody("INV-001"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "already exists")
	})

	t.Run("Missing Required Fields", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/v1/invoices", map[string]interface{}{
			"customer_name": "John",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Empty Items", func(t *testing.T) {
		body := createInvoiceBody("INV-002")
		body["items"] = []map[string]interface{}{}
		w := doJSON(t, router, "POST", "/api/v1/invoices", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "at least one item")
	})
}

func TestInvoiceLifecycleEndpoints(t *testing.T) {
	router, db := setupTestRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/invoices", createInvoiceBody("INV-100"))
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	base := fmt.Sprintf("/api/v1/invoices/%d", created.ID)

	t.Run("Get", func(t *testing.T) {
		w := doJSON(t, router, "GET", base, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "INV-100")
	})

	t.Run("Get Missing", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/v1/invoices/9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Update Customer Info", func(t *testing.T) {
		w := doJSON(t, router, "PATCH", base, map[string]interface{}{
			"customer_name": "Jane Smith",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Jane Smith")
	})

	t.Run("Add Item", func(t *testing.T) {
		w := doJSON(t, router, "POST", base+"/items", map[string]interface{}{
			"description": "Sprocket", "quantity": 4, "unit_price": "2.50",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var invoice models.Invoice
		require.NoError(t, db.First(&invoice, created.ID).Error)
		assert.Equal(t, "185", invoice.TotalAmount.String())
	})

	t.Run("Update Item", func(t *testing.T) {
		var items []models.InvoiceItem
		require.NoError(t, db.Where("invoice_id = ?", created.ID).Order("id").Find(&items).Error)
		require.Len(t, items, 3)

		w := doJSON(t, router, "PUT", fmt.Sprintf("%s/items/%d", base, items[2].ID), map[string]interface{}{
			"description": "Sprocket XL", "quantity": 2, "unit_price": "7.50",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var invoice models.Invoice
		require.NoError(t, db.First(&invoice, created.ID).Error)
		assert.Equal(t, "190", invoice.TotalAmount.String())
	})

	t.Run("Delete Item", func(t *testing.T) {
		var items []models.InvoiceItem
		require.NoError(t, db.Where("invoice_id = ?", created.ID).Order("id").Find(&items).Error)
		require.Len(t, items, 3)

		w := doJSON(t, router, "DELETE", fmt.Sprintf("%s/items/%d", base, items[2].ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var invoice models.Invoice
		require.NoError(t, db.First(&invoice, created.ID).Error)
		assert.Equal(t, "175", invoice.TotalAmount.String())
	})

	t.Run("Pay", func(t *testing.T) {
		w := doJSON(t, router, "POST", base+"/pay", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "marked as paid")

		var paymentCount int64
		db.Model(&models.Transaction{}).
			Where("invoice_id = ? AND transaction_type = ?", created.ID, models.TransactionPayment).
			Count(&paymentCount)
		assert.EqualValues(t, 1, paymentCount)
	})

	t.Run("Pay Again", func(t *testing.T) {
		w := doJSON(t, router, "POST", base+"/pay", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var paymentCount int64
		db.Model(&models.Transaction{}).
			Where("invoice_id = ? AND transaction_type = ?", created.ID, models.TransactionPayment).
			Count(&paymentCount)
		assert.EqualValues(t, 1, paymentCount)
	})

	t.Run("Delete Invoice", func(t *testing.T) {
		w := doJSON(t, router, "DELETE", base, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		var count int64
		db.Model(&models.Transaction{}).Where("invoice_id = ?", created.ID).Count(&count)
		assert.Zero(t, count)
	})
}

func TestListInvoicesEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, ref := range []string{"INV-201", "INV-202"} {
		w := doJSON(t, router, "POST", "/api/v1/invoices", createInvoiceBody(ref))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, "GET", "/api/v1/invoices?status=Pending&page=1&page_size=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Count   int64                    `json:"count"`
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.EqualValues(t, 2, page.Count)
	assert.Len(t, page.Results, 2)
}

func TestUserEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/users", map[string]interface{}{
		"username": "cashier", "email": "cashier@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("Delete Unreferenced", func(t *testing.T) {
		w := doJSON(t, router, "DELETE", fmt.Sprintf("/api/v1/users/%d", created.ID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Delete Referenced Refused", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/v1/invoices", createInvoiceBody("INV-300"))
		require.Equal(t, http.StatusCreated, w.Code)

		// User 1 created the invoice above.
		w = doJSON(t, router, "DELETE", "/api/v1/users/1", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
