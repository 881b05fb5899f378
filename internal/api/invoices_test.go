package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"project_hub/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func invoiceBody(number string) gin.H {
	return gin.H{
		"number":     number,
		"issue_date": "2024-03-01",
		"due_date":   "2024-03-31",
		"tax_rate":   "10",
		"items": []gin.H{
			{"description": "Design", "quantity": "2", "unit_price": "75.50"},
			{"description": "Hosting", "quantity": "1", "unit_price": "49"},
		},
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	h := newHarness(t)
	token := h.signup("ada@example.com")
	clientID := h.create("/clients", token, "client", gin.H{"name": "Acme", "email": "billing@acme.test"})

	body := invoiceBody("")
	body["client_id"] = clientID
	code, resp := h.do(http.MethodPost, "/invoices", token, body)
	require.Equal(t, http.StatusCreated, code, resp)
	inv := obj(resp, "invoice")
	assert.Equal(t, "INV-0001", inv["number"])
	assert.Equal(t, "draft", inv["status"])
	assert.Equal(t, "200", inv["subtotal"])
	assert.Equal(t, "20", inv["tax"])
	assert.Equal(t, "220", inv["total"])
	assert.Len(t, list(inv, "items"), 2)
	id := uint(inv["id"].(float64))
	path := "/invoices/" + itoa(id)

	// numbers are unique per user
	code, _ = h.do(http.MethodPost, "/invoices", token, invoiceBody("INV-0001"))
	assert.Equal(t, http.StatusConflict, code)

	// update replaces the items
	body["items"] = []gin.H{{"description": "Retainer", "quantity": "1", "unit_price": "1000"}}
	code, resp = h.do(http.MethodPut, path, token, body)
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, "1000", obj(resp, "invoice")["subtotal"])
	code, resp = h.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list(obj(resp, "invoice"), "items"), 1)

	code, resp = h.do(http.MethodPost, path+"/send", token, nil)
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, "sent", obj(resp, "invoice")["status"])
	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, []string{"billing@acme.test"}, h.mailer.sent[0].To)
	assert.Contains(t, h.mailer.sent[0].Subject, "INV-0001")

	code, resp = h.do(http.MethodPost, path+"/pay", token, gin.H{"paid_at": "2024-03-20"})
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, "paid", obj(resp, "invoice")["status"])
	assert.NotNil(t, obj(resp, "invoice")["paid_at"])

	// paid invoices are final
	code, _ = h.do(http.MethodPut, path, token, body)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = h.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = h.do(http.MethodPost, path+"/pay", token, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, resp = h.do(http.MethodGet, "/invoices?status=paid", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), resp["total"])
}

func TestInvoiceValidation(t *testing.T) {
	h := newHarness(t)
	token := h.signup("ada@example.com")

	body := invoiceBody("")
	body["items"] = []gin.H{}
	code, resp := h.do(http.MethodPost, "/invoices", token, body)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotEmpty(t, list(resp, "fields"))
	assert.Equal(t, "items", list(resp, "fields")[0].(map[string]any)["field"])

	body = invoiceBody("")
	body["due_date"] = "2024-02-01"
	code, _ = h.do(http.MethodPost, "/invoices", token, body)
	assert.Equal(t, http.StatusBadRequest, code)

	body = invoiceBody("")
	body["items"] = []gin.H{{"description": "Free", "quantity": "0", "unit_price": "10"}}
	code, _ = h.do(http.MethodPost, "/invoices", token, body)
	assert.Equal(t, http.StatusBadRequest, code)

	body = invoiceBody("")
	body["client_id"] = 999
	code, resp = h.do(http.MethodPost, "/invoices", token, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Unknown client", resp["error"])
}

func TestSendInvoiceRequiresClientEmailAndReportsDeliveryFailure(t *testing.T) {
	h := newHarness(t)
	token := h.signup("ada@example.com")

	id := h.create("/invoices", token, "invoice", invoiceBody(""))
	code, _ := h.do(http.MethodPost, "/invoices/"+itoa(id)+"/send", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	clientID := h.create("/clients", token, "client", gin.H{"name": "Acme", "email": "billing@acme.test"})
	body := invoiceBody("INV-0100")
	body["client_id"] = clientID
	id = h.create("/invoices", token, "invoice", body)

	h.mailer.err = errors.New("provider down")
	code, _ = h.do(http.MethodPost, "/invoices/"+itoa(id)+"/send", token, nil)
	assert.Equal(t, http.StatusBadGateway, code)
	code, resp := h.do(http.MethodGet, "/invoices/"+itoa(id), token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "draft", obj(resp, "invoice")["status"])
}

func TestCancelAndDeleteInvoice(t *testing.T) {
	h := newHarness(t)
	token := h.signup("ada@example.com")

	cancelled := h.create("/invoices", token, "invoice", invoiceBody(""))
	code, resp := h.do(http.MethodPost, "/invoices/"+itoa(cancelled)+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cancelled", obj(resp, "invoice")["status"])
	code, _ = h.do(http.MethodPost, "/invoices/"+itoa(cancelled)+"/pay", token, nil)
	assert.Equal(t, http.StatusConflict, code)

	draft := h.create("/invoices", token, "invoice", invoiceBody(""))
	code, _ = h.do(http.MethodDelete, "/invoices/"+itoa(draft), token, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = h.do(http.MethodGet, "/invoices/"+itoa(draft), token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateInvoiceNumberClaimedConcurrentlyIsAConflict(t *testing.T) {
	h := newHarness(t)
	token := h.signup("ada@example.com")

	// another request inserts the same number between the check and the insert
	claimed := false
	require.NoError(t, h.db.Callback().Create().Before("gorm:create").Register("test:claim_number", func(tx *gorm.DB) {
		inv, ok := tx.Statement.Dest.(*domain.Invoice)
		if !ok || claimed {
			return
		}
		claimed = true
		now := time.Now().UTC()
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO invoices (user_id, number, status, issue_date, due_date, tax_rate, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			inv.UserID, inv.Number, domain.InvoiceDraft, inv.IssueDate, inv.DueDate, "0", "", now, now)
		require.NoError(t, err)
	}))

	code, resp := h.do(http.MethodPost, "/invoices", token, invoiceBody("INV-0100"))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Invoice number already used", resp["error"])
	assert.True(t, claimed)
}
