package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// TestLoanLifecycle walks a loan from creation through repayment records,
// direct transaction edits, and deletion, checking that the loan side and the
// transaction side stay consistent at every step.
func TestLoanLifecycle(t *testing.T) {
	app := setupApp(t)

	accountID := app.createAccount(t, "Checking", "EUR")
	app.setRate(t, "EUR", "0.8")

	// Borrow 5000 USD against the EUR account.
	rec := app.request("POST", "/api/v1/loans",
		fmt.Sprintf(`{"name":"Car loan","account_id":%q,"amount":"5000","type":"borrow","currency":"USD"}`, accountID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create loan failed: %d %s", rec.Code, rec.Body.String())
	}
	loanID := parseJSON(t, rec)["loan"].(map[string]interface{})["id"].(string)

	// Record a repayment backed by a transaction. The record is in the EUR
	// account's currency, so it carries a USD converted amount.
	rec = app.request("POST", "/api/v1/loans/"+loanID+"/records",
		`{"amount":"100","date":"2024-03-01","note":"first installment","create_transaction":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create record failed: %d %s", rec.Code, rec.Body.String())
	}
	record := parseJSON(t, rec)["record"].(map[string]interface{})
	recordID := record["id"].(string)
	if record["converted_amount"] != "125" {
		t.Errorf("expected converted amount 125, got %v", record["converted_amount"])
	}

	// The shadow transaction exists as an expense on the account.
	rec = app.request("GET", "/api/v1/transactions?account_id="+accountID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list transactions failed: %d %s", rec.Code, rec.Body.String())
	}
	txns := parseJSON(t, rec)["data"].([]interface{})
	if len(txns) != 1 {
		t.Fatalf("expected 1 shadow transaction, got %d", len(txns))
	}
	shadow := txns[0].(map[string]interface{})
	if shadow["type"] != "expense" {
		t.Errorf("borrow repayment should be an expense, got %v", shadow["type"])
	}
	if shadow["loan_record_id"] != recordID {
		t.Error("shadow transaction should reference the record")
	}
	shadowID := shadow["id"].(string)

	// Editing the transaction directly reconciles the record.
	rec = app.request("PUT", "/api/v1/transactions/"+shadowID, `{"amount":"200"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update transaction failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/loans/"+loanID+"/records", "")
	records := parseJSON(t, rec)["records"].([]interface{})
	updated := records[0].(map[string]interface{})
	if updated["amount"] != "200" {
		t.Errorf("record should follow the transaction, got %v", updated["amount"])
	}
	if updated["converted_amount"] != "250" {
		t.Errorf("expected re-priced converted amount 250, got %v", updated["converted_amount"])
	}

	// Deleting the transaction takes the record with it.
	rec = app.request("DELETE", "/api/v1/transactions/"+shadowID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete transaction failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/loans/"+loanID+"/records", "")
	records = parseJSON(t, rec)["records"].([]interface{})
	if len(records) != 0 {
		t.Errorf("expected no surviving records, got %d", len(records))
	}

	// Deleting the loan cleans up everything.
	rec = app.request("DELETE", "/api/v1/loans/"+loanID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete loan failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/loans/"+loanID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after deletion, got %d", rec.Code)
	}
}

// TestLoanRecordUpdatePropagates checks that editing the loan side updates the
// backing transaction.
func TestLoanRecordUpdatePropagates(t *testing.T) {
	app := setupApp(t)

	accountID := app.createAccount(t, "Cash", "")

	rec := app.request("POST", "/api/v1/loans",
		fmt.Sprintf(`{"name":"Lent to Ana","account_id":%q,"amount":"300","type":"lend"}`, accountID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create loan failed: %d %s", rec.Code, rec.Body.String())
	}
	loanID := parseJSON(t, rec)["loan"].(map[string]interface{})["id"].(string)

	rec = app.request("POST", "/api/v1/loans/"+loanID+"/records",
		`{"amount":"50","create_transaction":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create record failed: %d %s", rec.Code, rec.Body.String())
	}
	recordID := parseJSON(t, rec)["record"].(map[string]interface{})["id"].(string)

	rec = app.request("PUT", "/api/v1/loan-records/"+recordID, `{"amount":"75"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update record failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/transactions?account_id="+accountID, "")
	txns := parseJSON(t, rec)["data"].([]interface{})
	if len(txns) != 1 {
		t.Fatalf("expected 1 shadow transaction, got %d", len(txns))
	}
	shadow := txns[0].(map[string]interface{})
	if shadow["amount"] != "75" {
		t.Errorf("shadow should follow the record, got %v", shadow["amount"])
	}
	// Lending money out and getting it back is income.
	if shadow["type"] != "income" {
		t.Errorf("lend repayment should be income, got %v", shadow["type"])
	}
}
