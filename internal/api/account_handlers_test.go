package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"tournament-core/internal/account"
	"tournament-core/internal/identity"
)

func newMockAccountStore(t *testing.T) (*account.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return account.NewStore(db, bcrypt.MinCost), mock
}

func TestHandleRegisterRejectsInvalidEmail(t *testing.T) {
	s, _ := newMockAccountStore(t)
	r := gin.New()
	r.POST("/register", HandleRegister(s))

	body := `{"display_name":"Alex","email":"not-an-email","password":"Hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an invalid email, got %d", rec.Code)
	}
}

func TestHandleRegisterRejectsTakenEmail(t *testing.T) {
	s, mock := newMockAccountStore(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("alex@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	r := gin.New()
	r.POST("/register", HandleRegister(s))

	body := `{"display_name":"Alex","email":"alex@example.com","password":"Hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a taken email, got %d", rec.Code)
	}
}

func TestHandleRegisterCreatesAccount(t *testing.T) {
	s, mock := newMockAccountStore(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("alex@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO accounts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	r := gin.New()
	r.POST("/register", HandleRegister(s))

	body := `{"display_name":"Alex","email":"alex@example.com","password":"Hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccountID string `json:"account_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.AccountID == "" {
		t.Fatalf("expected an account id in the response")
	}
}

func TestHandleLoginRejectsWrongPassword(t *testing.T) {
	s, mock := newMockAccountStore(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	rows := sqlmock.NewRows([]string{"id", "display_name", "email", "password_hash", "created_at"}).
		AddRow("2b1f0b0c-0000-0000-0000-000000000001", "Alex", "alex@example.com", string(hash), time.Now())
	mock.ExpectQuery("SELECT id, display_name, email, password_hash, created_at").
		WithArgs("alex@example.com").
		WillReturnRows(rows)

	id := identity.New("secret", time.Hour)
	r := gin.New()
	r.POST("/login", HandleLogin(s, id))

	body := `{"email":"alex@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for the wrong password, got %d", rec.Code)
	}
}

func TestHandleLoginMintsTokenOnSuccess(t *testing.T) {
	s, mock := newMockAccountStore(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	rows := sqlmock.NewRows([]string{"id", "display_name", "email", "password_hash", "created_at"}).
		AddRow("2b1f0b0c-0000-0000-0000-000000000001", "Alex", "alex@example.com", string(hash), time.Now())
	mock.ExpectQuery("SELECT id, display_name, email, password_hash, created_at").
		WithArgs("alex@example.com").
		WillReturnRows(rows)

	id := identity.New("secret", time.Hour)
	r := gin.New()
	r.POST("/login", HandleLogin(s, id))

	body := `{"email":"alex@example.com","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if _, err := id.Validate(resp.Token); err != nil {
		t.Fatalf("expected the minted token to validate, got %v", err)
	}
}
