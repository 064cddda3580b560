package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/auth"
	"github.com/rustam/servhub/internal/domain/direct/entity"
)

type stubDirectService struct {
	DirectService
	err error
}

func (s stubDirectService) Send(_ context.Context, _, _ uuid.UUID, _ string) (*entity.Message, error) {
	return nil, s.err
}

func TestSendDirectUnknownReceiverIsNotFound(t *testing.T) {
	h := NewDirectHandler(stubDirectService{err: entity.ErrRecipientNotFound})
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	body := strings.NewReader(`{"content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/direct/"+uuid.NewString(), body)
	req = req.WithContext(auth.WithUser(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown receiver, got %d", rec.Code)
	}
}
