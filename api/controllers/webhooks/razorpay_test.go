package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	razorpaywebhook "github.com/angelmondragon/saastools-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
)

type fakeRazorpayService struct {
	calls int
	last  razorpaywebhook.Delivery
	err   error
}

func (f *fakeRazorpayService) Handle(ctx context.Context, d razorpaywebhook.Delivery) error {
	f.calls++
	f.last = d
	return f.err
}

func TestRazorpayWebhookPassesRawDelivery(t *testing.T) {
	svc := &fakeRazorpayService{}
	handler := RazorpayWebhook(svc, nil)

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "sig")
	req.Header.Set("X-Razorpay-Event-Id", "evt_1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.calls != 1 {
		t.Fatalf("expected one call, got %d", svc.calls)
	}
	if !bytes.Equal(svc.last.Body, body) {
		t.Fatalf("body was altered: %s", svc.last.Body)
	}
	if svc.last.Signature != "sig" || svc.last.EventID != "evt_1" {
		t.Fatalf("unexpected headers %+v", svc.last)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", resp)
	}
}

func TestRazorpayWebhookMapsServiceErrors(t *testing.T) {
	svc := &fakeRazorpayService{err: pkgerrors.New(pkgerrors.CodeValidation, "Invalid signature")}
	handler := RazorpayWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRazorpayWebhookNilService(t *testing.T) {
	handler := RazorpayWebhook(nil, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
