package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/saastools-backend/api/responses"
	razorpaywebhook "github.com/angelmondragon/saastools-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
)

const (
	razorpaySignatureHeader = "X-Razorpay-Signature"
	razorpayEventIDHeader   = "X-Razorpay-Event-Id"
	maxWebhookBody          = 1 << 20
)

type RazorpayWebhookService interface {
	Handle(ctx context.Context, d razorpaywebhook.Delivery) error
}

// RazorpayWebhook hands the raw body to the webhook service. The body must
// not be decoded before the signature check.
func RazorpayWebhook(svc RazorpayWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		err = svc.Handle(ctx, razorpaywebhook.Delivery{
			Body:      payload,
			Signature: r.Header.Get(razorpaySignatureHeader),
			EventID:   r.Header.Get(razorpayEventIDHeader),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
