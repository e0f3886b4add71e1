package payment_test

import (
	"testing"
	"time"

	"mitanda/pkg/payment"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"type":"checkout.session.completed"}`)

	t.Run("valid signature passes", func(t *testing.T) {
		header := payment.SignPayload(payload, secret, time.Now())
		assert.NoError(t, payment.VerifySignature(payload, header, secret, 5*time.Minute))
	})

	t.Run("missing header", func(t *testing.T) {
		err := payment.VerifySignature(payload, "", secret, 5*time.Minute)
		assert.ErrorIs(t, err, payment.ErrMissingSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := payment.SignPayload(payload, "whsec_other", time.Now())
		err := payment.VerifySignature(payload, header, secret, 5*time.Minute)
		assert.ErrorIs(t, err, payment.ErrBadSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := payment.SignPayload(payload, secret, time.Now())
		err := payment.VerifySignature([]byte(`{"type":"other"}`), header, secret, 5*time.Minute)
		assert.ErrorIs(t, err, payment.ErrBadSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		header := payment.SignPayload(payload, secret, time.Now().Add(-10*time.Minute))
		err := payment.VerifySignature(payload, header, secret, 5*time.Minute)
		assert.ErrorIs(t, err, payment.ErrStaleTimestamp)
	})

	t.Run("tolerance disabled accepts old deliveries", func(t *testing.T) {
		header := payment.SignPayload(payload, secret, time.Now().Add(-24*time.Hour))
		assert.NoError(t, payment.VerifySignature(payload, header, secret, 0))
	})

	t.Run("garbage header", func(t *testing.T) {
		err := payment.VerifySignature(payload, "not-a-header", secret, 5*time.Minute)
		assert.ErrorIs(t, err, payment.ErrBadSignature)
	})

	t.Run("any matching v1 candidate counts", func(t *testing.T) {
		header := payment.SignPayload(payload, secret, time.Now())
		withExtra := header + ",v1=deadbeef"
		assert.NoError(t, payment.VerifySignature(payload, withExtra, secret, 5*time.Minute))
	})
}
