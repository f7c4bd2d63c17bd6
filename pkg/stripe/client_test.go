package stripe

import (
	"context"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/fortuneatelier/fortune-backend/pkg/config"
)

func TestNewClientValidatesKeys(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StripeConfig
		ok   bool
	}{
		{name: "test key", cfg: config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_1"}, ok: true},
		{name: "live key in test env", cfg: config.StripeConfig{APIKey: "sk_live_123", Secret: "whsec_1"}},
		{name: "missing secret", cfg: config.StripeConfig{APIKey: "sk_test_123"}},
		{name: "missing key", cfg: config.StripeConfig{Secret: "whsec_1"}},
		{name: "bad env", cfg: config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_1", Env: "staging"}},
		{name: "live", cfg: config.StripeConfig{APIKey: "rk_live_123", Secret: "whsec_1", Env: "LIVE"}, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(context.Background(), tt.cfg, nil)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestConstructEventVerifiesSignature(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_test"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.expired","data":{"object":{}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	event, err := client.ConstructEvent(payload, signed.Header)
	if err != nil {
		t.Fatalf("ConstructEvent: %v", err)
	}
	if event.ID != "evt_1" {
		t.Fatalf("unexpected event id %q", event.ID)
	}

	if _, err := client.ConstructEvent(payload, "t=1,v1=deadbeef"); err == nil {
		t.Fatalf("expected bad signature to fail")
	}
}
