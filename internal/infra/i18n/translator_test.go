//go:build !integration

package i18n

import (
	"strings"
	"testing"
)

func TestTranslator(t *testing.T) {
	contentBytes := []byte("greeting: hello\nwelcome_user: hello %s\nreceipt: \"paid {{.amount}} {{.currency}}{{if .notes}} ({{.notes}}){{end}}\"")
	translator, err := newTranslatorFromBytes(contentBytes)
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "hello" {
			t.Errorf("wanted 'hello', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Asha"); got != "hello Asha" {
			t.Errorf("wanted 'hello Asha', got '%s'", got)
		}
	})

	t.Run("should render templates with data", func(t *testing.T) {
		got, err := translator.Render("receipt", map[string]string{"amount": "499.00", "currency": "INR"})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if got != "paid 499.00 INR" {
			t.Errorf("unexpected render %q", got)
		}
		got, _ = translator.Render("receipt", map[string]string{"amount": "1.00", "currency": "INR", "notes": "late"})
		if got != "paid 1.00 INR (late)" {
			t.Errorf("unexpected render %q", got)
		}
	})

	t.Run("should fail for unknown template", func(t *testing.T) {
		if _, err := translator.Render("missing", nil); err == nil {
			t.Error("expected error")
		}
	})
}

func TestEmbeddedLocales(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatalf("NewTranslator failed: %v", err)
	}
	for _, kind := range []string{"payment_approved", "payment_rejected", "purchase_confirmed"} {
		for _, part := range []string{".subject", ".body"} {
			out, err := tr.Render(kind+part, map[string]string{"order_id": "ord-1", "amount": "499.00", "currency": "INR"})
			if err != nil {
				t.Fatalf("%s%s: %v", kind, part, err)
			}
			if strings.Contains(out, "<no value>") {
				t.Errorf("%s%s rendered a missing key: %q", kind, part, out)
			}
		}
	}
}
