package adapter

import "context"

// NotificationKind names a notification template.
type NotificationKind string

const (
	NotifyPaymentApproved   NotificationKind = "payment_approved"
	NotifyPaymentRejected   NotificationKind = "payment_rejected"
	NotifyPurchaseConfirmed NotificationKind = "purchase_confirmed"
)

// Notifier delivers best-effort user notifications. Callers log failures and
// never roll back on them.
type Notifier interface {
	Send(ctx context.Context, userID string, kind NotificationKind, data map[string]string) error
}
