package model

import "time"

// Entitlement is a durable grant of access to one product for one user.
// It is created once and never mutated.
type Entitlement struct {
	UserID    string
	Product   ProductRef
	PaymentID string // originating payment attempt, for audit
	GrantedAt time.Time
}
