// Package mail defines the outbound e-mail collaborator used by the account
// recovery flow, and its SMTP implementation.
package mail

import "context"

// Sender delivers a single plain-text message. Implementations must bound
// the delivery time; the recovery flow treats failures as non-fatal.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
