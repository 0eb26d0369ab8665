// Package relay delivers best-effort broadcast messages to the
// operator channel. The relay is a single shared channel, not a
// per-recipient inbox; callers treat every send as fire-and-forget.
package relay

import "context"

// Relay is the outbound operator-channel port. Send failures are
// expected to be swallowed and logged by callers; the channel is
// advisory, never load-bearing.
type Relay interface {
	// Send publishes one text message to the operator channel.
	Send(ctx context.Context, text string) error
}
