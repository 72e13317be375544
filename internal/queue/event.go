// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// Email kinds understood by the consumer.
const (
	EmailKindWelcome       = "welcome"
	EmailKindPasswordReset = "password_reset"
)

// EmailQueueName is the durable queue carrying outbound email requests.
const EmailQueueName = "email.outbound"

// EmailRequestedEvent is published whenever the API wants an email sent.
// It carries everything the delivery worker needs so it never has to query
// the primary database.  Delivery is fire and forget: publish failures are
// logged and swallowed, and nothing retries.
type EmailRequestedEvent struct {
	Kind        string `json:"kind"`                  // welcome | password_reset
	To          string `json:"to"`                    // recipient address
	Name        string `json:"name"`                  // recipient display name
	From        string `json:"from"`                  // configured sender address
	ResetURL    string `json:"reset_url,omitempty"`   // password_reset only
	RequestedAt string `json:"requested_at"`          // RFC3339 UTC
}
