// Package queue defines message payloads exchanged over the message broker
// and the consumer loop that drains them.
package queue

import "time"

// MailRequestedEvent is published when the API wants an email delivered and
// mail transport is set to "queue".  It carries the fully rendered message
// so the mailer needs no access to the primary database.
type MailRequestedEvent struct {
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	HTML        string    `json:"html"`
	RequestedAt time.Time `json:"requested_at"`
}
