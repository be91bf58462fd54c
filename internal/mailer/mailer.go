// Package mailer mirrors in-app notifications to email.
package mailer

import "context"

// Message is a plain-text email to one recipient.
type Message struct {
	To      string
	Name    string
	Subject string
	Text    string
}

// Mailer delivers a Message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
