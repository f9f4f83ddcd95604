package model

import "context"

// Message is a plaintext e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers e-mail messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
