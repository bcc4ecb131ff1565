package email

import (
	"net/mail"
	"strings"
)

// Message is a plain text email addressed to one recipient.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate reports the first problem with m, or "" when it can be sent.
func (m Message) Validate() string {
	switch {
	case strings.TrimSpace(m.To) == "":
		return "recipient is required"
	case strings.TrimSpace(m.Subject) == "":
		return "subject is required"
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return "recipient is not a valid address"
	}
	return ""
}
