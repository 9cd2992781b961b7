package models

import "time"

// Message is a contact-form submission. The inbox is append-only; there is
// no read/unread state and no reply thread.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
