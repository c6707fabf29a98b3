// Package model defines the domain types used across the application.
package model

// Grep is a user's subscription to a regular expression. A grep is
// identified by its pattern text together with its owner.
type Grep struct {
	Pattern string
	UserID  int64
}

// Message is an inbound chat message that may trigger notifications.
type Message struct {
	ID       int
	Text     string
	AuthorID int64
	ChatID   int64
	IsBot    bool
}
