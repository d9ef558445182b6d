package sessions

import (
	"context"
	"time"
)

// Turn roles recorded in a conversation history.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// ProductRef is a lightweight pointer to a product placed in the session cart.
type ProductRef struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Session is the server-side conversational context keyed by an opaque id.
type Session struct {
	ID        string       `json:"id"`
	History   []Turn       `json:"history"`
	Cart      []ProductRef `json:"cart"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Repository stores conversation state. The chat pipeline treats a missing
// session as "start fresh"; AppendHistory on a missing id is an error so
// callers must create or validate first.
type Repository interface {
	Create(ctx context.Context) (string, error)
	Get(ctx context.Context, id string) (*Session, error)
	AppendHistory(ctx context.Context, id, role, text string) error
	AppendCart(ctx context.Context, id string, ref ProductRef) error
}
