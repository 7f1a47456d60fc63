package domain

import "time"

// Product is a catalogue entry owned by the account that created it.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Price       *float64  `json:"price,omitempty" bson:"price,omitempty"`
	IsAvailable bool      `json:"isAvailable" bson:"is_available"`
	CreatorID   string    `json:"creatorUserId" bson:"creator_id"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// OwnerID satisfies Owned.
func (p *Product) OwnerID() string { return p.CreatorID }

// Owned is any resource that records the identity that created it.
type Owned interface {
	OwnerID() string
}

// Operation is an action a caller attempts on an owned resource.
type Operation string

const (
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Mutating reports whether op changes the resource.
func (op Operation) Mutating() bool {
	return op == OpUpdate || op == OpDelete
}
