package events

import (
	"context"
	"time"
)

// Catalog event types.
const (
	ProductChanged   = "product.changed"
	PromotionChanged = "promotion.changed"
	CategoryChanged  = "category.changed"
	ImageChanged     = "image.changed"
)

// Event announces that a catalog resource was written.
type Event struct {
	Type       string    `json:"type"`
	ResourceID string    `json:"resource_id"`
	Action     string    `json:"action"`
	At         time.Time `json:"at"`
}

// Publisher delivers catalog events to other instances.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
