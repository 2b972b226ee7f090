package models

import (
	"time"
)

type SharedLink struct {
	ID         string    `json:"link_id"`
	OwnerEmail string    `json:"owner_email"`
	CreatedAt  time.Time `json:"created_at"`
}

type IssueLinkInput struct {
	OwnerEmail string `json:"owner_email,omitempty"`
}

type IssuedLink struct {
	LinkID    string    `json:"link_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
