package domain

import (
	"strings"
	"time"
)

// Record is the payload behind a route-bound dialog in the demo host.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecordInput is the body POSTed from the record dialog.
type RecordInput struct {
	Name  string `json:"name" validate:"required,max=80"`
	Email string `json:"email" validate:"omitempty,email"`
	Notes string `json:"notes" validate:"max=500"`
}

// Normalize trims surrounding whitespace from all fields.
func (in RecordInput) Normalize() RecordInput {
	return RecordInput{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Notes: strings.TrimSpace(in.Notes),
	}
}

// SubmitResult is the action data returned by a successful POST.
type SubmitResult struct {
	OK     bool   `json:"ok"`
	Record Record `json:"record"`
}

// DialogPath returns the route a record's dialog is bound to.
func DialogPath(id string) string {
	return "/dialog/" + id
}
