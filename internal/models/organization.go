package models

import "strings"

// Organization is a tenant that publishes events. Name holds the slug form of the
// display name the organization was created with.
type Organization struct {
	ID                string `json:"_id,omitempty"`
	Name              string `json:"name" validate:"required,min=3"`
	Location          string `json:"location" validate:"required,min=3"`
	Logo              string `json:"logo,omitempty" validate:"omitempty,min=3"`
	ConfirmationEmail string `json:"confirmationEmail" validate:"required,min=3"`
	Locale            string `json:"locale" validate:"required,max=2"`
}

// Slugify lowercases name and joins its space separated parts with hyphens.
// "Acme Corp" becomes "acme-corp".
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}
