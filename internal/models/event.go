package models

import "github.com/shopspring/decimal"

// Image is an uploaded event picture, as returned by the upload endpoint.
type Image struct {
	Path string `json:"path,omitempty"`
}

// Price is one ticket tier of an event.
type Price struct {
	Name     string           `json:"name,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Currency string           `json:"currency,omitempty"`
}

// Event is a bookable happening owned by an organization.
type Event struct {
	ID               string     `json:"_id,omitempty"`
	Name             string     `json:"name" validate:"required,min=3"`
	OrgID            string     `json:"orgId" validate:"required,min=3"`
	Description      string     `json:"description" validate:"required,min=3"`
	Images           []Image    `json:"images,omitempty" validate:"omitempty,dive"`
	Date             *Timestamp `json:"date" validate:"required"`
	Seats            *FlexInt   `json:"seats,omitempty" validate:"omitempty,min=3"`
	Published        *bool      `json:"published,omitempty"`
	Reminders        *bool      `json:"reminders,omitempty"`
	ReservationsOpen *bool      `json:"reservationsOpen,omitempty"`
	Prices           []Price    `json:"prices,omitempty" validate:"omitempty,dive"`
	Location         string     `json:"location" validate:"required,min=3"`
	TimeCreated      *Timestamp `json:"timecreated" validate:"required"`
	Invited          *FlexInt   `json:"invited,omitempty"`
	Waiting          *FlexInt   `json:"waiting,omitempty"`
}

// EventDateField is the document field list ranges and the public org page filter on.
const EventDateField = "date"
