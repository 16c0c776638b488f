package models

// Reservation holds seats for one attendee at an event.
type Reservation struct {
	ID      string   `json:"_id,omitempty"`
	Name    string   `json:"name" validate:"required,min=3"`
	Email   string   `json:"email" validate:"required,min=3"`
	Seats   *FlexInt `json:"seats,omitempty" validate:"omitempty,min=1"`
	EventID string   `json:"eventId" validate:"required,min=3"`
}
