package model

import "time"

// SubmissionItem is the public shape of a stored record in list and submit responses.
type SubmissionItem struct {
	ID        string    `json:"id"`
	FieldData Fields    `json:"fieldData"`
	CreatedOn time.Time `json:"createdOn"`
}

// ContactDetails is the flattened record returned by a lookup by email.
type ContactDetails struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Response is the envelope every API endpoint answers with.
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Item    *SubmissionItem `json:"item,omitempty"`
	Data    any             `json:"data,omitempty"`
	Total   *int            `json:"total,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func NewSubmissionItem(r Record) SubmissionItem {
	return SubmissionItem{
		ID:        r.ID,
		FieldData: r.Fields,
		CreatedOn: r.CreatedOn,
	}
}

func NewContactDetails(r Record) ContactDetails {
	return ContactDetails{
		ID:      r.ID,
		Name:    r.Fields.Name,
		Email:   r.Fields.Email,
		Phone:   r.Fields.Phone,
		Message: r.Fields.Message,
	}
}
