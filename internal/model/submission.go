package model

import (
	"time"
)

// Submission is the caller-supplied payload turned into a Record.
type Submission struct {
	Name    string `validate:"required"`
	Email   string `validate:"required"`
	Phone   string
	Message string
}

// Fields are the business fields a Record Store keeps for a submission.
type Fields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Record is a submission as stored by the Record Store.
type Record struct {
	ID        string
	Fields    Fields
	CreatedOn time.Time
}

func (s Submission) Fields() Fields {
	return Fields{
		Name:    s.Name,
		Email:   s.Email,
		Phone:   s.Phone,
		Message: s.Message,
	}
}

type SubmitFormRequest struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Phone   string `json:"phone" form:"phone"`
	Message string `json:"message" form:"message"`
}

func (r SubmitFormRequest) Submission() Submission {
	return Submission{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Message: r.Message,
	}
}

type GetByEmailRequest struct {
	Email string `json:"email" form:"email"`
}

type UpdateRecordRequest struct {
	ID      string `json:"id" form:"id"`
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Phone   string `json:"phone" form:"phone"`
	Message string `json:"message" form:"message"`
}

func (r UpdateRecordRequest) Fields() Fields {
	return Fields{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Message: r.Message,
	}
}
