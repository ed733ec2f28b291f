package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Purchase struct {
	bun.BaseModel `bun:"table:purchases,alias:p"`

	ID        string    `bun:",pk" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CourseID  string    `bun:",notnull" json:"course_id"`
	UserID    string    `bun:",notnull" json:"user_id"`
}

// PaymentCustomer maps a user to the payment processor's customer record.
type PaymentCustomer struct {
	bun.BaseModel `bun:"table:payment_customers,alias:pc"`

	ID                 string    `bun:",pk" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	UserID             string    `bun:",notnull" json:"user_id"`
	ExternalCustomerID string    `bun:",notnull" json:"external_customer_id"`
}
