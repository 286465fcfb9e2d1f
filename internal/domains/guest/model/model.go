package model

import "innkeeper/shared/model"

const (
	TableName  = "guests"
	EntityName = "guest"

	FieldID        = "id"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldNotes     = "notes"
)

type Guest struct {
	ID        string `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Email     string `db:"email"`
	Phone     string `db:"phone"`
	Notes     string `db:"notes"`
	model.Metadata
}
