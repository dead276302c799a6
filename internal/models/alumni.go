package models

import "time"

// DateLayout is the wire format for graduation dates.
const DateLayout = "2006-01-02"

// Alumni links a former active member to their graduation details.
// A user has at most one alumni record.
type Alumni struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	BranchID       int64     `db:"branch_id" json:"branch_id"`
	GraduationDate time.Time `db:"graduation_date" json:"graduation_date"`
	Degree         string    `db:"degree" json:"degree"`
	CurrentStatus  *string   `db:"current_status" json:"current_status,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CreateAlumniInput is the body of POST /api/alumni. BranchID defaults to
// the user's branch when omitted.
type CreateAlumniInput struct {
	UserID         int64   `json:"user_id"`
	BranchID       *int64  `json:"branch_id"`
	GraduationDate string  `json:"graduation_date"`
	Degree         string  `json:"degree"`
	CurrentStatus  *string `json:"current_status"`
}

// UpdateAlumniInput is a partial update of an alumni record.
type UpdateAlumniInput struct {
	BranchID       *int64  `json:"branch_id"`
	GraduationDate *string `json:"graduation_date"`
	Degree         *string `json:"degree"`
	CurrentStatus  *string `json:"current_status"`
}
