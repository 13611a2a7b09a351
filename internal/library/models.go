package library

import (
	"encoding/json"
	"time"
)

// User is a registered library member. IsStaff grants the admin role.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	IsStaff        bool      `db:"is_staff" json:"is_staff"`
	MembershipDate time.Time `db:"membership_date" json:"membership_date"`
}

// Book is a catalog item. CopiesAvailable is owned by the loan
// transactions; admin edits to it are an administrative override.
type Book struct {
	ID              int64     `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Author          string    `db:"author" json:"author"`
	ISBN            string    `db:"isbn" json:"isbn"`
	PublishedDate   time.Time `db:"published_date" json:"published_date"`
	CopiesAvailable int       `db:"copies_available" json:"copies_available"`
}

// Available reports whether at least one copy can be borrowed.
func (b *Book) Available() bool { return b.CopiesAvailable > 0 }

// MarshalJSON adds the derived "available" field.
func (b Book) MarshalJSON() ([]byte, error) {
	type alias Book
	return json.Marshal(struct {
		alias
		Available bool `json:"available"`
	}{alias(b), b.Available()})
}

// Loan is one borrowing transaction. A nil ReturnedAt means the loan is
// open; the serialized "returned" flag is derived from it, never stored.
type Loan struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	BookID     int64      `db:"book_id" json:"book_id"`
	BorrowedAt time.Time  `db:"borrowed_at" json:"borrowed_at"`
	ReturnedAt *time.Time `db:"returned_at" json:"returned_at"`
}

// Returned reports whether the loan has been closed.
func (l *Loan) Returned() bool { return l.ReturnedAt != nil }

// MarshalJSON adds the derived "returned" field.
func (l Loan) MarshalJSON() ([]byte, error) {
	type alias Loan
	return json.Marshal(struct {
		alias
		Returned bool `json:"returned"`
	}{alias(l), l.Returned()})
}
