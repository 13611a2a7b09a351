package library

import "context"

// LoanService drives the borrow/return state machine. Each (user, book)
// pair is either unloaned or has exactly one open loan; Borrow and Return
// are the only legal transitions, and both run as a single transaction in
// the store so no half-applied state survives a failure or disconnect.
type LoanService struct {
	store *Store
}

// NewLoanService wraps store.
func NewLoanService(store *Store) *LoanService {
	return &LoanService{store: store}
}

// Borrow checks out the book for the user. Errors, in precondition
// order: ErrNotFound, ErrAlreadyBorrowed, ErrInsufficientCopies.
func (l *LoanService) Borrow(ctx context.Context, userID, bookID int64) (*Loan, error) {
	return l.store.Borrow(ctx, userID, bookID)
}

// Return closes the user's open loan on the book, or ErrNotBorrowed if
// there is none.
func (l *LoanService) Return(ctx context.Context, userID, bookID int64) (*Loan, error) {
	return l.store.Return(ctx, userID, bookID)
}

// ListFor returns the loans the actor may see: all of them for staff,
// only their own otherwise.
func (l *LoanService) ListFor(ctx context.Context, actor *User) ([]*Loan, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if actor.IsStaff {
		return l.store.ListLoans(ctx, 0)
	}
	return l.store.ListLoans(ctx, actor.ID)
}
