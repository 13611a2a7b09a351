package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addUser(t *testing.T, s *Store, username string) *User {
	t.Helper()
	u := &User{Username: username, Email: username + "@example.com", PasswordHash: "x", IsActive: true}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func addBook(t *testing.T, s *Store, title, isbn string, copies int) *Book {
	t.Helper()
	b := &Book{Title: title, Author: "Author", ISBN: isbn, PublishedDate: time.Now().UTC(), CopiesAvailable: copies}
	if err := s.CreateBook(context.Background(), b); err != nil {
		t.Fatalf("create book %s: %v", title, err)
	}
	return b
}

func TestUserCRUD(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	u := addUser(t, s, "alice")
	if u.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if u.MembershipDate.IsZero() {
		t.Fatalf("expected membership date set at creation")
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Username != "alice" || !got.IsActive || got.IsStaff {
		t.Fatalf("unexpected user %+v", got)
	}

	byName, err := s.GetUserByUsername(ctx, "alice")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("get by username: %v", err)
	}

	got.Email = "new@example.com"
	if err := s.UpdateUser(ctx, got); err != nil {
		t.Fatalf("update user: %v", err)
	}

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := s.GetUser(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	s := tempStore(t)
	addUser(t, s, "alice")

	u := &User{Username: "alice", PasswordHash: "x", IsActive: true}
	err := s.CreateUser(context.Background(), u)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "username" {
		t.Fatalf("want username validation error, got %v", err)
	}
}

func TestBookCRUDAndListing(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	b1 := addBook(t, s, "The Go Programming Language", "9780134190440", 2)
	b2 := addBook(t, s, "Learning Go", "9781492077213", 0)

	all, err := s.ListBooks(ctx, BookFilter{})
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if len(all) != 2 || all[0].ID != b1.ID || all[1].ID != b2.ID {
		t.Fatalf("want insertion order listing, got %v", all)
	}

	avail, err := s.ListAvailableBooks(ctx)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(avail) != 1 || avail[0].ID != b1.ID {
		t.Fatalf("want only book with copies, got %v", avail)
	}

	b2.CopiesAvailable = 5
	if err := s.UpdateBook(ctx, b2); err != nil {
		t.Fatalf("update book: %v", err)
	}

	if err := s.DeleteBook(ctx, b1.ID); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	if _, err := s.GetBook(ctx, b1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSearchBooks(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	addBook(t, s, "The Go Programming Language", "9780134190440", 1)
	addBook(t, s, "Learning Go", "9781492077213", 1)
	addBook(t, s, "The Rust Programming Language", "9781593278281", 1)

	// Case-insensitive substring on title.
	res, err := s.ListBooks(ctx, BookFilter{Title: "go program"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 || res[0].ISBN != "9780134190440" {
		t.Fatalf("want one match, got %v", res)
	}

	// Exact match on ISBN.
	res, err = s.ListBooks(ctx, BookFilter{ISBN: "9781492077213"})
	if err != nil {
		t.Fatalf("search isbn: %v", err)
	}
	if len(res) != 1 || res[0].Title != "Learning Go" {
		t.Fatalf("want Learning Go, got %v", res)
	}

	// LIKE wildcards in the term must not act as wildcards.
	res, err = s.ListBooks(ctx, BookFilter{Title: "%"})
	if err != nil {
		t.Fatalf("search wildcard: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("wildcard should match nothing, got %v", res)
	}
}

func TestBorrowReturnRoundTrip(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	user := addUser(t, s, "alice")
	book := addBook(t, s, "Book", "1234567890123", 2)

	loan, err := s.Borrow(ctx, user.ID, book.ID)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if loan.Returned() {
		t.Fatalf("new loan must be open")
	}

	after, _ := s.GetBook(ctx, book.ID)
	if after.CopiesAvailable != 1 {
		t.Fatalf("want 1 copy after borrow, got %d", after.CopiesAvailable)
	}

	closed, err := s.Return(ctx, user.ID, book.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if !closed.Returned() || closed.ID != loan.ID {
		t.Fatalf("want the same loan closed, got %+v", closed)
	}

	after, _ = s.GetBook(ctx, book.ID)
	if after.CopiesAvailable != 2 {
		t.Fatalf("round trip must restore copies, got %d", after.CopiesAvailable)
	}

	n, _ := s.OpenLoanCount(ctx, user.ID, book.ID)
	if n != 0 {
		t.Fatalf("want zero open loans, got %d", n)
	}
}

func TestCascadeDeleteRemovesLoans(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	user := addUser(t, s, "alice")
	book := addBook(t, s, "Book", "1234567890123", 1)

	if _, err := s.Borrow(ctx, user.ID, book.ID); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	if err := s.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	loans, err := s.ListLoans(ctx, 0)
	if err != nil {
		t.Fatalf("list loans: %v", err)
	}
	if len(loans) != 0 {
		t.Fatalf("deleting the user must cascade to its loans, got %v", loans)
	}
}

func TestListLoansScoping(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	alice := addUser(t, s, "alice")
	bob := addUser(t, s, "bob")
	b1 := addBook(t, s, "One", "1111111111111", 1)
	b2 := addBook(t, s, "Two", "2222222222222", 1)

	if _, err := s.Borrow(ctx, alice.ID, b1.ID); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if _, err := s.Borrow(ctx, bob.ID, b2.ID); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	all, _ := s.ListLoans(ctx, 0)
	if len(all) != 2 {
		t.Fatalf("want 2 loans, got %d", len(all))
	}
	mine, _ := s.ListLoans(ctx, alice.ID)
	if len(mine) != 1 || mine[0].UserID != alice.ID {
		t.Fatalf("want only alice's loan, got %v", mine)
	}
}
