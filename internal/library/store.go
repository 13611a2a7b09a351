package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store provides persistent records for users, books and loans over a
// SQLite connection. Borrow and Return are the only writers of
// Book.CopiesAvailable besides the admin override in UpdateBook.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
//
// _txlock=immediate makes every transaction take the write lock up front,
// so the read-check-write sequence inside Borrow/Return is serialized
// against concurrent callers instead of racing at commit time.
func Open(dbPath string) (*Store, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            is_staff BOOLEAN NOT NULL DEFAULT 0,
            membership_date DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            isbn TEXT NOT NULL UNIQUE,
            published_date DATETIME NOT NULL,
            copies_available INTEGER NOT NULL DEFAULT 1 CHECK (copies_available >= 0)
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
            borrowed_at DATETIME NOT NULL,
            returned_at DATETIME
        );`,
		// At most one open loan per (user, book) pair.
		`CREATE UNIQUE INDEX IF NOT EXISTS loans_open_pair
            ON loans(user_id, book_id) WHERE returned_at IS NULL;`,
		`CREATE INDEX IF NOT EXISTS loans_user ON loans(user_id);`,
		`CREATE INDEX IF NOT EXISTS loans_book ON loans(book_id);`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// CreateUser inserts u, assigning ID and MembershipDate.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.MembershipDate = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username, email, password_hash, is_active, is_staff, membership_date)
         VALUES(?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, u.IsActive, u.IsStaff, u.MembershipDate)
	if isUniqueViolation(err, "users.username") {
		return &ValidationError{Field: "username", Reason: "a user with this username already exists"}
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id=?`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE username=?`, username)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users in insertion order.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	if err := s.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUser writes every mutable field of u. MembershipDate is immutable
// and deliberately absent from the statement.
func (s *Store) UpdateUser(ctx context.Context, u *User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET username=?, email=?, password_hash=?, is_active=?, is_staff=? WHERE id=?`,
		u.Username, u.Email, u.PasswordHash, u.IsActive, u.IsStaff, u.ID)
	if isUniqueViolation(err, "users.username") {
		return &ValidationError{Field: "username", Reason: "a user with this username already exists"}
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user; dependent loans go with it via the
// declared ON DELETE CASCADE foreign key.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// CreateBook inserts b, assigning ID.
func (s *Store) CreateBook(ctx context.Context, b *Book) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO books(title, author, isbn, published_date, copies_available) VALUES(?,?,?,?,?)`,
		b.Title, b.Author, b.ISBN, b.PublishedDate, b.CopiesAvailable)
	if isUniqueViolation(err, "books.isbn") {
		return &ValidationError{Field: "isbn", Reason: "a book with this ISBN already exists"}
	}
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetBook(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := s.db.GetContext(ctx, &b, `SELECT * FROM books WHERE id=?`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

// BookFilter narrows ListBooks. Title and Author match case-insensitive
// substrings; ISBN matches exactly. Zero values are ignored.
type BookFilter struct {
	Title  string
	Author string
	ISBN   string
}

// escapeLike escapes the LIKE wildcards in a user-supplied term.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

// ListBooks returns books matching f in insertion order.
func (s *Store) ListBooks(ctx context.Context, f BookFilter) ([]*Book, error) {
	query := `SELECT * FROM books`
	var clauses []string
	var args []any

	if f.Title != "" {
		clauses = append(clauses, `title LIKE '%' || ? || '%' ESCAPE '\'`)
		args = append(args, escapeLike(f.Title))
	}
	if f.Author != "" {
		clauses = append(clauses, `author LIKE '%' || ? || '%' ESCAPE '\'`)
		args = append(args, escapeLike(f.Author))
	}
	if f.ISBN != "" {
		clauses = append(clauses, `isbn = ?`)
		args = append(args, f.ISBN)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"

	var books []*Book
	if err := s.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// ListAvailableBooks returns books with at least one copy not loaned out,
// in insertion order. The result is a snapshot, not a live view.
func (s *Store) ListAvailableBooks(ctx context.Context) ([]*Book, error) {
	var books []*Book
	err := s.db.SelectContext(ctx, &books,
		`SELECT * FROM books WHERE copies_available > 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list available books: %w", err)
	}
	return books, nil
}

// ISBNExists reports whether a book other than excludeID carries isbn.
func (s *Store) ISBNExists(ctx context.Context, isbn string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE isbn=? AND id<>?)`, isbn, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check isbn: %w", err)
	}
	return exists, nil
}

// UpdateBook writes every field of b, copies_available included (the
// admin override path — loan transactions never go through here).
func (s *Store) UpdateBook(ctx context.Context, b *Book) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET title=?, author=?, isbn=?, published_date=?, copies_available=? WHERE id=?`,
		b.Title, b.Author, b.ISBN, b.PublishedDate, b.CopiesAvailable, b.ID)
	if isUniqueViolation(err, "books.isbn") {
		return &ValidationError{Field: "isbn", Reason: "a book with this ISBN already exists"}
	}
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBook removes the book; dependent loans cascade.
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Loans
// ---------------------------------------------------------------------------

// Borrow creates an open loan for (userID, bookID) and decrements the
// book's available copies in one transaction. Preconditions are checked
// in a fixed order so the error a caller sees is deterministic: the book
// must exist, the caller must not already hold an open loan on it, and a
// copy must be available. The duplicate check comes before the copies
// check so a user re-borrowing the last copy they themselves hold is
// told about the existing loan, not the empty shelf.
func (s *Store) Borrow(ctx context.Context, userID, bookID int64) (*Loan, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin borrow: %w", err)
	}
	defer tx.Rollback()

	var copies int
	err = tx.QueryRowContext(ctx, `SELECT copies_available FROM books WHERE id=?`, bookID).Scan(&copies)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read book: %w", err)
	}

	var open bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM loans WHERE user_id=? AND book_id=? AND returned_at IS NULL)`,
		userID, bookID).Scan(&open)
	if err != nil {
		return nil, fmt.Errorf("check open loan: %w", err)
	}
	if open {
		return nil, ErrAlreadyBorrowed
	}

	if copies < 1 {
		return nil, ErrInsufficientCopies
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO loans(user_id, book_id, borrowed_at) VALUES(?,?,?)`, userID, bookID, now)
	if isUniqueViolation(err, "loans.user_id") {
		return nil, ErrAlreadyBorrowed
	}
	if err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}
	loanID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	// Guarded decrement backstops the availability check above.
	res, err = tx.ExecContext(ctx,
		`UPDATE books SET copies_available = copies_available - 1 WHERE id=? AND copies_available > 0`, bookID)
	if err != nil {
		return nil, fmt.Errorf("decrement copies: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrInsufficientCopies
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit borrow: %w", err)
	}
	return &Loan{ID: loanID, UserID: userID, BookID: bookID, BorrowedAt: now}, nil
}

// Return closes the open loan for (userID, bookID) and increments the
// book's available copies in one transaction.
func (s *Store) Return(ctx context.Context, userID, bookID int64) (*Loan, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin return: %w", err)
	}
	defer tx.Rollback()

	var loan Loan
	err = tx.GetContext(ctx, &loan,
		`SELECT * FROM loans WHERE user_id=? AND book_id=? AND returned_at IS NULL`, userID, bookID)
	if err == sql.ErrNoRows {
		return nil, ErrNotBorrowed
	}
	if err != nil {
		return nil, fmt.Errorf("find open loan: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE loans SET returned_at=? WHERE id=?`, now, loan.ID); err != nil {
		return nil, fmt.Errorf("close loan: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET copies_available = copies_available + 1 WHERE id=?`, bookID); err != nil {
		return nil, fmt.Errorf("increment copies: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit return: %w", err)
	}
	loan.ReturnedAt = &now
	return &loan, nil
}

// ListLoans returns loans in insertion order, narrowed to userID when it
// is non-zero.
func (s *Store) ListLoans(ctx context.Context, userID int64) ([]*Loan, error) {
	var loans []*Loan
	var err error
	if userID != 0 {
		err = s.db.SelectContext(ctx, &loans, `SELECT * FROM loans WHERE user_id=? ORDER BY id`, userID)
	} else {
		err = s.db.SelectContext(ctx, &loans, `SELECT * FROM loans ORDER BY id`)
	}
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}

// OpenLoanCount reports the number of open loans for (userID, bookID).
func (s *Store) OpenLoanCount(ctx context.Context, userID, bookID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE user_id=? AND book_id=? AND returned_at IS NULL`,
		userID, bookID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count open loans: %w", err)
	}
	return n, nil
}
