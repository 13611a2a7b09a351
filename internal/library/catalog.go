package library

import (
	"context"
	"strings"
)

// CatalogService is a thin façade over the Store for book reads/writes,
// keeping HTTP handler code simple. Role checks belong to the caller
// (via Decide); this service only enforces field-level validation.
type CatalogService struct {
	store *Store
}

// NewCatalogService wraps store.
func NewCatalogService(store *Store) *CatalogService {
	return &CatalogService{store: store}
}

func (c *CatalogService) Get(ctx context.Context, id int64) (*Book, error) {
	return c.store.GetBook(ctx, id)
}

// List returns books matching f; an empty filter returns everything.
func (c *CatalogService) List(ctx context.Context, f BookFilter) ([]*Book, error) {
	return c.store.ListBooks(ctx, f)
}

// ListAvailable returns books with copies_available > 0.
func (c *CatalogService) ListAvailable(ctx context.Context) ([]*Book, error) {
	return c.store.ListAvailableBooks(ctx)
}

// Create validates and inserts a new book.
func (c *CatalogService) Create(ctx context.Context, b *Book) error {
	if err := c.validate(ctx, b, 0); err != nil {
		return err
	}
	return c.store.CreateBook(ctx, b)
}

// Update validates and writes b. The ISBN uniqueness check excludes the
// record being updated so a no-op save of the same ISBN passes.
func (c *CatalogService) Update(ctx context.Context, b *Book) error {
	if err := c.validate(ctx, b, b.ID); err != nil {
		return err
	}
	return c.store.UpdateBook(ctx, b)
}

// Delete removes a book; its loans cascade away with it.
func (c *CatalogService) Delete(ctx context.Context, id int64) error {
	return c.store.DeleteBook(ctx, id)
}

const isbnLength = 13

func (c *CatalogService) validate(ctx context.Context, b *Book, excludeID int64) error {
	if strings.TrimSpace(b.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(b.Author) == "" {
		return &ValidationError{Field: "author", Reason: "must not be empty"}
	}
	if len(b.ISBN) != isbnLength {
		return &ValidationError{Field: "isbn", Reason: "must be exactly 13 characters"}
	}
	if b.CopiesAvailable < 0 {
		return &ValidationError{Field: "copies_available", Reason: "must not be negative"}
	}
	taken, err := c.store.ISBNExists(ctx, b.ISBN, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return &ValidationError{Field: "isbn", Reason: "a book with this ISBN already exists"}
	}
	return nil
}
