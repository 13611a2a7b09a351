package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"library-api/internal/library"
)

// starterCatalog is a small set of classics for demos and local testing.
var starterCatalog = []library.Book{
	{Title: "1984", Author: "George Orwell", ISBN: "9780451524935", CopiesAvailable: 3},
	{Title: "Animal Farm", Author: "George Orwell", ISBN: "9780451526342", CopiesAvailable: 2},
	{Title: "The Art of War", Author: "Sun Tzu", ISBN: "9781590302255", CopiesAvailable: 1},
	{Title: "Romeo and Juliet", Author: "William Shakespeare", ISBN: "9780743477116", CopiesAvailable: 2},
	{Title: "The Three Musketeers", Author: "Alexandre Dumas", ISBN: "9780140367470", CopiesAvailable: 1},
	{Title: "The Fellowship of the Ring", Author: "J.R.R. Tolkien", ISBN: "9780547928210", CopiesAvailable: 2},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a starter catalog into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		catalog := library.NewCatalogService(store)
		added := 0
		for _, book := range starterCatalog {
			b := book
			b.PublishedDate = time.Now().UTC().Truncate(24 * time.Hour)
			err := catalog.Create(cmd.Context(), &b)
			var ve *library.ValidationError
			if errors.As(err, &ve) && ve.Field == "isbn" {
				// Already seeded.
				continue
			}
			if err != nil {
				return fmt.Errorf("seed %q: %w", b.Title, err)
			}
			added++
		}

		fmt.Printf("Seeded %d books\n", added)
		return nil
	},
}
