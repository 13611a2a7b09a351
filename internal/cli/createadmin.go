package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-api/internal/auth"
	"library-api/internal/library"
)

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a staff user interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sc := bufio.NewScanner(os.Stdin)
		fmt.Print("Username: ")
		if !sc.Scan() {
			return fmt.Errorf("no username given")
		}
		username := strings.TrimSpace(sc.Text())

		fmt.Print("Email: ")
		if !sc.Scan() {
			return fmt.Errorf("no email given")
		}
		email := strings.TrimSpace(sc.Text())

		password, err := readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
		if err != nil {
			return err
		}
		user := &library.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			IsActive:     true,
			IsStaff:      true,
		}
		if err := store.CreateUser(cmd.Context(), user); err != nil {
			return err
		}

		fmt.Printf("Created admin %q (id %d)\n", user.Username, user.ID)
		return nil
	},
}
