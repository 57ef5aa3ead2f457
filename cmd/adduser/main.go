package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/config"
	"finance-tracker/internal/storage"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run creates one account. The database defaults to the server's
// DB_DRIVER/DB_PATH/DATABASE_URL settings so both tools open the same store.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	emailFlag := fs.String("user", "", "Email address of the new user")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	driver := fs.String("driver", cfg.DBDriver, "Database driver: sqlite or pgx")
	dsn := fs.String("db", cfg.DSN(), "SQLite file or PostgreSQL URL")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*emailFlag) == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <email> [-password <password>] [-driver sqlite|pgx] [-db <dsn>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}
	email, err := auth.NormalizeEmail(*emailFlag)
	if err != nil {
		return fmt.Errorf("%w: %q", err, *emailFlag)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	db, err := storage.Open(*driver, *dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := db.CreateUser(email, hash)
	if errors.Is(err, storage.ErrDuplicate) {
		return fmt.Errorf("user %s already exists", email)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	count, err := db.UserCount()
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	fmt.Fprintf(stdout, "User %s created with ID %d (%d accounts in %s database)\n", user.Email, user.ID, count, db.Driver())
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
