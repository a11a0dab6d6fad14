// Command adduser creates an account without going through the HTTP API.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"recipes/config"
	"recipes/internal/infra/auth"
	logs "recipes/internal/infra/log"
	"recipes/internal/infra/persistence/rdb"
	"recipes/internal/usecase"
	"recipes/internal/usecase/impl"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	imageURL := fs.String("image-url", "", "Avatar URL (optional)")
	bio := fs.String("bio", "", "Biography (optional)")
	dbPath := fs.String("db", "", "SQLite database file (overrides database.path)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-image-url <url>] [-bio <text>] [-db <path>]")
		fs.PrintDefaults()

		return errors.New("missing required flag: user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return errors.Wrap(err, "failed to read password")
		}
		fmt.Fprintln(stdout)
	}

	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger, err := logs.New(logs.Params{Config: cfg})
	if err != nil {
		return err
	}

	users, closeDB, err := newUserUsecase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := users.Signup(ctx, &usecase.SignupInput{
		Username: *username,
		Password: password,
		ImageURL: optional(*imageURL),
		Bio:      optional(*bio),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)

	return nil
}

// newUserUsecase wires the same signup path the HTTP API uses.
func newUserUsecase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (usecase.UserUsecase, func(), error) {
	db, err := rdb.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get sql.DB")
	}
	closeDB := func() { _ = sqlDB.Close() }

	if cfg.Database.AutoMigrate {
		if err := rdb.Migrate(db.WithContext(ctx), cfg); err != nil {
			closeDB()

			return nil, nil, err
		}
	}

	users := impl.NewUserService(impl.UserServiceParams{
		TxManager: rdb.NewTransactionManager(db),
		UserRepo:  rdb.NewUserRepository(db),
		Hasher:    auth.NewBcryptHasher(cfg),
		Logger:    logger,
	})

	return users, closeDB, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", errors.WithStack(err)
		}

		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", errors.WithStack(err)
	}

	return "", io.EOF
}
