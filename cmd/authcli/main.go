package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/odyssey/backend/internal/client"
	"github.com/odyssey/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		serverURL   string
		sessionPath string
		logLevel    string
		timeout     time.Duration
		window      time.Duration
	)

	flag.StringVar(&serverURL, "server", envOr("ODYSSEY_API_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&sessionPath, "session", defaultSessionPath(), "Session file")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	flag.DurationVar(&window, "refresh-window", 0, "Refresh only when the access token expires within this window (0 = before every request)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	c, err := client.New(client.Config{
		BaseURL:       serverURL,
		Store:         client.NewFileStore(sessionPath),
		Timeout:       timeout,
		RefreshWindow: window,
		Logger:        log,
	})
	if err != nil {
		log.Fatal("Failed to create client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, args[0], args[1:]); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", apiErr.Code, apiErr.Message)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, command string, args []string) error {
	switch command {
	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		email := fs.String("email", "", "Email address")
		password := fs.String("password", "", "Password")
		confirm := fs.String("confirm-password", "", "Password confirmation (defaults to -password)")
		first := fs.String("first-name", "", "First name")
		last := fs.String("last-name", "", "Last name")
		_ = fs.Parse(args)
		if *confirm == "" {
			*confirm = *password
		}
		user, err := c.Register(ctx, client.RegisterParams{
			Email:           *email,
			Password:        *password,
			ConfirmPassword: *confirm,
			FirstName:       *first,
			LastName:        *last,
		})
		if err != nil {
			return err
		}
		return printJSON(user)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "Email address")
		password := fs.String("password", "", "Password")
		_ = fs.Parse(args)
		user, err := c.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		return printJSON(user)

	case "me":
		user, err := c.Mount(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("not signed in")
		}
		return printJSON(user)

	case "refresh":
		s, err := c.Refresh(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"refreshTokenExpiresAt": time.Unix(s.RefreshTokenTimestamp, 0).UTC(),
		})

	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil

	case "check-username":
		if len(args) == 0 {
			return fmt.Errorf("usage: authcli check-username <username>")
		}
		result, err := c.CheckUsername(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(result)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".odyssey-session.json"
	}
	return filepath.Join(dir, "odyssey", "session.json")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: authcli [flags] <command> [args]

Commands:
  register -email E -password P [-confirm-password P] [-first-name F] [-last-name L]
  login -email E -password P
  me                       Show the signed in user (clears a rejected session)
  refresh                  Rotate the stored token pair
  logout                   Revoke and forget the stored session
  check-username <name>    Check whether a username is valid and free

Flags:
`)
	flag.PrintDefaults()
}
