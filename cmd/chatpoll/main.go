// Command chatpoll follows a user's conversations from the terminal by
// polling the chat API, and can send one message on startup.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"

	"market-chat/internal/apperr"
	"market-chat/internal/identity"
	"market-chat/internal/logging"
	"market-chat/internal/syncclient"
)

const (
	exitOK = iota
	exitError
	exitUsage
	exitUnauthenticated
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err))
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("chatpoll", flag.ContinueOnError)
	addr := fs.String("addr", envOr("CHAT_ADDR", "http://localhost:8083"), "chat API base URL")
	token := fs.String("token", os.Getenv("CHAT_TOKEN"), "bearer token")
	asUser := fs.Int64("as", 0, "issue a development token for this user id (needs JWT_SECRET)")
	peer := fs.Int64("peer", 0, "open the thread with this user id")
	send := fs.String("send", "", "send this text to -peer before polling")
	image := fs.String("image", "", "image URL to attach to -send")
	interval := fs.Duration("interval", syncclient.DefaultInterval, "poll interval")
	once := fs.Bool("once", false, "poll once and exit")
	if err := fs.Parse(args); err != nil {
		return exitUsage, err
	}

	if *token == "" && *asUser > 0 {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			return exitUsage, errors.New("-as needs JWT_SECRET")
		}
		issued, err := identity.NewProvider(secret).IssueToken(*asUser, "", 24*time.Hour)
		if err != nil {
			return exitError, fmt.Errorf("issue token: %w", err)
		}
		*token = issued
	}
	if *token == "" {
		return exitUsage, errors.New("set CHAT_TOKEN, -token or -as")
	}
	userID, err := identity.UnverifiedUserID(*token)
	if err != nil {
		return exitUsage, err
	}

	log := logging.NewTo(os.Stderr, envOr("APP_ENV", "development"), envOr("LOG_LEVEL", "warn"))
	source := syncclient.NewHTTPSource(*addr, *token, &http.Client{Timeout: 10 * time.Second})

	client := syncclient.New(userID, source, source,
		syncclient.WithInterval(*interval),
		syncclient.WithLogger(log),
		syncclient.OnChange(func(snap syncclient.Snapshot) {
			if snap.State == syncclient.Loading || snap.State == syncclient.Closed {
				return
			}
			if !*once {
				fmt.Print("\033[H\033[2J")
			}
			render(os.Stdout, userID, snap)
		}),
	)
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *peer > 0 {
		client.Select(*peer)
	}
	if *send != "" || *image != "" {
		if *peer <= 0 {
			return exitUsage, errors.New("-send needs -peer")
		}
		client.SetDraft(*send, *image)
		if _, err := client.Send(ctx); err != nil {
			return exitCode(err), fmt.Errorf("send: %w", err)
		}
	}

	if *once {
		if err := client.Poll(ctx); err != nil {
			return exitCode(err), fmt.Errorf("poll: %w", err)
		}
		return exitOK, nil
	}

	if err := client.Run(ctx); err != nil {
		return exitCode(err), err
	}
	return exitOK, nil
}

func exitCode(err error) int {
	if errors.Is(err, apperr.ErrUnauthenticated) {
		return exitUnauthenticated
	}
	return exitError
}

func envOr(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
