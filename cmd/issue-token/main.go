// Command issue-token prints a session token for local development when the
// API runs with JWT_SECRET instead of an external identity issuer.
//
//	go run ./cmd/issue-token -uid dev-admin -email admin@example.com -name Admin
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/kendall-kelly/xdecor-api/config"
	"github.com/kendall-kelly/xdecor-api/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(cfg, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
}

func run(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	uid := fs.String("uid", "", "subject of the token")
	email := fs.String("email", "", "email claim")
	name := fs.String("name", "", "display name claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.UsesIdentityProvider() {
		return errors.New("IDENTITY_ISSUER is set, tokens come from the identity provider")
	}
	if *uid == "" || *email == "" {
		return errors.New("-uid and -email are required")
	}

	token, err := middleware.IssueSessionToken(cfg.JWTSecret, middleware.Identity{
		UID:   *uid,
		Email: *email,
		Name:  *name,
	}, *ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
