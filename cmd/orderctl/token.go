package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/auth"
)

func newTokenCmd() *cobra.Command {
	var email, secret string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("ORDER_SERVICE_JWT_SECRET")
			}
			return runTokenIssue(secret, email, ttl, os.Stdout)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email claim (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret (env ORDER_SERVICE_JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runTokenIssue(secret, email string, ttl time.Duration, out io.Writer) error {
	if secret == "" {
		return fmt.Errorf("--secret or ORDER_SERVICE_JWT_SECRET required")
	}
	tok, err := auth.NewJWTAuthorizer(secret).Issue(email, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok)
	return err
}
