package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/auth"
)

var (
	apiFlag   string
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:          "orderctl",
		Short:        "CLI client for the order intake service",
		SilenceUsage: true,
	}
)

// newClient returns a resty client bound to the service base URL. token may be empty.
func newClient(baseURL, token string) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return c
}

func main() {
	defaultToken := os.Getenv("ORDERCTL_TOKEN")
	if defaultToken == "" {
		defaultToken = auth.LocalDevAPIKey
	}
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Order service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", defaultToken, "Bearer token (env ORDERCTL_TOKEN)")

	rootCmd.AddCommand(newOrderCmd(), newRegionCmd(), newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
