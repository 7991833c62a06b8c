package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

type orderCreateOpts struct {
	State      string
	Kind       string
	Plaintiffs []string
	Defendants []string
	Notify     bool
	Email      string
	Fields     map[string]string
}

func newOrderCmd() *cobra.Command {
	orderCmd := &cobra.Command{Use: "order", Short: "Order operations"}

	var opts orderCreateOpts
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a legal notice order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderCreate(newClient(apiFlag, tokenFlag), opts, os.Stdout)
		},
	}
	createCmd.Flags().StringVarP(&opts.State, "state", "s", "", "Two-letter region code (required)")
	createCmd.Flags().StringVarP(&opts.Kind, "kind", "k", "", "Region kind: jurisdiction or court")
	createCmd.Flags().StringSliceVarP(&opts.Plaintiffs, "plaintiff", "p", nil, "Plaintiff email (repeatable)")
	createCmd.Flags().StringSliceVarP(&opts.Defendants, "defendant", "d", nil, "Defendant email (repeatable)")
	createCmd.Flags().BoolVarP(&opts.Notify, "notify", "n", false, "Notify defendants that already have an account")
	createCmd.Flags().StringVarP(&opts.Email, "email", "e", "", "Requester email (defaults to the token's email)")
	createCmd.Flags().StringToStringVarP(&opts.Fields, "field", "f", nil, "Extra order field key=value (repeatable)")
	_ = createCmd.MarkFlagRequired("state")
	orderCmd.AddCommand(createCmd)

	var limit, page int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List orders one page at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderList(newClient(apiFlag, ""), limit, page, os.Stdout)
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Page size (server default when 0)")
	listCmd.Flags().IntVarP(&page, "page", "g", 0, "Page number, 1-based (server default when 0)")
	orderCmd.AddCommand(listCmd)

	return orderCmd
}

func runOrderCreate(c *resty.Client, opts orderCreateOpts, out io.Writer) error {
	if opts.State == "" {
		return fmt.Errorf("--state required")
	}
	if len(opts.Plaintiffs)+len(opts.Defendants) == 0 {
		return fmt.Errorf("at least one --plaintiff or --defendant required")
	}
	payload := map[string]any{
		"state":      opts.State,
		"plaintiffs": nonNil(opts.Plaintiffs),
		"defendants": nonNil(opts.Defendants),
		"notify":     opts.Notify,
	}
	if opts.Kind != "" {
		payload["kind"] = opts.Kind
	}
	if opts.Email != "" {
		payload["email"] = opts.Email
	}
	for k, v := range opts.Fields {
		if _, taken := payload[k]; taken {
			return fmt.Errorf("--field %s collides with a named flag", k)
		}
		payload[k] = v
	}

	resp, err := c.R().SetBody(payload).Post("/order")
	if err != nil {
		return err
	}
	return emit(resp, out)
}

func runOrderList(c *resty.Client, limit, page int, out io.Writer) error {
	req := c.R()
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if page > 0 {
		req.SetQueryParam("page", strconv.Itoa(page))
	}
	resp, err := req.Get("/order")
	if err != nil {
		return err
	}
	return emit(resp, out)
}

// emit prints the response body, turning non-2xx statuses into errors.
func emit(resp *resty.Response, out io.Writer) error {
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	_, err := fmt.Fprintln(out, resp.String())
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
