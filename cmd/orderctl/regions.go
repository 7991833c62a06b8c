package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api/validate"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/config"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/factory"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/services"
)

// Regions have no HTTP surface; these commands write the configured store directly.
func newRegionCmd() *cobra.Command {
	regionCmd := &cobra.Command{Use: "region", Short: "Jurisdiction and court administration (direct store access)"}

	var r model.Region
	var kind string
	putCmd := &cobra.Command{
		Use:   "put CODE",
		Short: "Create or replace a jurisdiction or court",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r.Code = args[0]
			r.Kind = model.RegionKind(kind)
			return withRegions(cmd.Context(), func(ctx context.Context, svc *services.RegionService) error {
				return runRegionPut(ctx, svc, r, os.Stdout)
			})
		},
	}
	putCmd.Flags().StringVarP(&kind, "kind", "k", string(model.RegionJurisdiction), "jurisdiction or court")
	putCmd.Flags().BoolVar(&r.IsActive, "active", true, "Accept orders for this region")
	putCmd.Flags().IntVar(&r.NopPeriod, "nop", 0, "Notice period in days")
	putCmd.Flags().IntVar(&r.OpPeriod, "op", 0, "Objection period in days")
	regionCmd.AddCommand(putCmd)

	var getKind string
	getCmd := &cobra.Command{
		Use:   "get CODE",
		Short: "Show one jurisdiction or court",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegions(cmd.Context(), func(ctx context.Context, svc *services.RegionService) error {
				return runRegionGet(ctx, svc, model.RegionKind(getKind), args[0], os.Stdout)
			})
		},
	}
	getCmd.Flags().StringVarP(&getKind, "kind", "k", string(model.RegionJurisdiction), "jurisdiction or court")
	regionCmd.AddCommand(getCmd)

	var listKind string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List regions of one kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegions(cmd.Context(), func(ctx context.Context, svc *services.RegionService) error {
				regions, err := svc.List(ctx, model.RegionKind(listKind))
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, regions)
			})
		},
	}
	listCmd.Flags().StringVarP(&listKind, "kind", "k", string(model.RegionJurisdiction), "jurisdiction or court")
	regionCmd.AddCommand(listCmd)

	return regionCmd
}

func withRegions(ctx context.Context, fn func(context.Context, *services.RegionService) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.New()
	if err != nil {
		return err
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	st, closeStore, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return fn(ctx, services.NewRegionService(st))
}

func runRegionPut(ctx context.Context, svc *services.RegionService, r model.Region, out io.Writer) error {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	if !validate.KnownRegionCode(r.Code) {
		return fmt.Errorf("%q is not a known US state code", r.Code)
	}
	saved, err := svc.Put(ctx, &r)
	if err != nil {
		return err
	}
	return printJSON(out, saved)
}

func runRegionGet(ctx context.Context, svc *services.RegionService, kind model.RegionKind, code string, out io.Writer) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	r, err := svc.Get(ctx, kind, code)
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%s %s not found", kind, code)
	}
	if err != nil {
		return err
	}
	return printJSON(out, r)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
