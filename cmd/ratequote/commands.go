package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/shiprate/internal/obs"
	"github.com/noah-isme/shiprate/internal/shipping"
)

type rootOptions struct {
	slabsFile string
	format    string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "ratequote",
		Short: "Quote domestic shipping rates from the rate card",
		Long: `ratequote resolves chargeable weights against the domestic rate card
without calling the carrier API.

Examples:
  ratequote resolve --weight 18 --origin 10110 --destination 50230
  ratequote resolve --weight 2.4 --slabs slabs.json --format json
  ratequote charge-weight --file parcels.json`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.slabsFile, "slabs", "", "rate slab table as JSON (default is the built-in table)")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "text", "output format (text, json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log lookup warnings to stderr")

	root.AddCommand(newResolveCmd(opts), newChargeWeightCmd(opts))
	return root
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var (
		weight      float64
		origin      string
		destination string
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Find the rate slab and price for a chargeable weight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if weight <= 0 {
				return errors.New("--weight must be positive")
			}
			slabs, err := loadSlabs(opts.slabsFile)
			if err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr())
			regionA := shipping.IsRegionA(origin, destination)
			res, err := shipping.Resolver{Logger: &logger}.Resolve(context.Background(), weight, slabs, regionA)
			if err != nil {
				return err
			}
			region := "upcountry"
			if regionA {
				region = "bkk"
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"weight_kg": weight,
					"region":    region,
					"slab":      res.Slab,
					"price":     res.Price,
					"match":     res.Match,
				})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "weight:  %.3f kg\nregion:  %s\nslab:    %.3f - %.3f kg (%s)\nprice:   %.2f\n",
				weight, region, res.Slab.MinWeightKg, res.Slab.MaxWeightKg, res.Match, res.Price)
			return err
		},
	}
	cmd.Flags().Float64VarP(&weight, "weight", "w", 0, "chargeable weight in kg")
	cmd.Flags().StringVar(&origin, "origin", "", "origin postal code")
	cmd.Flags().StringVar(&destination, "destination", "", "destination postal code")
	_ = cmd.MarkFlagRequired("weight")
	return cmd
}

func newChargeWeightCmd(opts *rootOptions) *cobra.Command {
	var (
		file  string
		maxKg float64
	)
	cmd := &cobra.Command{
		Use:   "charge-weight",
		Short: "Compute actual, volumetric and chargeable weight for parcels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			inputs, err := decodeParcels(data)
			if err != nil {
				return err
			}
			_, parcels := shipping.BuildShipment(shipping.FormData{Parcels: inputs})
			logger := opts.logger(cmd.ErrOrStderr())
			for i, p := range parcels {
				if !p.WeightUnit.Valid() || !p.DimensionUnit.Valid() {
					logger.Warn().Int("parcel", i+1).
						Str("weight_unit", string(p.WeightUnit)).
						Str("dimension_unit", string(p.DimensionUnit)).
						Msg("unknown_unit_treated_as_metric")
				}
			}
			summary := shipping.SummariseChargeWeight(parcels, maxKg)
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			out := cmd.OutOrStdout()
			for i, p := range summary.Parcels {
				if _, err := fmt.Fprintf(out, "parcel %d: actual %.3f kg, volumetric %.3f kg, charge %.3f kg\n",
					i+1, p.ActualKg, p.VolumetricKg, p.ChargeKg); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(out, "total:    %.3f kg (within rate card: %t)\n", summary.TotalKg, summary.WithinRateCard)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "parcels JSON file, - for stdin")
	cmd.Flags().Float64Var(&maxKg, "max-weight", shipping.DefaultSyntheticMaxWeightKg, "heaviest shipment the rate card covers, in kg")
	return cmd
}

func (o *rootOptions) logger(w io.Writer) zerolog.Logger {
	if !o.verbose {
		return zerolog.Nop()
	}
	return obs.NewLoggerTo(w, "console", "debug")
}

func loadSlabs(path string) ([]shipping.RateSlab, error) {
	if path == "" {
		return shipping.DefaultSlabs(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read slabs: %w", err)
	}
	var slabs []shipping.RateSlab
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Data []shipping.RateSlab `json:"data"`
		}
		err = json.Unmarshal(trimmed, &wrapped)
		slabs = wrapped.Data
	} else {
		err = json.Unmarshal(trimmed, &slabs)
	}
	if err != nil {
		return nil, fmt.Errorf("decode slabs: %w", err)
	}
	if len(slabs) == 0 {
		return nil, shipping.ErrNoRateSlabs
	}
	if err := shipping.ValidateSlabs(slabs); err != nil {
		return nil, err
	}
	return slabs, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func decodeParcels(data []byte) ([]shipping.ParcelInput, error) {
	trimmed := bytes.TrimSpace(data)
	var parcels []shipping.ParcelInput
	var err error
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Parcels []shipping.ParcelInput `json:"parcels"`
		}
		err = json.Unmarshal(trimmed, &wrapped)
		parcels = wrapped.Parcels
	} else {
		err = json.Unmarshal(trimmed, &parcels)
	}
	if err != nil {
		return nil, fmt.Errorf("decode parcels: %w", err)
	}
	return parcels, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
