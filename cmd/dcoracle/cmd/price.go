package cmd

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var priceRefresh bool

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Resolve the DC price once and print it",
	Long: `Price builds the fallback chain from the configuration, resolves the
current DC/USD price once and prints it as JSON.

Example:
  dcoracle price --config config/config.yaml --refresh`,
	Args: cobra.NoArgs,
	RunE: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
	priceCmd.Flags().BoolVar(&priceRefresh, "refresh", false, "skip the cache fast path")
}

func runPrice(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	o, chain, err := buildOracle(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSources(chain, logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Oracle.FetchTimeout.ToDuration())
	defer cancel()

	get := o.GetPrice
	if priceRefresh {
		get = o.Refresh
	}
	price, meta, err := get(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"symbol":       meta.Name,
		"price":        decimal.NewFromFloat(price).String(),
		"source":       meta.Source,
		"timestamp_ms": meta.TimestampMs,
	})
}
