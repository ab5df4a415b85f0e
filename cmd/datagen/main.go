package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/vanshika/marketplace/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		buyers       = flag.Int("buyers", cfg.NumBuyers, "number of buyers to generate")
		vendors      = flag.Int("vendors", cfg.NumVendors, "number of vendors to generate")
		products     = flag.Int("products", cfg.NumProducts, "number of products to generate")
		orders       = flag.Int("orders", cfg.NumOrders, "number of orders to attempt")
		promotions   = flag.Int("promotions", cfg.NumPromotions, "number of promotion codes")
		sharedChance = flag.Float64("shared-location-chance", cfg.SharedLocationChance, "probability a buyer lives in a vendor's city")
		shippingFee  = flag.String("shipping-fee", cfg.ShippingFee.String(), "flat shipping fee added to every order")
		password     = flag.String("password", cfg.Password, "password shared by every generated account")
		seed         = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir    = flag.String("output-dir", "data", "directory to write the dataset into")
		format       = flag.String("format", "json", "output format: json or yaml")
		writeStdout  = flag.Bool("stdout", false, "write the dataset as JSON to stdout instead of a file")
	)
	flag.Parse()

	fee, err := decimal.NewFromString(*shippingFee)
	if err != nil || fee.IsNegative() {
		fmt.Fprintf(os.Stderr, "invalid shipping fee %q\n", *shippingFee)
		os.Exit(1)
	}

	genCfg := generator.Config{
		NumBuyers:            *buyers,
		NumVendors:           *vendors,
		NumProducts:          *products,
		NumOrders:            *orders,
		NumPromotions:        *promotions,
		SharedLocationChance: clampProbability(*sharedChance),
		ShippingFee:          fee,
		Currency:             cfg.Currency,
		Password:             *password,
		Seed:                 *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	path, err := generator.WriteDataset(dataset, *outputDir, *format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d users, %d products and %d orders into %s\n",
		len(dataset.Users), len(dataset.Products), len(dataset.Orders), path)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
