// Command pricelist-gen writes a random but valid supplier price list for
// local testing of the partner update endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/orderhub-backend/internal/catalog"
	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	"github.com/angelmondragon/orderhub-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "pricelist-gen", Output: os.Stderr})
	ctx := context.Background()

	shop := flag.String("shop", "", "shop name (random when empty)")
	seed := flag.Uint64("seed", 1, "generator seed; the same seed yields the same document")
	categories := flag.Int("categories", 3, "number of categories")
	goods := flag.Int("goods", 10, "number of goods")
	params := flag.Int("params", 3, "parameters per good")
	format := flag.String("format", string(enums.CatalogFormatYAML), "output format: yaml|json")
	out := flag.String("out", "", "output file (stdout when empty)")
	flag.Parse()

	kind, err := enums.ParseCatalogFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -format: %v\n", err)
		os.Exit(2)
	}

	doc := catalog.GenerateDocument(catalog.GenerateOptions{
		Shop:       *shop,
		Seed:       *seed,
		Categories: *categories,
		Goods:      *goods,
		Parameters: *params,
	})
	if err := doc.Validate(); err != nil {
		logg.Error(ctx, "generated document is invalid", err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logg.Error(ctx, "failed to create output file", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := write(w, kind, doc); err != nil {
		logg.Error(ctx, "failed to write price list", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"shop":       doc.Shop,
		"goods":      len(doc.Goods),
		"parameters": doc.ParameterCount(),
		"format":     kind,
	}), "price list generated")
}

func write(w io.Writer, format enums.CatalogFormat, doc *catalog.Document) error {
	switch format {
	case enums.CatalogFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
}
