package catalog

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// GenerateOptions sizes a synthetic price list.
type GenerateOptions struct {
	Shop       string
	Seed       uint64
	Categories int
	Goods      int
	Parameters int
}

// GenerateDocument builds a valid price list. The same seed yields the same document.
func GenerateDocument(opts GenerateOptions) *Document {
	f := gofakeit.New(opts.Seed)
	if opts.Categories <= 0 {
		opts.Categories = 1
	}
	shop := opts.Shop
	if shop == "" {
		shop = f.Company()
	}

	doc := &Document{Shop: shop}
	for i := 0; i < opts.Categories; i++ {
		doc.Categories = append(doc.Categories, Category{
			ID:   int64(100 + i),
			Name: categoryName(i),
		})
	}

	for i := 0; i < opts.Goods; i++ {
		price := decimal.NewFromFloat(f.Price(1, 5000)).Round(2)
		if !price.IsPositive() {
			price = decimal.NewFromInt(1)
		}
		good := Good{
			ID:         int64(1000 + i),
			Category:   doc.Categories[i%len(doc.Categories)].ID,
			Name:       fmt.Sprintf("%s %d", f.ProductName(), i+1),
			Model:      fmt.Sprintf("%s-%d", f.LetterN(3), f.Number(10, 999)),
			Price:      Money{price},
			PriceRRC:   Money{price.Mul(decimal.NewFromFloat(1.2)).Round(2)},
			Quantity:   f.Number(0, 50),
			Parameters: map[string]ParamValue{},
		}
		for p := 0; p < opts.Parameters; p++ {
			good.Parameters[fmt.Sprintf("param_%d", p+1)] = ParamValue(f.ProductFeature())
		}
		doc.Goods = append(doc.Goods, good)
	}
	return doc
}

var categoryNames = []string{"Smartphones", "Accessories", "Flash drives", "Headphones", "Televisions"}

// categoryName is stable per index so generated lists from different suppliers agree on ids.
func categoryName(i int) string {
	if i < len(categoryNames) {
		return categoryNames[i]
	}
	return fmt.Sprintf("Category %d", i+1)
}

// MarshalYAML writes prices as plain numbers.
func (m Money) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: m.Decimal.String()}, nil
}
