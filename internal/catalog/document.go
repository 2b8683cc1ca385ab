package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Document is a supplier price list.
type Document struct {
	Shop       string     `json:"shop" yaml:"shop" validate:"required,max=50"`
	Categories []Category `json:"categories" yaml:"categories" validate:"required,min=1,dive"`
	Goods      []Good     `json:"goods" yaml:"goods" validate:"dive"`
}

// Category ids are owned by the supplier and shared across shops.
type Category struct {
	ID   int64  `json:"id" yaml:"id" validate:"required,gt=0"`
	Name string `json:"name" yaml:"name" validate:"required,max=40"`
}

// Good is one offer line. ID is the supplier's external id.
type Good struct {
	ID         int64                 `json:"id" yaml:"id" validate:"required,gt=0"`
	Category   int64                 `json:"category" yaml:"category" validate:"required,gt=0"`
	Name       string                `json:"name" yaml:"name" validate:"required,max=80"`
	Model      string                `json:"model" yaml:"model" validate:"max=80"`
	Price      Money                 `json:"price" yaml:"price"`
	PriceRRC   Money                 `json:"price_rrc" yaml:"price_rrc"`
	Quantity   int                   `json:"quantity" yaml:"quantity" validate:"gte=0"`
	Parameters map[string]ParamValue `json:"parameters" yaml:"parameters"`
}

// Money accepts numeric or quoted decimal prices.
type Money struct {
	decimal.Decimal
}

func (m *Money) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: price must be a number", node.Line)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q", node.Line, node.Value)
	}
	m.Decimal = d
	return nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

// ParamValue keeps the textual form of a scalar parameter value.
type ParamValue string

func (p *ParamValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: parameter values must be scalars", node.Line)
	}
	*p = ParamValue(node.Value)
	return nil
}

func (p *ParamValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("parameter value is required")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ParamValue(s)
	case '{', '[':
		return fmt.Errorf("parameter values must be scalars")
	default:
		// numbers and booleans keep their literal form
		*p = ParamValue(data)
	}
	return nil
}

var documentValidator = newDocumentValidator()

func newDocumentValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ParseDocument decodes and validates a price list. Every failure is a validation error.
func ParseDocument(format enums.CatalogFormat, raw []byte) (*Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price list is empty")
	}

	var doc Document
	switch format {
	case enums.CatalogFormatJSON:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, parseError(err)
		}
	case enums.CatalogFormatYAML, "":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, parseError(err)
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported format %q", format))
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks required fields and cross references between goods and categories.
func (d *Document) Validate() error {
	d.Shop = strings.TrimSpace(d.Shop)
	if err := documentValidator.Struct(d); err != nil {
		return formatValidationErrors(err)
	}

	details := map[string]string{}
	categories := make(map[int64]struct{}, len(d.Categories))
	for i, c := range d.Categories {
		if _, dup := categories[c.ID]; dup {
			details[fmt.Sprintf("categories[%d].id", i)] = "is duplicated"
		}
		categories[c.ID] = struct{}{}
	}

	goods := make(map[int64]struct{}, len(d.Goods))
	for i, g := range d.Goods {
		if _, ok := categories[g.Category]; !ok {
			details[fmt.Sprintf("goods[%d].category", i)] = "references an unknown category"
		}
		if _, dup := goods[g.ID]; dup {
			details[fmt.Sprintf("goods[%d].id", i)] = "is duplicated"
		}
		goods[g.ID] = struct{}{}
		if !g.Price.IsPositive() {
			details[fmt.Sprintf("goods[%d].price", i)] = "must be greater than 0"
		}
		if g.PriceRRC.IsNegative() {
			details[fmt.Sprintf("goods[%d].price_rrc", i)] = "must not be negative"
		}
		names := make(map[string]struct{}, len(g.Parameters))
		for name := range g.Parameters {
			trimmed := strings.TrimSpace(name)
			if trimmed == "" {
				details[fmt.Sprintf("goods[%d].parameters", i)] = "names must not be blank"
				continue
			}
			if _, dup := names[trimmed]; dup {
				details[fmt.Sprintf("goods[%d].parameters.%s", i, trimmed)] = "is duplicated"
			}
			names[trimmed] = struct{}{}
		}
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid price list").WithDetails(details)
	}
	return nil
}

// ParameterCount sums parameters across goods.
func (d *Document) ParameterCount() int {
	n := 0
	for _, g := range d.Goods {
		n += len(g.Parameters)
	}
	return n
}

func parseError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed price list").
		WithDetails(map[string]string{"document": err.Error()})
}

func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price list")
	}
	details := map[string]string{}
	for _, fe := range errs {
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		switch fe.Tag() {
		case "required":
			details[path] = "is required"
		case "min", "gte":
			details[path] = "must be at least " + fe.Param()
		case "max":
			details[path] = "must be at most " + fe.Param()
		case "gt":
			details[path] = "must be greater than " + fe.Param()
		default:
			details[path] = "is invalid"
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid price list").WithDetails(details)
}
