package catalog

import (
	"testing"

	"github.com/angelmondragon/orderhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderhub-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const acmeYAML = `
shop: Acme
categories:
  - id: 1
    name: Tools
goods:
  - id: 5
    category: 1
    name: Hammer
    model: H1
    price: 10
    price_rrc: 12
    quantity: 4
    parameters:
      weight: 1kg
      "Диагональ (дюйм)": 6.5
      waterproof: true
`

func TestParseDocumentYAML(t *testing.T) {
	doc, err := ParseDocument(enums.CatalogFormatYAML, []byte(acmeYAML))
	require.NoError(t, err)

	assert.Equal(t, "Acme", doc.Shop)
	require.Len(t, doc.Categories, 1)
	require.Len(t, doc.Goods, 1)
	good := doc.Goods[0]
	assert.Equal(t, int64(5), good.ID)
	assert.Equal(t, "H1", good.Model)
	assert.Equal(t, "10", good.Price.String())
	assert.Equal(t, "12", good.PriceRRC.String())
	assert.Equal(t, ParamValue("1kg"), good.Parameters["weight"])
	assert.Equal(t, ParamValue("6.5"), good.Parameters["Диагональ (дюйм)"])
	assert.Equal(t, ParamValue("true"), good.Parameters["waterproof"])
	assert.Equal(t, 3, doc.ParameterCount())
}

func TestParseDocumentJSON(t *testing.T) {
	raw := `{"shop":"Acme","categories":[{"id":1,"name":"Tools"}],
	"goods":[{"id":5,"category":1,"name":"Hammer","model":"H1","price":"10.50","price_rrc":12,"quantity":4,
	"parameters":{"weight":"1kg","size":42,"sale":false}}]}`

	doc, err := ParseDocument(enums.CatalogFormatJSON, []byte(raw))
	require.NoError(t, err)
	good := doc.Goods[0]
	assert.Equal(t, "10.5", good.Price.String())
	assert.Equal(t, ParamValue("42"), good.Parameters["size"])
	assert.Equal(t, ParamValue("false"), good.Parameters["sale"])
}

func TestParseDocumentRejects(t *testing.T) {
	cases := map[string]struct {
		format enums.CatalogFormat
		raw    string
		field  string
	}{
		"empty": {enums.CatalogFormatYAML, "  ", ""},
		"malformed yaml": {enums.CatalogFormatYAML, "shop: [", "document"},
		"missing shop": {enums.CatalogFormatYAML, "categories: [{id: 1, name: T}]", "shop"},
		"missing categories": {enums.CatalogFormatYAML, "shop: A", "categories"},
		"unknown category": {enums.CatalogFormatYAML, `
shop: A
categories: [{id: 1, name: T}]
goods: [{id: 1, category: 2, name: N, price: 1, price_rrc: 1, quantity: 1}]`, "goods[0].category"},
		"duplicate good": {enums.CatalogFormatYAML, `
shop: A
categories: [{id: 1, name: T}]
goods:
  - {id: 1, category: 1, name: N, price: 1, price_rrc: 1, quantity: 1}
  - {id: 1, category: 1, name: M, price: 1, price_rrc: 1, quantity: 1}`, "goods[1].id"},
		"zero price": {enums.CatalogFormatYAML, `
shop: A
categories: [{id: 1, name: T}]
goods: [{id: 1, category: 1, name: N, price: 0, price_rrc: 1, quantity: 1}]`, "goods[0].price"},
		"negative quantity": {enums.CatalogFormatYAML, `
shop: A
categories: [{id: 1, name: T}]
goods: [{id: 1, category: 1, name: N, price: 1, price_rrc: 1, quantity: -1}]`, "goods[0].quantity"},
		"nested parameter": {enums.CatalogFormatJSON, `{"shop":"A","categories":[{"id":1,"name":"T"}],
"goods":[{"id":1,"category":1,"name":"N","price":1,"price_rrc":1,"quantity":1,"parameters":{"x":{"y":1}}}]}`, "document"},
		"bad price": {enums.CatalogFormatYAML, `
shop: A
categories: [{id: 1, name: T}]
goods: [{id: 1, category: 1, name: N, price: cheap, price_rrc: 1, quantity: 1}]`, "document"},
		"unsupported format": {enums.CatalogFormat("xml"), "<shop/>", ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument(tc.format, []byte(tc.raw))
			require.Error(t, err)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
			if tc.field == "" {
				return
			}
			details, ok := pkgerrors.As(err).Details().(map[string]string)
			require.True(t, ok, "details missing for %v", err)
			assert.Contains(t, details, tc.field)
		})
	}
}

func TestGeneratedDocumentRoundTripsThroughYAML(t *testing.T) {
	doc := GenerateDocument(GenerateOptions{Shop: "Gen", Seed: 7, Categories: 3, Goods: 12, Parameters: 2})
	raw, err := yaml.Marshal(doc)
	require.NoError(t, err)

	parsed, err := ParseDocument(enums.CatalogFormatYAML, raw)
	require.NoError(t, err)
	require.Len(t, parsed.Goods, 12)
	for i := range doc.Goods {
		assert.True(t, doc.Goods[i].Price.Equal(parsed.Goods[i].Price.Decimal))
		assert.Equal(t, doc.Goods[i].Parameters, parsed.Goods[i].Parameters)
	}

	again := GenerateDocument(GenerateOptions{Shop: "Gen", Seed: 7, Categories: 3, Goods: 12, Parameters: 2})
	assert.Equal(t, doc.Goods[3].Name, again.Goods[3].Name)
}
