package fixture

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/marketplace/internal/domain"
)

const sampleYAML = `
users:
  - id: USR-1
    name: Amina
    email: amina@example.com
    role: buyer
    location: Kano
    kycStatus: approved
    status: active
products:
  - id: PRD-1
    vendorId: VND-1
    name: Parboiled rice 50kg
    category: Grains
    subcategory: Rice
    price: 45000
    stock: 12
    rating: 4.5
    sales: 30
    origin: Kano
    status: active
promotions:
  - id: PROMO-1
    code: HARVEST10
    type: percentage
    value: 10
    expiryDate: "2030-01-01T00:00:00Z"
    active: true
    applicableCategories: [Grains]
`

func TestDecodeYAML(t *testing.T) {
	ds, err := DecodeYAML([]byte(sampleYAML))
	require.NoError(t, err)

	require.Len(t, ds.Users, 1)
	assert.Equal(t, domain.RoleBuyer, ds.Users[0].Role)
	assert.Equal(t, domain.KYCApproved, ds.Users[0].KYCStatus)

	require.Len(t, ds.Products, 1)
	assert.True(t, ds.Products[0].Price.Equal(decimal.NewFromInt(45000)))
	assert.Equal(t, 4.5, ds.Products[0].Rating)

	require.Len(t, ds.Promotions, 1)
	assert.Equal(t, []string{"Grains"}, ds.Promotions[0].ApplicableCategories)
	assert.True(t, ds.Promotions[0].ExpiryDate.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestWriteThenLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed", "data.yaml")
	ds := Dataset{
		Categories: []domain.Category{{ID: "CAT-1", Name: "Grains", Subcategories: []string{"Rice", "Maize"}}},
		Pages:      []domain.Page{{ID: "PG-1", Slug: "about", Title: "About", Published: true}},
	}
	require.NoError(t, Write(ds, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ds.Categories, loaded.Categories)
	require.Len(t, loaded.Pages, 1)
	assert.Equal(t, "about", loaded.Pages[0].Slug)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
