package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_USER", "shop")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DBNAME", "storefront")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.HttpServer.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, c.HttpServer.AllowedOrigins)
	assert.Equal(t, "Color", c.Catalog.PrimaryAttribute)
	assert.Equal(t, "Talla", c.Catalog.SecondaryAttribute)
	assert.Equal(t, "Unidad de medida", c.Catalog.UnitAttribute)
	assert.Empty(t, c.Backend.CatalogURL)
	assert.Equal(t, int64(1), c.Backend.CartID)
	assert.Equal(t, 24*time.Hour, c.Checkout.DraftTTL)
	assert.Equal(t, 15*time.Minute, c.Catalog.RefreshInterval)
	assert.Equal(t, "host=localhost port=5432 user=shop password=secret dbname=storefront sslmode=disable", c.Postgres.DSN())
	assert.Same(t, c, Get())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CATALOG_BASE_URL", "http://catalog:8081")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CHECKOUT_DRAFT_TTL", "30m")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://catalog:8081", c.Backend.CatalogURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.HttpServer.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, c.Checkout.DraftTTL)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	require.NoError(t, os.Unsetenv("POSTGRES_HOST"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidCleanupInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("CHECKOUT_CLEANUP_INTERVAL", "0s")

	_, err := Load()
	assert.Error(t, err)
}
