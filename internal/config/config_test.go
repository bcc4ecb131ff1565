package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := FromLookup(lookupFrom(nil))
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "storefront", cfg.DBSchema)
		assert.Equal(t, 72*time.Hour, cfg.CartTTL)
		assert.True(t, cfg.FreeShippingThreshold.Equal(decimal.RequireFromString("150")))
		assert.True(t, cfg.FlatShippingFee.Equal(decimal.RequireFromString("12.99")))
		assert.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.07")))
		assert.Empty(t, cfg.KafkaBrokers)
		assert.Empty(t, cfg.OTLPEndpoint)
		assert.Error(t, cfg.RequirePostgres())
	})

	t.Run("reads overrides", func(t *testing.T) {
		cfg, err := FromLookup(lookupFrom(map[string]string{
			"PORT":          "9000",
			"POSTGRES_URL":  "postgres://localhost/shop",
			"KAFKA_BROKERS": "k1:9092, k2:9092,",
			"REDIS_DB":      "3",
			"TAX_RATE":      "0.2",
		}))
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, 3, cfg.RedisDB)
		assert.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.2")))
		assert.NoError(t, cfg.RequirePostgres())
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		for key, value := range map[string]string{
			"REDIS_DB":          "zero",
			"CART_TTL":          "soon",
			"FLAT_SHIPPING_FEE": "-1",
			"TAX_RATE":          "seven",
		} {
			_, err := FromLookup(lookupFrom(map[string]string{key: value}))
			assert.Error(t, err, key)
		}
	})
}

func TestConfig_PostgresDSN(t *testing.T) {
	cfg := &Config{PostgresURL: "postgres://shop:secret@db:5432/shop?sslmode=disable", DBSchema: "storefront"}
	dsn, err := cfg.PostgresDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://shop:secret@db:5432/shop?search_path=storefront&sslmode=disable", dsn)

	cfg.PostgresURL = "postgres://db/shop?search_path=custom"
	dsn, err = cfg.PostgresDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/shop?search_path=custom", dsn)
}
