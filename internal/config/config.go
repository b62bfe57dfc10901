package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort            = "3000"
	defaultTokenURL        = "https://api.shopify.com/auth/access_token"
	defaultCatalogURL      = "https://discover.shopifyapps.com/global/mcp"
	defaultShopAPIVersion  = "2024-10"
	defaultUpstreamTimeout = 10 * time.Second
)

type Config struct {
	AppPort             string
	AppEnv              string
	CatalogClientID     string
	CatalogClientSecret string
	CatalogTokenURL     string
	CatalogAPIURL       string
	ShopAPIVersion      string
	SessionSecret       string
	InternalSecretKey   string
	UpstreamTimeout     time.Duration
	CORSOrigins         []string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:             getenv("APP_PORT", defaultPort),
		AppEnv:              os.Getenv("APP_ENV"),
		CatalogClientID:     os.Getenv("CATALOG_CLIENT_ID"),
		CatalogClientSecret: os.Getenv("CATALOG_CLIENT_SECRET"),
		CatalogTokenURL:     getenv("CATALOG_TOKEN_URL", defaultTokenURL),
		CatalogAPIURL:       getenv("CATALOG_API_URL", defaultCatalogURL),
		ShopAPIVersion:      getenv("SHOP_API_VERSION", defaultShopAPIVersion),
		SessionSecret:       os.Getenv("SESSION_SECRET"),
		InternalSecretKey:   os.Getenv("INTERNAL_SECRET_KEY"),
		UpstreamTimeout:     defaultUpstreamTimeout,
		CORSOrigins:         splitList(os.Getenv("CORS_ORIGINS")),
	}

	if raw := os.Getenv("UPSTREAM_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.Printf("invalid UPSTREAM_TIMEOUT %q, using %s", raw, defaultUpstreamTimeout)
		} else {
			cfg.UpstreamTimeout = d
		}
	}

	if cfg.CatalogClientID == "" || cfg.CatalogClientSecret == "" {
		log.Fatal("Catalog credentials not loaded: set CATALOG_CLIENT_ID and CATALOG_CLIENT_SECRET")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
