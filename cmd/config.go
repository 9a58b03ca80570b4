package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"pharmacy/internal/adapters/out/redislock"
	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/services"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr string

	KafkaBrokers          []string
	KafkaOrderEventsTopic string

	RoutingBaseURL string
	RoutingAPIKey  string
	RoutingTimeout time.Duration

	GatewayBaseURL  string
	GatewayAPIKey   string
	GatewayTimeout  time.Duration
	PaymentCurrency string

	AuditSchedule string

	Pricing PricingConfig
}

type LatLng struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// PricingConfig is the delivery tariff and service area, read from PRICING_CONFIG_PATH.
// Money values are strings so that YAML floats never round them.
type PricingConfig struct {
	Central               LatLng  `yaml:"central"`
	BaseFee               string  `yaml:"base_fee"`
	PerKmRate             string  `yaml:"per_km_rate"`
	FreeDeliveryThreshold string  `yaml:"free_delivery_threshold"`
	MaxDeliveryDistanceKm float64 `yaml:"max_delivery_distance_km"`
	TaxRate               string  `yaml:"tax_rate"`
	AverageSpeedKmh       float64 `yaml:"average_speed_kmh"`
	ServiceArea           struct {
		Strict    bool   `yaml:"strict"`
		Name      string `yaml:"name"`
		SouthWest LatLng `yaml:"south_west"`
		NorthEast LatLng `yaml:"north_east"`
	} `yaml:"service_area"`
}

func defaultPricing() PricingConfig {
	p := PricingConfig{
		Central:               LatLng{Lat: 12.9716, Lng: 77.5946},
		BaseFee:               "50",
		PerKmRate:             "8",
		FreeDeliveryThreshold: "500",
		MaxDeliveryDistanceKm: 50,
		TaxRate:               "0.05",
	}
	p.ServiceArea.Name = "Bengaluru"
	p.ServiceArea.SouthWest = LatLng{Lat: 12.70, Lng: 77.35}
	p.ServiceArea.NorthEast = LatLng{Lat: 13.20, Lng: 77.85}
	return p
}

// LoadConfig reads envFile (missing is fine), then the environment, then the pricing file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		HTTPPort:              envOr("HTTP_PORT", "8080"),
		DBHost:                envOr("DB_HOST", "localhost"),
		DBPort:                envOr("DB_PORT", "5432"),
		DBUser:                os.Getenv("DB_USER"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBName:                os.Getenv("DB_NAME"),
		DBSslMode:             envOr("DB_SSLMODE", "disable"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		KafkaBrokers:          splitCommaList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderEventsTopic: os.Getenv("KAFKA_ORDER_EVENTS_TOPIC"),
		RoutingBaseURL:        os.Getenv("ROUTING_BASE_URL"),
		RoutingAPIKey:         os.Getenv("ROUTING_API_KEY"),
		RoutingTimeout:        durationOr(3*time.Second, os.Getenv("ROUTING_TIMEOUT")),
		GatewayBaseURL:        os.Getenv("GATEWAY_BASE_URL"),
		GatewayAPIKey:         os.Getenv("GATEWAY_API_KEY"),
		GatewayTimeout:        durationOr(10*time.Second, os.Getenv("GATEWAY_TIMEOUT")),
		PaymentCurrency:       os.Getenv("PAYMENT_CURRENCY"),
		AuditSchedule:         os.Getenv("AUDIT_SCHEDULE"),
	}

	pricing, err := LoadPricing(os.Getenv("PRICING_CONFIG_PATH"))
	if err != nil {
		return Config{}, err
	}
	cfg.Pricing = pricing

	if cfg.DBUser == "" || cfg.DBName == "" {
		return Config{}, errors.New("DB_USER and DB_NAME are required")
	}
	return cfg, nil
}

// LoadPricing starts from the built-in tariff, overlays the YAML file when path is set and
// finally applies TAX_RATE and STRICT_SERVICE_AREA from the environment.
func LoadPricing(path string) (PricingConfig, error) {
	cfg := defaultPricing()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return PricingConfig{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return PricingConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if v := os.Getenv("TAX_RATE"); v != "" {
		cfg.TaxRate = v
	}
	if v := os.Getenv("STRICT_SERVICE_AREA"); v != "" {
		cfg.ServiceArea.Strict = boolOr(cfg.ServiceArea.Strict, v)
	}
	return cfg, nil
}

// LockTTL is how long an order lock lease lives. A payment initiation holds the lock across
// the gateway call, so the lease is kept well above the gateway timeout.
func (c Config) LockTTL() time.Duration {
	return max(redislock.DefaultTTL, 3*c.GatewayTimeout)
}

// DSN is the postgres connection string in key=value form.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// Tariff validates the pricing config and turns it into the domain tariff and tax rate.
func (p PricingConfig) Tariff() (services.Pricing, decimal.Decimal, error) {
	central, err := kernel.NewGeoPoint(p.Central.Lat, p.Central.Lng)
	if err != nil {
		return services.Pricing{}, decimal.Decimal{}, fmt.Errorf("central location: %w", err)
	}

	amounts := make(map[string]decimal.Decimal, 4)
	for name, raw := range map[string]string{
		"base_fee":                p.BaseFee,
		"per_km_rate":             p.PerKmRate,
		"free_delivery_threshold": p.FreeDeliveryThreshold,
		"tax_rate":                p.TaxRate,
	} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return services.Pricing{}, decimal.Decimal{}, fmt.Errorf("%s: %w", name, err)
		}
		amounts[name] = d
	}

	pricing, err := services.NewPricing(central, amounts["base_fee"], amounts["per_km_rate"],
		amounts["free_delivery_threshold"], p.MaxDeliveryDistanceKm)
	if err != nil {
		return services.Pricing{}, decimal.Decimal{}, err
	}
	return pricing, amounts["tax_rate"], nil
}

// Policy returns the strict bounding-box policy when enabled, the permissive one otherwise.
func (p PricingConfig) Policy() (services.ServiceAreaPolicy, error) {
	if !p.ServiceArea.Strict {
		return services.PermissiveServiceArea{}, nil
	}

	sw, err := kernel.NewGeoPoint(p.ServiceArea.SouthWest.Lat, p.ServiceArea.SouthWest.Lng)
	if err != nil {
		return nil, fmt.Errorf("service area south west: %w", err)
	}
	ne, err := kernel.NewGeoPoint(p.ServiceArea.NorthEast.Lat, p.ServiceArea.NorthEast.Lng)
	if err != nil {
		return nil, fmt.Errorf("service area north east: %w", err)
	}
	box, err := kernel.NewBoundingBox(sw, ne)
	if err != nil {
		return nil, err
	}
	return services.NewStrictServiceArea(p.ServiceArea.Name, box)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func durationOr(fallback time.Duration, v string) time.Duration {
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func boolOr(fallback bool, v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
