package config

import (
	"os"
	"strconv"
	"time"
)

const minProviderTimeout = 5 * time.Second

type Config struct {
	Env      string
	Port     int
	LogJSON  bool
	LogLevel string

	JWTSecret   string
	DatabaseURL string
	RedisAddr   string

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentMock         bool
	PlatformName        string
	OnboardingRefresh   string
	OnboardingReturn    string

	DoorDashDeveloperID   string
	DoorDashKeyID         string
	DoorDashSigningSecret string
	DoorDashBaseURL       string
	DoorDashWebhookAuth   string
	DeliveryIDPrefix      string
	DefaultDeliveryFee    int64

	SMSURL   string
	SMSToken string

	ProviderTimeout time.Duration
}

func Default() Config {
	return Config{
		Env:                "dev",
		Port:               5000,
		LogJSON:            true,
		LogLevel:           "info",
		PaymentMock:        false,
		PlatformName:       "homecook",
		OnboardingRefresh:  "http://localhost:3000/chef/onboarding/refresh",
		OnboardingReturn:   "http://localhost:3000/chef/onboarding/complete",
		DoorDashBaseURL:    "https://openapi.doordash.com",
		DeliveryIDPrefix:   "homecook",
		DefaultDeliveryFee: 999,
		ProviderTimeout:    15 * time.Second,
	}
}

func EnvDefaults() Config {
	return fromEnv(Default())
}

func fromEnv(c Config) Config {
	str(&c.Env, "HOMECOOK_ENV")
	if v := os.Getenv("HOMECOOK_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	boolean(&c.LogJSON, "HOMECOOK_LOG_JSON")
	str(&c.LogLevel, "HOMECOOK_LOG_LEVEL")
	str(&c.JWTSecret, "HOMECOOK_JWT_SECRET")
	str(&c.DatabaseURL, "HOMECOOK_DATABASE_URL")
	str(&c.RedisAddr, "HOMECOOK_REDIS_ADDR")
	str(&c.StripeSecretKey, "HOMECOOK_STRIPE_SECRET_KEY")
	str(&c.StripeWebhookSecret, "HOMECOOK_STRIPE_WEBHOOK_SECRET")
	boolean(&c.PaymentMock, "HOMECOOK_PAYMENT_MOCK")
	str(&c.PlatformName, "HOMECOOK_PLATFORM_NAME")
	str(&c.OnboardingRefresh, "HOMECOOK_ONBOARDING_REFRESH_URL")
	str(&c.OnboardingReturn, "HOMECOOK_ONBOARDING_RETURN_URL")
	str(&c.DoorDashDeveloperID, "HOMECOOK_DOORDASH_DEVELOPER_ID")
	str(&c.DoorDashKeyID, "HOMECOOK_DOORDASH_KEY_ID")
	str(&c.DoorDashSigningSecret, "HOMECOOK_DOORDASH_SIGNING_SECRET")
	str(&c.DoorDashBaseURL, "HOMECOOK_DOORDASH_BASE_URL")
	str(&c.DoorDashWebhookAuth, "HOMECOOK_DOORDASH_WEBHOOK_AUTH")
	str(&c.DeliveryIDPrefix, "HOMECOOK_DELIVERY_ID_PREFIX")
	if v := os.Getenv("HOMECOOK_DEFAULT_DELIVERY_FEE_CENTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			c.DefaultDeliveryFee = n
		}
	}
	str(&c.SMSURL, "HOMECOOK_SMS_URL")
	str(&c.SMSToken, "HOMECOOK_SMS_TOKEN")
	if v := os.Getenv("HOMECOOK_PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ProviderTimeout = d
		}
	}
	c.ProviderTimeout = clampTimeout(c.ProviderTimeout)
	return c
}

// Timeout returns the provider HTTP timeout, never below five seconds.
func (c Config) Timeout() time.Duration {
	return clampTimeout(c.ProviderTimeout)
}

// UseStripe reports whether a real Stripe client should be built.
func (c Config) UseStripe() bool {
	return !c.PaymentMock && c.StripeSecretKey != ""
}

func clampTimeout(d time.Duration) time.Duration {
	if d < minProviderTimeout {
		return minProviderTimeout
	}
	return d
}

func str(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func boolean(dst *bool, key string) {
	switch os.Getenv(key) {
	case "1", "true", "TRUE":
		*dst = true
	case "0", "false", "FALSE":
		*dst = false
	}
}
