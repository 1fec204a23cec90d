package configs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Name           string   `yaml:"name"`
		Env            string   `yaml:"env"`
		Port           string   `yaml:"port"`
		AllowOrigins   string   `yaml:"allow_origins"`
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"app"`

	DB struct {
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		MySQLDSN string `yaml:"mysql_dsn"`
		Name     string `yaml:"dbname"`
		Migrate  bool   `yaml:"migrate"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"redis_addr"`
		Password string `yaml:"redis_password"`
		DB       int    `yaml:"redis_db"`
	} `yaml:"redis"`

	Auth struct {
		OTPLength         int           `yaml:"otp_length"`
		OTPExpiryMinutes  int           `yaml:"otp_expiry_minutes"`
		OTPHashCost       int           `yaml:"otp_hash_cost"`
		FixedOTPEnvs      []string      `yaml:"fixed_otp_envs"`
		AccessCookieName  string        `yaml:"access_cookie_name"`
		RefreshCookieName string        `yaml:"refresh_cookie_name"`
		AccessTokenTTL    time.Duration `yaml:"access_token_ttl"`
		RefreshTokenTTL   time.Duration `yaml:"refresh_token_ttl"`
		VerifiedGroup     string        `yaml:"verified_group"`
		CookieSameSite    string        `yaml:"cookie_same_site"`
		SecureCookies     bool          `yaml:"secure_cookies"`
	} `yaml:"auth"`

	Google struct {
		ClientID string `yaml:"client_id"`
	} `yaml:"google"`

	Mail struct {
		Provider     string `yaml:"provider"`
		EmailAPIKey  string `yaml:"resend_api_key"`
		SenderEmail  string `yaml:"sender_email"`
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     string `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_username"`
		SMTPPassword string `yaml:"smtp_password"`
	} `yaml:"mail"`

	SMS struct {
		GatewayURL string `yaml:"gateway_url"`
		APIKey     string `yaml:"api_key"`
		SenderID   string `yaml:"sender_id"`
	} `yaml:"sms"`

	RateLimit struct {
		AuthPerMinute int `yaml:"auth_per_minute"`
	} `yaml:"ratelimit"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Load(env string) (*Config, error) {
	var cfg Config
	configFile := "dev.yml"

	if env == "production" {
		configFile = "prod.yml"
	}

	configPath := filepath.Join("internal", "configs", configFile)
	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	log.Printf("Loading config from: %s", configPath)

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if pass := getPassword(env); pass != "" {
		cfg.DB.Password = pass
	}

	expandConfig(&cfg, env)
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills every zero value the service depends on.
func (c *Config) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "marketplace-service"
	}
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "mysql"
	}
	if c.Auth.OTPLength <= 0 {
		c.Auth.OTPLength = 6
	}
	if c.Auth.OTPExpiryMinutes <= 0 {
		c.Auth.OTPExpiryMinutes = 3
	}
	if c.Auth.OTPHashCost <= 0 {
		c.Auth.OTPHashCost = 10
	}
	if c.Auth.AccessCookieName == "" {
		c.Auth.AccessCookieName = "access_token"
	}
	if c.Auth.RefreshCookieName == "" {
		c.Auth.RefreshCookieName = "refresh_token"
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 12 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 15 * 24 * time.Hour
	}
	if c.Auth.VerifiedGroup == "" {
		c.Auth.VerifiedGroup = "verified_user"
	}
	if c.Auth.CookieSameSite == "" {
		c.Auth.CookieSameSite = "Lax"
	}
	if c.RateLimit.AuthPerMinute <= 0 {
		c.RateLimit.AuthPerMinute = 3
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// UsesFixedOTP reports whether OTP codes are pinned to zeros for the current env.
func (c *Config) UsesFixedOTP() bool {
	for _, env := range c.Auth.FixedOTPEnvs {
		if strings.EqualFold(env, c.App.Env) {
			return true
		}
	}
	return false
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *Config) SQL_DSN() string {
	if c.DB.MySQLDSN != "" {
		return c.DB.MySQLDSN
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name,
	)
}

func getPassword(env string) string {
	var (
		envVarName string
		secretFile string
	)

	switch env {
	case "production":
		envVarName = "PROD_DB_PASSWORD"
		secretFile = ".prod_db_password"
	default:
		envVarName = "DEV_DB_PASSWORD"
		secretFile = ".dev_db_password"
	}

	// Lookup order: environment, .env, secrets file.
	if pass := os.Getenv(envVarName); pass != "" {
		return pass
	}

	if err := godotenv.Load(); err == nil {
		if pass := os.Getenv(envVarName); pass != "" {
			return pass
		}
	}

	secretPath := filepath.Join("..", "secrets", secretFile)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}

	return ""
}

func expandConfig(cfg *Config, env string) {
	dbPassVar := "DEV_DB_PASSWORD"
	if env == "production" {
		dbPassVar = "PROD_DB_PASSWORD"
	}

	mapping := func(key string) string {
		if key == "DB_PASSWORD" {
			return os.Getenv(dbPassVar)
		}
		return os.Getenv(key)
	}

	cfg.DB.Password = os.Expand(cfg.DB.Password, mapping)
	cfg.DB.MySQLDSN = os.Expand(cfg.DB.MySQLDSN, mapping)

	cfg.Redis.Addr = os.ExpandEnv(cfg.Redis.Addr)
	cfg.Redis.Password = os.ExpandEnv(cfg.Redis.Password)
	cfg.Google.ClientID = os.ExpandEnv(cfg.Google.ClientID)
	cfg.Mail.EmailAPIKey = os.ExpandEnv(cfg.Mail.EmailAPIKey)
	cfg.Mail.SMTPPassword = os.ExpandEnv(cfg.Mail.SMTPPassword)
	cfg.SMS.APIKey = os.ExpandEnv(cfg.SMS.APIKey)
	cfg.SMS.GatewayURL = os.ExpandEnv(cfg.SMS.GatewayURL)
	cfg.Mail.SenderEmail = os.ExpandEnv(cfg.Mail.SenderEmail)
	cfg.App.AllowOrigins = os.ExpandEnv(cfg.App.AllowOrigins)

	if env != "" {
		cfg.App.Env = env
	}
}
