// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	GRPCAuthAddress         string `yaml:"grpc_auth_address"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	SupportEmail            string `yaml:"support_email"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                RabbitMQ       `yaml:"rabbitmq"`
	SMTP                    SMTP           `yaml:"smtp"`
	PaymentGateway          PaymentGateway `yaml:"payment_gateway"`
	Pricing                 Pricing        `yaml:"pricing"`
	Trial                   Trial          `yaml:"trial"`
	Checkout                Checkout       `yaml:"checkout"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	RedisAddress     string        `yaml:"addressredis"`
	RedisPassword    string        `yaml:"password" env:"REDIS_PASSWORD"`
	RedisUser        string        `yaml:"user"`
	RedisDB          int           `yaml:"db"`
	RedisMaxRetries  int           `yaml:"max_retries"`
	RedisDialTimeout time.Duration `yaml:"dial_timeout"`
	RedisTimeout     time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// RabbitMQ настройки подключения к брокеру.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// SMTP настройки почтового сервера.
type SMTP struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env-default:"587"`
	User string `yaml:"user"`
	Pass string `yaml:"pass" env:"SMTP_PASS"`
}

// PaymentGateway настройки шлюза мобильных платежей.
//
// ClientID и ClientSecret обычно приходят из окружения. Их отсутствие не
// мешает старту сервиса, но каждая попытка оплаты завершится ошибкой конфигурации.
type PaymentGateway struct {
	BaseURL         string        `yaml:"base_url" env-default:"https://e2payments.explicador.co.mz"`
	TokenPath       string        `yaml:"token_path" env-default:"/oauth/token"`
	ClientID        string        `yaml:"client_id" env:"E2P_CLIENT_ID"`
	ClientSecret    string        `yaml:"client_secret" env:"E2P_CLIENT_SECRET"`
	MpesaWallet     string        `yaml:"mpesa_wallet" env-default:"999813"`
	EmolaWallet     string        `yaml:"emola_wallet" env-default:"999814"`
	SuccessTerm     string        `yaml:"success_term" env-default:"sucesso"`
	ReferencePrefix string        `yaml:"reference_prefix" env-default:"mg"`
	Timeout         time.Duration `yaml:"timeout" env-default:"60s"`
}

// Configured сообщает, заданы ли учётные данные шлюза.
func (g PaymentGateway) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Pricing цены тарифов в метикалах.
type Pricing struct {
	Monthly  string `yaml:"monthly" env-default:"99"`
	Lifetime string `yaml:"lifetime" env-default:"299"`
	Currency string `yaml:"currency" env-default:"MZN"`
}

// MonthlyAmount возвращает цену месячного тарифа.
func (p Pricing) MonthlyAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(p.Monthly)
}

// LifetimeAmount возвращает цену пожизненного тарифа.
func (p Pricing) LifetimeAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(p.Lifetime)
}

// Trial настройки пробного периода и напоминаний о его окончании.
type Trial struct {
	LengthDays       int           `yaml:"length_days" env-default:"30"`
	ReminderDays     int           `yaml:"reminder_days" env-default:"3"`
	ReminderInterval time.Duration `yaml:"reminder_interval" env-default:"24h"`
}

// Checkout настройки процесса оплаты.
type Checkout struct {
	LockTTL         time.Duration `yaml:"lock_ttl" env-default:"2m"`
	ProfileCacheTTL time.Duration `yaml:"profile_cache_ttl" env-default:"30s"`
	RateLimit       float64       `yaml:"rate_limit" env-default:"0.2"`
	RateBurst       int           `yaml:"rate_burst" env-default:"2"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.go
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func mask(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	return "***"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"GRPCAuthAddress: %s\n"+
			"StorageConnectionString: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"PaymentGateway:\n"+
			"  BaseURL: %s\n"+
			"  ClientID: %s\n"+
			"  ClientSecret: %s\n"+
			"Pricing:\n"+
			"  Monthly: %s %s\n"+
			"  Lifetime: %s %s\n",
		c.Env,
		c.GRPCAuthAddress,
		mask(c.StorageConnectionString),
		c.RedisAddress,
		mask(c.RedisPassword),
		c.RedisDB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		mask(c.JWTSecretKey),
		c.TokenTTL,
		c.PaymentGateway.BaseURL,
		mask(c.PaymentGateway.ClientID),
		mask(c.PaymentGateway.ClientSecret),
		c.Pricing.Monthly, c.Pricing.Currency,
		c.Pricing.Lifetime, c.Pricing.Currency,
	)
}
