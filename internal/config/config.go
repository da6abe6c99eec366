// Package config предоставляет структуры и функции для загрузки конфигурации сервисов NESI.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек всех бинарников.
type Config struct {
	Env                     string `yaml:"env" env:"NESI_ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"NESI_STORAGE_DSN"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Telegram                `yaml:"telegram"`
	CategoryCache           `yaml:"category_cache"`
	Eligibility             `yaml:"eligibility"`
	RateLimit               `yaml:"rate_limit"`
	Digest                  `yaml:"digest"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"NESI_REDIS_ADDR"`
	Password     string        `yaml:"password" env:"NESI_REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"NESI_JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ настройки брокера событий уведомлений.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"NESI_RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// SMTP настройки почтового транспорта.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"NESI_SMTP_HOST"`
	SMTPPort string `yaml:"port" env-default:"587"`
	SMTPUser string `yaml:"user" env:"NESI_SMTP_USER"`
	SMTPPass string `yaml:"password" env:"NESI_SMTP_PASSWORD"`
}

// Telegram настройки бота доставки. Пустой токен отключает канал.
type Telegram struct {
	TelegramToken string `yaml:"token" env:"NESI_TELEGRAM_TOKEN"`
}

// CategoryCache настройки кеша категорий.
type CategoryCache struct {
	CategoryCacheTTL time.Duration `yaml:"ttl" env-default:"10m"`
}

// Eligibility лимиты одновременных задач исполнителя по уровням.
type Eligibility struct {
	LevelLimits      map[int]int `yaml:"level_limits"`
	DefaultTaskLimit int         `yaml:"default_limit" env-default:"1"`
}

// RateLimit настройки ограничителя запросов к защищённым маршрутам.
type RateLimit struct {
	RateLimitRPS   float64 `yaml:"rps" env-default:"10"`
	RateLimitBurst int     `yaml:"burst" env-default:"20"`
}

// Digest настройки рассылки дайджестов непрочитанных уведомлений.
type Digest struct {
	DigestSchedule string        `yaml:"schedule" env-default:"0 9 * * *"`
	DigestMinAge   time.Duration `yaml:"min_age" env-default:"24h"`
}

// Load читает конфиг из файла path, переменные окружения имеют приоритет.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// IsProd сообщает, запущен ли сервис в боевом окружении.
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  MaxRetries: %d\n"+
			"CategoryCache:\n"+
			"  TTL: %s\n"+
			"Eligibility:\n"+
			"  DefaultLimit: %d\n"+
			"  Levels: %v\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.AddressRedis,
		c.DB,
		c.RabbitMQMaxRetries,
		c.CategoryCacheTTL,
		c.DefaultTaskLimit,
		c.LevelLimits,
	)
}
