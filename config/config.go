// Ininicializing common application configuration
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Event     EventConfig     `mapstructure:"event"`
	Tags      TagsConfig      `mapstructure:"tags"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Reminder  ReminderConfig  `mapstructure:"reminder"`
}

type ServerConfig struct {
	AppVersion   string `json:"appVersion"`
	Host         string `json:"host" validate:"required"`
	Port         string `json:"port" validate:"required"`
	Timeout      time.Duration
	Idle_timeout time.Duration
	Env          string `json:"environment"`
	Mode         string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL      string `json:"URL"`
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port" validate:"required"`
	Password string `json:"password" validate:"required"`
	DB       int    `json:"db" validate:"required"`

	MaxRetries   int
	PoolSize     int
	MinIdleConns int
	MaxIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	Enabled  bool   `mapstructure:"enabled"`
}

type EmbeddingConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
	Enabled bool          `mapstructure:"enabled"`
}

type EventConfig struct {
	// DefaultDuration bounds events that have no end time: once started they
	// complete after this duration. Zero keeps them ongoing indefinitely.
	DefaultDuration time.Duration `mapstructure:"default_duration"`
}

type TagsConfig struct {
	Limit int `mapstructure:"limit"`
}

type WorkerConfig struct {
	BackfillInterval time.Duration `mapstructure:"backfill_interval"`
	BatchSize        int           `mapstructure:"batch_size"`
}

type ReminderConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	LeadWindow    time.Duration `mapstructure:"lead_window"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Fatalf("unable to decode config into struct, %v", err)
		return nil, err
	}
	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
