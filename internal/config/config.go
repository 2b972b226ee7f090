package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Mail  MailConfig
	Auth  AuthConfig
}

type AppConfig struct {
	Port    string
	BaseURL string // база для share-ссылок, например https://profiler.example.com
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host string
	Port string
}

type MailConfig struct {
	SendGridKey   string
	FromEmail     string
	OperatorEmail string // получатель отчётов о прямых (неатрибутированных) визитах
	Simulate      bool   // вместо отправки писать письмо в лог
}

type AuthConfig struct {
	JWTSecret     string
	AdminUsername string // начальный администратор, создаётся при старте если задан
	AdminPassword string
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	cfg.App.Port = viper.GetString("APP_PORT")
	cfg.App.BaseURL = strings.TrimRight(viper.GetString("APP_BASE_URL"), "/")
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://localhost:" + cfg.App.Port
	}

	cfg.DB.Host = viper.GetString("DB_HOST")
	cfg.DB.Port = viper.GetString("DB_PORT")
	cfg.DB.User = viper.GetString("DB_USER")
	cfg.DB.Password = viper.GetString("DB_PASSWORD")
	cfg.DB.Name = viper.GetString("DB_NAME")
	cfg.Redis.Host = viper.GetString("REDIS_HOST")
	cfg.Redis.Port = viper.GetString("REDIS_PORT")

	cfg.Mail.SendGridKey = viper.GetString("SENDGRID_API_KEY")
	cfg.Mail.FromEmail = viper.GetString("MAIL_FROM")
	if cfg.Mail.FromEmail == "" {
		cfg.Mail.FromEmail = "alerts@ip-profiler.local"
	}
	cfg.Mail.OperatorEmail = viper.GetString("MAIL_OPERATOR")
	cfg.Mail.Simulate = viper.GetBool("MAIL_SIMULATE")
	// Без API ключа доставка невозможна, переходим в режим симуляции
	if cfg.Mail.SendGridKey == "" {
		cfg.Mail.Simulate = true
	}

	cfg.Auth.JWTSecret = viper.GetString("JWT_SECRET")
	cfg.Auth.AdminUsername = viper.GetString("ADMIN_USERNAME")
	cfg.Auth.AdminPassword = viper.GetString("ADMIN_PASSWORD")

	return &cfg, nil
}
