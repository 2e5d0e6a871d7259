package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var config = viper.New()

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	Server     struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	TLS struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Otel struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"OTEL"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		Metrics        bool   `mapstructure:"METRICS"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Amqp struct {
		URL      string `mapstructure:"URL"`
		Exchange string `mapstructure:"EXCHANGE"`
	} `mapstructure:"AMQP"`
	Scraper struct {
		BaseURL    string        `mapstructure:"BASE_URL"`
		APIKey     string        `mapstructure:"API_KEY"`
		Timeout    time.Duration `mapstructure:"TIMEOUT"`
		RetryCount int           `mapstructure:"RETRY_COUNT"`
	} `mapstructure:"SCRAPER"`
	Tracking struct {
		RunItemLimit    int           `mapstructure:"RUN_ITEM_LIMIT"`
		BatchSize       int           `mapstructure:"BATCH_SIZE"`
		BatchPause      time.Duration `mapstructure:"BATCH_PAUSE"`
		PerItemCapRatio float64       `mapstructure:"PER_ITEM_CAP_RATIO"`
		SettleSchedule  string        `mapstructure:"SETTLE_SCHEDULE"`
		PendingSchedule string        `mapstructure:"PENDING_SCHEDULE"`
	} `mapstructure:"TRACKING"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

func setDefaults() {
	config.SetDefault("APP_ENV", "development")
	config.SetDefault("APP_NAME", "clipfuel-tracker")
	config.SetDefault("HTTP_SERVER.ADDR", "8080")
	config.SetDefault("DATABASE.TYPE", "postgres")
	config.SetDefault("REDIS.ADDR", "127.0.0.1:6379")
	config.SetDefault("AMQP.EXCHANGE", "clipfuel.events")
	config.SetDefault("SCRAPER.TIMEOUT", 30*time.Second)
	config.SetDefault("SCRAPER.RETRY_COUNT", 2)
	config.SetDefault("TRACKING.RUN_ITEM_LIMIT", 200)
	config.SetDefault("TRACKING.BATCH_SIZE", 5)
	config.SetDefault("TRACKING.BATCH_PAUSE", 5*time.Second)
	config.SetDefault("TRACKING.PER_ITEM_CAP_RATIO", 0.30)
	config.SetDefault("TRACKING.SETTLE_SCHEDULE", "@every 1h")
	config.SetDefault("TRACKING.PENDING_SCHEDULE", "@every 6h")
}

func LoadConfig() *Config {
	setDefaults()

	config.SetConfigName("config")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	if err := config.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			zap.L().Error("failed to read config file", zap.Error(err))
			os.Exit(1)
		}
	}

	var cfg Config
	if err := config.Unmarshal(&cfg); err != nil {
		zap.L().Error("failed to unmarshal config", zap.Error(err))
		os.Exit(1)
	}

	return &cfg
}
