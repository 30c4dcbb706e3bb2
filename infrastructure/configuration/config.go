package configuration

import (
	"fmt"
	"os"
	"strconv"

	"my-publisher/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Vault       Vault       `json:"vault"`
	OAuth       OAuth       `json:"oauth"`
	Publish     Publish     `json:"publish"`
	Scheduler   Scheduler   `json:"scheduler"`
	Webhook     Webhook     `json:"webhook"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

// Vault configures the credential encryption primitive. The key is a
// base64-encoded 32-byte value.
type Vault struct {
	Key string `json:"key"`
}

// OAuth holds third-party platform OAuth client credentials, one block
// per supported network.
type OAuth struct {
	Facebook  OAuthClient `json:"facebook"`
	Instagram OAuthClient `json:"instagram"`
	Twitter   OAuthClient `json:"twitter"`
	LinkedIn  OAuthClient `json:"linkedin"`
	TikTok    OAuthClient `json:"tiktok"`
	YouTube   OAuthClient `json:"youtube"`
	Pinterest OAuthClient `json:"pinterest"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

// Publish tunes the coordinator fan-out.
type Publish struct {
	Platforms          []string `json:"platforms"`
	MaxParallel        int      `json:"maxParallel"`
	DispatchDelayMs    int      `json:"dispatchDelayMs"`
	AdapterTimeoutSec  int      `json:"adapterTimeoutSec"`
	DefaultPostsPerHour int     `json:"defaultPostsPerHour"`
	DefaultPostsPerDay  int     `json:"defaultPostsPerDay"`
}

// Scheduler tunes the due-post sweep.
type Scheduler struct {
	SweepIntervalSec   int `json:"sweepIntervalSec"`
	ClaimTimeoutMin    int `json:"claimTimeoutMin"`
	BatchSize          int `json:"batchSize"`
}

// Webhook holds per-platform shared secrets for signature verification.
type Webhook struct {
	Secrets map[string]string `json:"secrets"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initPublish(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}

	// Optional MSSQL config via environment variables (Azure SQL in production)
	if v := os.Getenv("MSSQL_DB_NAME"); v != "" && C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = v
	}
	if v := os.Getenv("MSSQL_HOST"); v != "" && C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = v
	}
	if v := os.Getenv("MSSQL_USER"); v != "" && C.Database.Mssql.User == "" {
		C.Database.Mssql.User = v
	}
	if v := os.Getenv("MSSQL_PASSWORD"); v != "" && C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = v
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = "1433"
	}
}

func initApp(C *Config) {
	// SECRET_KEY from environment overrides the config file when provided
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("VAULT_KEY"); v != "" {
		C.Vault.Key = v
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initPublish(C *Config) {
	if len(C.Publish.Platforms) == 0 {
		C.Publish.Platforms = []string{"facebook", "instagram", "twitter", "linkedin", "tiktok", "youtube", "pinterest"}
	}
	if C.Publish.MaxParallel == 0 {
		C.Publish.MaxParallel = 4
	}
	if C.Publish.DispatchDelayMs == 0 {
		// Several networks apply abuse heuristics to bursts of
		// near-simultaneous calls from one credential set.
		C.Publish.DispatchDelayMs = 1000
	}
	if C.Publish.AdapterTimeoutSec == 0 {
		C.Publish.AdapterTimeoutSec = 30
	}
	if C.Publish.DefaultPostsPerHour == 0 {
		C.Publish.DefaultPostsPerHour = 10
	}
	if C.Publish.DefaultPostsPerDay == 0 {
		C.Publish.DefaultPostsPerDay = 50
	}
	if C.Scheduler.SweepIntervalSec == 0 {
		C.Scheduler.SweepIntervalSec = 60
	}
	if C.Scheduler.ClaimTimeoutMin == 0 {
		C.Scheduler.ClaimTimeoutMin = 10
	}
	if C.Scheduler.BatchSize == 0 {
		C.Scheduler.BatchSize = 20
	}
}
