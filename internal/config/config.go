package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env              string        `mapstructure:"ENV"`
	Port             string        `mapstructure:"PORT"`
	AdminKey         string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed      string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB  int64         `mapstructure:"MAX_UPLOAD_MB"`
	ProgressInterval time.Duration `mapstructure:"PROGRESS_INTERVAL"`

	// Empty AIAPIKey selects the deterministic mock analyzer.
	AIAPIKey    string `mapstructure:"AI_API_KEY"`
	AIBaseURL   string `mapstructure:"AI_BASE_URL"`
	AIModel     string `mapstructure:"AI_MODEL"`
	AIMaxTokens int    `mapstructure:"AI_MAX_TOKENS"`

	// Optional sinks; both stay disabled while unset.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Export      S3Config `mapstructure:",squash"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"EXPORT_S3_ENDPOINT"`
	AccessKey string `mapstructure:"EXPORT_S3_ACCESS_KEY"`
	SecretKey string `mapstructure:"EXPORT_S3_SECRET_KEY"`
	Bucket    string `mapstructure:"EXPORT_S3_BUCKET"`
	Region    string `mapstructure:"EXPORT_S3_REGION"`
	UseSSL    bool   `mapstructure:"EXPORT_S3_USE_SSL"`
}

func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

var keys = []string{
	"ENV", "PORT", "ADMIN_KEY", "CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT", "LOG_LEVEL",
	"MAX_UPLOAD_MB", "PROGRESS_INTERVAL", "AI_API_KEY", "AI_BASE_URL", "AI_MODEL",
	"AI_MAX_TOKENS", "DATABASE_URL", "EXPORT_S3_ENDPOINT", "EXPORT_S3_ACCESS_KEY",
	"EXPORT_S3_SECRET_KEY", "EXPORT_S3_BUCKET", "EXPORT_S3_REGION", "EXPORT_S3_USE_SSL",
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	return load(".env")
}

func load(envFile string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	// AutomaticEnv only applies to keys viper already knows about.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "120s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("PROGRESS_INTERVAL", "1200ms")
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_MAX_TOKENS", 8192)
	v.SetDefault("EXPORT_S3_REGION", "us-east-1")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
