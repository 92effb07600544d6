package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	QA        QAConfig        `mapstructure:"qa"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Debug     bool            `mapstructure:"debug"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	ChatModel      string  `mapstructure:"chat_model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
}

type QAConfig struct {
	DocumentsDir          string  `mapstructure:"documents_dir"`
	CacheDir              string  `mapstructure:"cache_dir"`
	TopK                  int     `mapstructure:"top_k"`
	QualityThreshold      float64 `mapstructure:"quality_threshold"`
	ChunkSize             int     `mapstructure:"chunk_size"`
	ChunkOverlap          int     `mapstructure:"chunk_overlap"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds"`
}

type AnalyticsConfig struct {
	Address         string `mapstructure:"address"`
	Password        string `mapstructure:"password"`
	JWTSecret       string `mapstructure:"jwt_secret"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("openai.chat_model", "gpt-3.5-turbo")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("qa.documents_dir", "data/documents")
	v.SetDefault("qa.cache_dir", "data/embeddings")
	v.SetDefault("qa.top_k", 3)
	v.SetDefault("qa.quality_threshold", 0.6)
	v.SetDefault("qa.chunk_size", 1000)
	v.SetDefault("qa.chunk_overlap", 200)
	v.SetDefault("qa.request_timeout_seconds", 30)
	v.SetDefault("analytics.address", ":8090")
	v.SetDefault("analytics.token_ttl_minutes", 60)
	v.SetDefault("debug", false)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	// Get other environment variables
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	if password := v.GetString("ANALYTICS_PASSWORD"); password != "" {
		config.Analytics.Password = password
	}

	if secret := v.GetString("ANALYTICS_JWT_SECRET"); secret != "" {
		config.Analytics.JWTSecret = secret
	}

	return &config, nil
}
