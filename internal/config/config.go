package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider identifies an embedding or reasoning backend.
type Provider string

const (
	ProviderHash      Provider = "hash"
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderNone      Provider = "none"
)

// GraphBackend identifies which graph store holds entity projections.
type GraphBackend string

const (
	GraphNeo4j    GraphBackend = "neo4j"
	GraphSurreal  GraphBackend = "surrealdb"
	GraphInMemory GraphBackend = "memory"
)

// Config holds all configuration values.
type Config struct {
	// Postgres record store
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	// Graph store
	GraphBackend  GraphBackend
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Embedding
	EmbedProvider  Provider
	EmbedModel     string
	EmbedDimension int
	OllamaHost     string

	// External reasoning (optional, app works without it)
	LLMProvider     Provider
	LLMModel        string
	LLMTemperature  float64
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Boundary
	ServerPort string
	ListLimit  int
	SearchK    int
}

// Load reads an optional .env file and then configuration from environment variables.
func Load() Config {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	return Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "secure_entity_scanner"),

		GraphBackend:  GraphBackend(strings.ToLower(getEnv("GRAPH_BACKEND", string(GraphNeo4j)))),
		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", "neo4j"),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "scanner"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "graph"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		EmbedProvider:  Provider(strings.ToLower(getEnv("EMBED_PROVIDER", string(ProviderHash)))),
		EmbedModel:     getEnv("EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: getEnvInt("EMBED_DIMENSION", 384),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),

		LLMProvider:     Provider(strings.ToLower(getEnv("LLM_PROVIDER", string(ProviderOpenAI)))),
		LLMModel:        getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature:  getEnvFloat("LLM_TEMPERATURE", 0.3),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		LogFile:  getEnv("SCANNER_LOG_FILE", "/tmp/entity-scanner.log"),
		LogLevel: parseLogLevel(getEnv("SCANNER_LOG_LEVEL", "INFO")),

		ServerPort: getEnv("SCANNER_SERVER_PORT", "8000"),
		ListLimit:  getEnvInt("SCANNER_LIST_LIMIT", 50),
		SearchK:    getEnvInt("SCANNER_SEARCH_K", 5),
	}
}

// PostgresDSN returns the connection string for pgxpool.
func (c Config) PostgresDSN() string {
	return c.postgresURL("postgres")
}

// MigrateURL returns the connection string for golang-migrate's pgx/v5 driver.
func (c Config) MigrateURL() string {
	return c.postgresURL("pgx5")
}

func (c Config) postgresURL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     net.JoinHostPort(c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// String renders the config for startup logs with secrets masked.
func (c Config) String() string {
	return fmt.Sprintf("postgres=%s:%s/%s graph=%s embed=%s/%s llm=%s/%s",
		c.PostgresHost, c.PostgresPort, c.PostgresDB,
		c.GraphBackend, c.EmbedProvider, c.EmbedModel,
		c.LLMProvider, c.LLMModel)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
