package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

// Config is the full engine configuration: YAML file first, environment
// variables on top. Secrets (API keys, JWT secret, passwords) are expected
// from the environment.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Records  RecordsConfig  `yaml:"records"`
	Store    StoreConfig    `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Query    QueryConfig    `yaml:"query"`
	Auth     AuthConfig     `yaml:"auth"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Version        string   `yaml:"version"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

type RecordsConfig struct {
	// Dir holds the extraction drop: one JSON file per knowledge bucket.
	Dir string `yaml:"dir"`
}

type StoreConfig struct {
	// Backend selects generation persistence: "file" or "postgres".
	Backend string `yaml:"backend"`

	// Dir is the file backend's directory.
	Dir string `yaml:"dir"`

	// IndexDir persists the vector index; empty keeps it in memory.
	IndexDir string `yaml:"index_dir"`
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"` // empty disables Redis
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	Embedding  domain.EmbeddingSettings  `yaml:"embedding"`
	Generation domain.GenerationSettings `yaml:"generation"`
}

type PipelineConfig struct {
	FailurePolicy  string            `yaml:"failure_policy"` // exclude, abort
	EmbedBatchSize int               `yaml:"embed_batch_size"`
	LockTTL        time.Duration     `yaml:"lock_ttl"`
	Topics         map[string]string `yaml:"topics"`
}

type QueryConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"`
}

type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
}

type WorkerConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	RunOnStart bool          `yaml:"run_on_start"`
}

// DefaultTopics are the knowledge buckets of the syllabus corpus with the
// representative descriptions used for topic routing.
func DefaultTopics() map[string]string {
	return map[string]string{
		"acerca_de":                    "Información general sobre la Licenciatura en Matemáticas Aplicadas y Computación (MAC) de la FES Acatlán: qué es la carrera, misión, visión, objetivos, detalles de contacto general y recursos disponibles para la comunidad estudiantil y aspirantes.",
		"convocatorias_eventos_avisos": "Anuncios, noticias, comunicados importantes, convocatorias (becas, procesos de inscripción, servicio social), detalles sobre eventos académicos (seminarios, conferencias, talleres, cursos) y fechas relevantes para la comunidad de la Licenciatura MAC.",
		"plan_de_estudios":             "Estructura curricular y académica detallada de la Licenciatura MAC: descripción del plan de estudios, listado de asignaturas por semestre, sus claves, créditos, contenidos temáticos, objetivos de aprendizaje, seriación, y la descripción de las áreas de especialización y optativas disponibles.",
		"perfiles":                     "Perfiles relacionados con la Licenciatura MAC: el perfil de ingreso esperado de los aspirantes, incluyendo conocimientos y habilidades previas recomendadas, y el perfil de egreso de los licenciados, detallando capacidades, conocimientos y aptitudes profesionales.",
		"profesores":                   "Información sobre el personal docente y académico de la Licenciatura MAC: nombres de los profesores, sus áreas de conocimiento o especialización, materias que imparten y datos de contacto como correo electrónico.",
	}
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Version:        "dev",
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Records: RecordsConfig{
			Dir: "data/records",
		},
		Store: StoreConfig{
			Backend: "file",
			Dir:     "data/store",
		},
		AI: AIConfig{
			Embedding: domain.EmbeddingSettings{
				Provider: domain.AIProviderGemini,
				Model:    "text-embedding-004",
			},
			Generation: domain.GenerationSettings{
				Provider:    domain.AIProviderGemini,
				Model:       "gemini-1.5-flash",
				Temperature: 0.2,
				MaxTokens:   1024,
			},
		},
		Pipeline: PipelineConfig{
			FailurePolicy:  string(domain.FailurePolicyExclude),
			EmbedBatchSize: 32,
			LockTTL:        15 * time.Minute,
			Topics:         DefaultTopics(),
		},
		Query: QueryConfig{
			TopK: 8,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Worker: WorkerConfig{
			Enabled:  false,
			Interval: 24 * time.Hour,
		},
	}
}

// Load reads configuration from an optional YAML file and the environment.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	// .env is optional; plain environment variables work the same.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("MACGPT_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("MACGPT_PORT", c.Server.Port)
	c.Server.Version = getEnv("MACGPT_VERSION", c.Server.Version)

	c.Logging.Level = getEnv("MACGPT_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("MACGPT_LOG_FORMAT", c.Logging.Format)

	c.Records.Dir = getEnv("MACGPT_RECORDS_DIR", c.Records.Dir)

	c.Store.Backend = getEnv("MACGPT_STORE_BACKEND", c.Store.Backend)
	c.Store.Dir = getEnv("MACGPT_STORE_DIR", c.Store.Dir)
	c.Store.IndexDir = getEnv("MACGPT_INDEX_DIR", c.Store.IndexDir)

	c.Postgres.URL = getEnv("MACGPT_POSTGRES_URL", c.Postgres.URL)

	c.Redis.Addr = getEnv("MACGPT_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("MACGPT_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("MACGPT_REDIS_DB", c.Redis.DB)

	c.AI.Embedding.Provider = domain.AIProvider(getEnv("MACGPT_EMBEDDING_PROVIDER", string(c.AI.Embedding.Provider)))
	c.AI.Embedding.APIKey = getEnv("MACGPT_EMBEDDING_API_KEY", c.AI.Embedding.APIKey)
	c.AI.Embedding.Model = getEnv("MACGPT_EMBEDDING_MODEL", c.AI.Embedding.Model)
	c.AI.Embedding.BaseURL = getEnv("MACGPT_EMBEDDING_BASE_URL", c.AI.Embedding.BaseURL)

	c.AI.Generation.Provider = domain.AIProvider(getEnv("MACGPT_GENERATION_PROVIDER", string(c.AI.Generation.Provider)))
	c.AI.Generation.APIKey = getEnv("MACGPT_GENERATION_API_KEY", c.AI.Generation.APIKey)
	c.AI.Generation.Model = getEnv("MACGPT_GENERATION_MODEL", c.AI.Generation.Model)
	c.AI.Generation.BaseURL = getEnv("MACGPT_GENERATION_BASE_URL", c.AI.Generation.BaseURL)

	// A Gemini deployment typically uses one key for both services.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if c.AI.Embedding.Provider == domain.AIProviderGemini && c.AI.Embedding.APIKey == "" {
			c.AI.Embedding.APIKey = key
		}
		if c.AI.Generation.Provider == domain.AIProviderGemini && c.AI.Generation.APIKey == "" {
			c.AI.Generation.APIKey = key
		}
	}

	c.Pipeline.FailurePolicy = getEnv("MACGPT_FAILURE_POLICY", c.Pipeline.FailurePolicy)
	c.Pipeline.EmbedBatchSize = getEnvInt("MACGPT_EMBED_BATCH_SIZE", c.Pipeline.EmbedBatchSize)

	c.Query.TopK = getEnvInt("MACGPT_TOP_K", c.Query.TopK)
	c.Query.MinScore = getEnvFloat("MACGPT_MIN_SCORE", c.Query.MinScore)

	c.Auth.JWTSecret = getEnv("MACGPT_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.AdminPasswordHash = getEnv("MACGPT_ADMIN_PASSWORD_HASH", c.Auth.AdminPasswordHash)

	if v := os.Getenv("MACGPT_WORKER_ENABLED"); v != "" {
		c.Worker.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("MACGPT_WORKER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Worker.Interval = d
		}
	}
}

// Validate rejects configurations that cannot possibly run.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", domain.ErrInvalidInput, c.Server.Port)
	}

	switch c.Store.Backend {
	case "file", "postgres":
	default:
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, c.Store.Backend)
	}
	if c.Store.Backend == "postgres" && c.Postgres.URL == "" {
		return fmt.Errorf("%w: postgres backend needs a connection URL", domain.ErrInvalidInput)
	}

	switch domain.FailurePolicy(c.Pipeline.FailurePolicy) {
	case domain.FailurePolicyExclude, domain.FailurePolicyAbort:
	default:
		return fmt.Errorf("%w: unknown failure policy %q", domain.ErrInvalidInput, c.Pipeline.FailurePolicy)
	}

	if c.Query.TopK < 1 {
		return fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidInput)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
