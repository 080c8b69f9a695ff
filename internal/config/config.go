package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	LLMAPIKey  string `env:"LLM_API_KEY,required"`
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"gpt-5.1"`

	// Manifiestos y taxonomy cargados al arrancar, solo lectura.
	TraitsManifestPath       string `env:"TRAITS_MANIFEST_PATH" envDefault:"manifests/traits.json"`
	ProbesManifestPath       string `env:"PROBES_MANIFEST_PATH" envDefault:"manifests/probes.json"`
	EnhancementsManifestPath string `env:"ENHANCEMENTS_MANIFEST_PATH" envDefault:"manifests/enhancements.json"`
	FieldsOfStudyPath        string `env:"FIELDS_OF_STUDY_PATH" envDefault:"resources/field_of_study.txt"`

	// Umbral para considerar un rasgo consolidado.
	ConfidenceThreshold float64 `env:"CONFIDENCE_THRESHOLD" envDefault:"0.8"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Límite de turnos de chat por usuario por minuto (requiere redis).
	ChatRateLimitPerMinute int `env:"CHAT_RATE_LIMIT_PER_MINUTE" envDefault:"20"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
