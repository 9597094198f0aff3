package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	MongoURI       string
	MongoDB        string
	RedisURI       string
	Port           string
	JWTSecret      string
	LogLevel       string
	LogPretty      bool
	WordServiceURL string
	Store          string // mongo | memory

	RoomTTL   time.Duration
	InviteTTL time.Duration

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads .env (if present) and then the process environment
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "wordrooms"),
		RedisURI:       getEnv("REDIS_URI", ""),
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getBool("LOG_PRETTY", false),
		WordServiceURL: getEnv("WORD_SERVICE_URL", ""),
		Store:          strings.ToLower(getEnv("STORE", "mongo")),

		RoomTTL:   getDuration("ROOM_TTL", 2*time.Hour),
		InviteTTL: getDuration("INVITE_TTL", 15*time.Minute),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		RateLimitRPS:       getFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 5),
	}
}

// RedisAddr strips an optional redis:// scheme
func (c *Config) RedisAddr() string {
	return strings.TrimPrefix(c.RedisURI, "redis://")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Dur("default", defaultVal).Msg("invalid duration, using default")
		return defaultVal
	}
	return d
}

func getInt(key string, defaultVal int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid integer, using default")
		return defaultVal
	}
	return n
}

func getFloat(key string, defaultVal float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid number, using default")
		return defaultVal
	}
	return f
}

func getBool(key string, defaultVal bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultVal
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
