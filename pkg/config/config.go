package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable read by the service.
	EnvPrefix = "retailgenie"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	Recommender   RecommenderConfig
	Sessions      SessionsConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Location      LocationConfig
	Data          DataConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETAILGENIE_APP_ENV" default:"dev"`
	Port         string `envconfig:"RETAILGENIE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RETAILGENIE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETAILGENIE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RecommenderConfig struct {
	URL          string        `envconfig:"RETAILGENIE_RECOMMENDER_URL" default:"http://localhost:8000"`
	Timeout      time.Duration `envconfig:"RETAILGENIE_RECOMMENDER_TIMEOUT" default:"10s"`
	DefaultLimit int           `envconfig:"RETAILGENIE_RECOMMENDER_DEFAULT_LIMIT" default:"6"`
}

type SessionsConfig struct {
	// Backend selects the session repository: "memory" or "redis".
	Backend      string        `envconfig:"RETAILGENIE_SESSIONS_BACKEND" default:"memory"`
	TTL          time.Duration `envconfig:"RETAILGENIE_SESSIONS_TTL" default:"24h"`
	HistoryLimit int           `envconfig:"RETAILGENIE_SESSIONS_HISTORY_LIMIT" default:"200"`
}

func (s SessionsConfig) UseRedis() bool {
	return strings.EqualFold(s.Backend, "redis")
}

type RedisConfig struct {
	URL          string        `envconfig:"RETAILGENIE_REDIS_URL"`
	Address      string        `envconfig:"RETAILGENIE_REDIS_ADDR"`
	Password     string        `envconfig:"RETAILGENIE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETAILGENIE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETAILGENIE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETAILGENIE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETAILGENIE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETAILGENIE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETAILGENIE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"RETAILGENIE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"RETAILGENIE_JWT_ISSUER" default:"retailgenie"`
	ExpirationMinutes      int    `envconfig:"RETAILGENIE_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"RETAILGENIE_REFRESH_TOKEN_TTL_MINUTES" default:"1440"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RETAILGENIE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RETAILGENIE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RETAILGENIE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RETAILGENIE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RETAILGENIE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"RETAILGENIE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"RETAILGENIE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"RETAILGENIE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"RETAILGENIE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"RETAILGENIE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RETAILGENIE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type LocationConfig struct {
	DefaultRadiusKm float64 `envconfig:"RETAILGENIE_LOCATION_DEFAULT_RADIUS_KM" default:"15"`
}

type DataConfig struct {
	Dir           string `envconfig:"RETAILGENIE_DATA_DIR" default:"data"`
	InventoryFile string `envconfig:"RETAILGENIE_DATA_INVENTORY_FILE" default:"inventory.json"`
	ProductsFile  string `envconfig:"RETAILGENIE_DATA_PRODUCTS_FILE" default:"products.json"`
	UsersFile     string `envconfig:"RETAILGENIE_DATA_USERS_FILE" default:"users.json"`
	OrdersFile    string `envconfig:"RETAILGENIE_DATA_ORDERS_FILE" default:"orders.json"`
	ShipmentsFile string `envconfig:"RETAILGENIE_DATA_SHIPMENTS_FILE" default:"shipments.json"`
	FeedbackFile  string `envconfig:"RETAILGENIE_DATA_FEEDBACK_FILE" default:"feedback.json"`
}
