package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"babyshop/models"
)

var (
	DB        *gorm.DB
	Redis     *redis.Client
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type OAuthConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
}

type Config struct {
	Environment string `json:"environment"`
	ServerPort  string `json:"server_port"`
	// APIBaseURL is the remote REST API holding categories and blogs
	APIBaseURL string `json:"api_base_url"`
	// DemoAPI serves an in-memory copy of that API from this process
	DemoAPI bool `json:"demo_api"`

	SessionSecret string        `json:"-"`
	SessionTTL    time.Duration `json:"session_ttl"`

	DBEnabled      bool   `json:"db_enabled"`
	DBDriver       string `json:"db_driver"` // postgres or sqlite
	DBPath         string `json:"db_path"`
	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`
	SeedDemo       bool   `json:"seed_demo"`

	Redis RedisConfig `json:"redis"`

	FirebaseAPIKey  string      `json:"-"`
	IdentityBaseURL string      `json:"identity_base_url"`
	Google          OAuthConfig `json:"google"`

	ImgbbKey string `json:"-"`
	ImgbbURL string `json:"imgbb_url"`

	SentryDSN   string `json:"-"`
	CORSOrigins string `json:"cors_origins"`

	ToastTimeout        time.Duration `json:"toast_timeout"`
	PageSize            int           `json:"page_size"`
	BlogPageSize        int           `json:"blog_page_size"`
	LoginRateLimit      int           `json:"login_rate_limit"`
	DashboardIdleTTL    time.Duration `json:"dashboard_idle_ttl"`
	ProductPollInterval time.Duration `json:"product_poll_interval"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "5000"),
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:5080"),
		DemoAPI:     getEnvAsBool("DEMO_API", false),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),

		DBEnabled:      getEnvAsBool("DB_ENABLED", true),
		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBPath:         getEnv("DB_PATH", "babyshop.db"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "babyshop"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
		SeedDemo:       getEnvAsBool("SEED_DEMO", false),

		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		FirebaseAPIKey:  getEnv("FIREBASE_API_KEY", ""),
		IdentityBaseURL: getEnv("IDENTITY_BASE_URL", "https://identitytoolkit.googleapis.com"),
		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		},

		ImgbbKey: getEnv("IMGBB_KEY", ""),
		ImgbbURL: getEnv("IMGBB_URL", "https://api.imgbb.com/1/upload"),

		SentryDSN:   getEnv("SENTRY_DSN", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),

		ToastTimeout:        getEnvAsDuration("TOAST_TIMEOUT", 2500*time.Millisecond),
		PageSize:            getEnvAsInt("PAGE_SIZE", 10),
		BlogPageSize:        getEnvAsInt("BLOG_PAGE_SIZE", 25),
		LoginRateLimit:      getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		DashboardIdleTTL:    getEnvAsDuration("DASHBOARD_IDLE_TTL", 30*time.Minute),
		ProductPollInterval: getEnvAsDuration("PRODUCT_POLL_INTERVAL", 5*time.Second),
	}

	// Validate required configurations
	if AppConfig.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if AppConfig.DBDriver != "postgres" && AppConfig.DBDriver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", AppConfig.DBDriver)
	}
	if AppConfig.DBEnabled && AppConfig.DBDriver == "postgres" && AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required when DB_ENABLED is set")
	}
	if AppConfig.Environment == "production" {
		if AppConfig.FirebaseAPIKey == "" {
			return fmt.Errorf("FIREBASE_API_KEY is required in production")
		}
		if AppConfig.ImgbbKey == "" {
			return fmt.Errorf("IMGBB_KEY is required in production")
		}
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	logrus.Info("Attempting to connect to database...")

	var dialector gorm.Dialector
	if AppConfig.DBDriver == "sqlite" {
		logrus.WithField("path", AppConfig.DBPath).Info("Using SQLite database")
		dialector = sqlite.Open(AppConfig.DBPath)
	} else {
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			AppConfig.DBHost,
			AppConfig.DBPort,
			AppConfig.DBUser,
			AppConfig.DBPassword,
			AppConfig.DBName,
			AppConfig.DBSSLMode,
		)
		logrus.WithField("dsn", maskPassword(dsn)).Info("Using connection string")
		dialector = postgres.Open(dsn)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	if AppConfig.DBDriver == "sqlite" {
		// SQLite allows one writer
		sqlDB.SetMaxOpenConns(1)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logrus.Info("✅ Successfully connected to the database")
	if err := MigrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logrus.Info("✅ Database migration completed")
	return nil
}

// MigrateDB creates or updates the tables the dashboard owns.
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

// ConnectRedis opens the shared Redis client when enabled. A nil client means
// in-process storage is used instead.
func ConnectRedis(ctx context.Context) error {
	if !AppConfig.Redis.Enabled {
		logrus.Info("Redis disabled, using in-memory storage")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     AppConfig.Redis.Address,
		Password: AppConfig.Redis.Password,
		DB:       AppConfig.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}
	Redis = client
	logrus.WithField("address", AppConfig.Redis.Address).Info("✅ Connected to Redis")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		logrus.Warnf("Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

// getEnvAsDuration accepts Go durations ("2.5s") or plain milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	logrus.WithFields(logrus.Fields{
		"environment": AppConfig.Environment,
		"port":        AppConfig.ServerPort,
		"api":         AppConfig.APIBaseURL,
		"demo_api":    AppConfig.DemoAPI,
		"db_driver":   AppConfig.DBDriver,
		"database":    fmt.Sprintf("%s@%s:%s/%s", AppConfig.DBUser, AppConfig.DBHost, AppConfig.DBPort, AppConfig.DBName),
		"redis":       AppConfig.Redis.Enabled,
		"google":      AppConfig.Google.ClientID != "",
		"imgbb":       AppConfig.ImgbbKey != "",
	}).Info("🔧 Loaded configuration")
}
