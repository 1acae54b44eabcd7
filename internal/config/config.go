package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config はアプリケーション設定を表す
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Booking  BookingConfig
	Transfer TransferConfig
	Audit    AuditConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MigrationsPath string
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Enabled が false の場合はスナップショットキャッシュを使わない
	Enabled     bool
	SnapshotTTL time.Duration
}

// BookingConfig は座席予約デモの設定
type BookingConfig struct {
	SeatID string
	// ProcessingDelay は reserving 状態のまま待機する時間（デモ用、本番は0）
	ProcessingDelay time.Duration
	// TxTimeout は開いたままのトランザクションの上限（0は無制限）
	TxTimeout time.Duration
}

// TransferConfig は固定送金の設定
type TransferConfig struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// AuditConfig は不変条件監査ワーカーの設定
type AuditConfig struct {
	// Interval が0の場合は監査を行わない
	Interval time.Duration
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "isolation_demo"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getIntEnv("REDIS_DB", 0),
			Enabled:     getBoolEnv("REDIS_ENABLED", true),
			SnapshotTTL: getDurationEnv("SNAPSHOT_CACHE_TTL", time.Second),
		},
		Booking: BookingConfig{
			SeatID:          getEnv("BOOKING_SEAT_ID", "A1"),
			ProcessingDelay: getDurationEnv("BOOKING_PROCESSING_DELAY", 0),
			TxTimeout:       getDurationEnv("BOOKING_TX_TIMEOUT", 30*time.Second),
		},
		Transfer: TransferConfig{
			From:   getEnv("TRANSFER_FROM", "Virat"),
			To:     getEnv("TRANSFER_TO", "Rohit"),
			Amount: getDecimalEnv("TRANSFER_AMOUNT", decimal.NewFromInt(100)),
		},
		Audit: AuditConfig{
			Interval: getDurationEnv("AUDIT_INTERVAL", 0),
		},
	}

	// Railway / Heroku 形式の URL が与えられた場合は個別設定より優先する
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		applyDatabaseURL(&cfg.Database, raw)
	}
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		applyRedisURL(&cfg.Redis, raw)
	}

	return cfg
}

// LoadDotEnv は .env ファイルがあれば環境変数に読み込む
// ファイルが無いのは正常（コンテナ環境など）なので false を返すだけ
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// IsProduction は本番環境かを返す
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Accounts は固定送金に関わる口座IDを返す
func (c *TransferConfig) Accounts() []string {
	return []string{c.From, c.To}
}

func applyDatabaseURL(db *DatabaseConfig, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	db.Host = u.Hostname()
	if p := u.Port(); p != "" {
		db.Port = p
	}
	if u.User != nil {
		db.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			db.Password = pw
		}
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		db.DBName = name
	}
	// マネージドDBはTLS前提なので未指定なら require
	db.SSLMode = "require"
	if mode := u.Query().Get("sslmode"); mode != "" {
		db.SSLMode = mode
	}
}

func applyRedisURL(r *RedisConfig, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	r.Host = u.Hostname()
	if p := u.Port(); p != "" {
		r.Port = p
	}
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			r.Password = pw
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getDecimalEnv(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
