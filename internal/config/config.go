package config

import (
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var AppEnv Config

type Config struct {
	Port        string
	Environment string

	MongoURI          string
	DBName            string
	MongoTransactions bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CartTTL       time.Duration

	JWTSecret      string
	AccessTokenTTL time.Duration

	CheckoutMode       string
	CheckoutTimeout    time.Duration
	SubmissionTokenTTL time.Duration

	KafkaBrokers     []string
	KafkaOrdersTopic string

	CORSOrigins []string
	UploadDir   string
	MaxWaiters  int
}

func Load() {
	if err := godotenv.Load(); err != nil {
		zap.L().Info(".env not loaded", zap.Error(err))
	}
	AppEnv = Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Environment:        getEnvOrDefault("APP_ENV", "development"),
		MongoURI:           getEnvOrDefault("MONGO_URI", ""),
		DBName:             getEnvOrDefault("DB_NAME", "cheffnex"),
		MongoTransactions:  getBoolEnv("MONGO_TRANSACTIONS", true),
		RedisAddr:          getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:            getIntEnv("REDIS_DB", 0),
		CartTTL:            getDurationEnv("CART_TTL", 120, time.Minute),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL", 60, time.Minute),
		CheckoutMode:       getEnvOrDefault("CHECKOUT_MODE", "persist"),
		CheckoutTimeout:    getDurationEnv("CHECKOUT_TIMEOUT", 15, time.Second),
		SubmissionTokenTTL: getDurationEnv("SUBMISSION_TOKEN_TTL", 24, time.Hour),
		KafkaBrokers:       getListEnv("KAFKA_BROKERS", nil),
		KafkaOrdersTopic:   getEnvOrDefault("KAFKA_ORDERS_TOPIC", "orders.events"),
		CORSOrigins:        getListEnv("CORS_ORIGINS", []string{"*"}),
		UploadDir:          getEnvOrDefault("UPLOAD_DIR", "./public/uploads"),
		MaxWaiters:         getIntEnv("MAX_WAITERS", 5),
	}
}

func (c Config) Production() bool {
	return c.Environment == "production"
}
