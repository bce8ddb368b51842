package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port           string
	GinMode        string
	PublicBaseURL  string
	CORSOrigins    []string
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration
	UploadTimeout  time.Duration

	Log     Log
	Session Session
	Store   Store
	Storage Storage
	AMQP    AMQP
}

type Log struct {
	Level  string
	Format string
}

type Session struct {
	Secret string
	TTL    time.Duration
}

// Store selects and configures the record store backend.
type Store struct {
	Driver string // memory, mongo, redis, firebase

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	FirebaseDatabaseURL     string
	FirebaseCredentialsFile string
}

// Storage selects and configures the blob storage backend.
type Storage struct {
	Driver string // memory, cloudinary, minio

	CloudinaryURL    string
	CloudinaryFolder string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string
	MinioPublicURL string

	MaxVideoBytes int64
	MaxImageBytes int64
}

type AMQP struct {
	URL      string
	Exchange string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("public_base_url", "http://localhost:8080/")
	v.SetDefault("cors_origins", "http://localhost:3000,http://localhost:8080")
	v.SetDefault("rate_limit", 60)
	v.SetDefault("rate_window", time.Minute)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("upload_timeout", 2*time.Minute)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("jwt_secret", "")
	v.SetDefault("session_ttl", 30*24*time.Hour)

	v.SetDefault("store_driver", "memory")
	v.SetDefault("mongodb_uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongodb_database", "hamak")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", "hamak")
	v.SetDefault("firebase_database_url", "")
	v.SetDefault("firebase_credentials_file", "")

	v.SetDefault("storage_driver", "memory")
	v.SetDefault("cloudinary_url", "")
	v.SetDefault("cloudinary_folder", "hamak")
	v.SetDefault("minio_endpoint", "localhost:9000")
	v.SetDefault("minio_access_key", "")
	v.SetDefault("minio_secret_key", "")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("minio_bucket", "hamak")
	v.SetDefault("minio_public_url", "")
	v.SetDefault("max_video_bytes", 100<<20)
	v.SetDefault("max_image_bytes", 10<<20)

	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "hamak.events")
}

// Load reads .env (when present), an optional config.yml and the process
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("could not read .env: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config file")
		}
	} else {
		logrus.Infof("using config file %s", v.ConfigFileUsed())
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:           v.GetString("port"),
		GinMode:        v.GetString("gin_mode"),
		PublicBaseURL:  v.GetString("public_base_url"),
		CORSOrigins:    splitList(v.GetString("cors_origins")),
		RateLimit:      v.GetInt("rate_limit"),
		RateWindow:     v.GetDuration("rate_window"),
		RequestTimeout: v.GetDuration("request_timeout"),
		UploadTimeout:  v.GetDuration("upload_timeout"),
		Log: Log{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		Session: Session{
			Secret: v.GetString("jwt_secret"),
			TTL:    v.GetDuration("session_ttl"),
		},
		Store: Store{
			Driver:                  strings.ToLower(v.GetString("store_driver")),
			MongoURI:                v.GetString("mongodb_uri"),
			MongoDatabase:           v.GetString("mongodb_database"),
			RedisAddr:               v.GetString("redis_addr"),
			RedisPassword:           v.GetString("redis_password"),
			RedisDB:                 v.GetInt("redis_db"),
			RedisPrefix:             v.GetString("redis_prefix"),
			FirebaseDatabaseURL:     v.GetString("firebase_database_url"),
			FirebaseCredentialsFile: v.GetString("firebase_credentials_file"),
		},
		Storage: Storage{
			Driver:           strings.ToLower(v.GetString("storage_driver")),
			CloudinaryURL:    v.GetString("cloudinary_url"),
			CloudinaryFolder: v.GetString("cloudinary_folder"),
			MinioEndpoint:    v.GetString("minio_endpoint"),
			MinioAccessKey:   v.GetString("minio_access_key"),
			MinioSecretKey:   v.GetString("minio_secret_key"),
			MinioUseSSL:      v.GetBool("minio_use_ssl"),
			MinioBucket:      v.GetString("minio_bucket"),
			MinioPublicURL:   v.GetString("minio_public_url"),
			MaxVideoBytes:    v.GetInt64("max_video_bytes"),
			MaxImageBytes:    v.GetInt64("max_image_bytes"),
		},
		AMQP: AMQP{
			URL:      v.GetString("amqp_url"),
			Exchange: v.GetString("amqp_exchange"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late at connect time.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	switch c.Store.Driver {
	case "memory":
	case "mongo":
		if c.Store.MongoURI == "" {
			return errors.New("MONGODB_URI must be set for the mongo store")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("REDIS_ADDR must be set for the redis store")
		}
	case "firebase":
		if c.Store.FirebaseDatabaseURL == "" {
			return errors.New("FIREBASE_DATABASE_URL must be set for the firebase store")
		}
	default:
		return errors.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Storage.Driver {
	case "memory":
	case "cloudinary":
		if c.Storage.CloudinaryURL == "" {
			return errors.New("CLOUDINARY_URL must be set for cloudinary storage")
		}
	case "minio":
		if c.Storage.MinioAccessKey == "" || c.Storage.MinioSecretKey == "" {
			return errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY must be set for minio storage")
		}
	default:
		return errors.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Storage.MaxVideoBytes <= 0 || c.Storage.MaxImageBytes <= 0 {
		return errors.New("upload size limits must be positive")
	}
	return nil
}

// ConfigureLogging applies the log level and format to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		logrus.Warnf("invalid LOG_LEVEL %q, falling back to info", c.Log.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if c.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
