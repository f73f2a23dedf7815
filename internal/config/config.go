package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type AppConf struct {
	Env            string `mapstructure:"env" validate:"required"`
	Port           int    `mapstructure:"port" validate:"gt=0"`
	ShutdownSecond int    `mapstructure:"shutdown_seconds"`
}

type MongoConf struct {
	URI             string `mapstructure:"uri" validate:"required"`
	Database        string `mapstructure:"database" validate:"required"`
	FilesCollection string `mapstructure:"files_collection" validate:"required"`
	UsersCollection string `mapstructure:"users_collection" validate:"required"`
}

type RedisConf struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConf struct {
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"gt=0"`
}

type StorageConf struct {
	// Driver is "local" or "s3".
	Driver     string `mapstructure:"driver" validate:"oneof=local s3"`
	FolderPath string `mapstructure:"folder_path"`
}

type AWSConf struct {
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`
	Endpoint string `mapstructure:"endpoint"`
	// Prefix is prepended to every object key.
	Prefix   string `mapstructure:"prefix"`
}

type FilesConf struct {
	ThumbnailWidths []int `mapstructure:"thumbnail_widths" validate:"min=1,dive,gt=0"`
}

type QueueConf struct {
	// Driver is "redis", "kafka" or "memory".
	Driver           string `mapstructure:"driver" validate:"oneof=redis kafka memory"`
	ThumbnailQueue   string `mapstructure:"thumbnail_queue" validate:"required"`
	WelcomeQueue     string `mapstructure:"welcome_queue" validate:"required"`
	MaxAttempts      int    `mapstructure:"max_attempts" validate:"gt=0"`
	RetryBackoffMs   int    `mapstructure:"retry_backoff_ms"`
	MaxBackoffMs     int    `mapstructure:"max_backoff_ms"`
	PollIntervalMs   int    `mapstructure:"poll_interval_ms"`
	VisibilitySecond int    `mapstructure:"visibility_seconds"`
}

type KafkaConf struct {
	Brokers  []string `mapstructure:"brokers"`
	GroupID  string   `mapstructure:"group_id"`
	DLQTopic string   `mapstructure:"dlq_topic"`
}

type WorkerConf struct {
	Concurrency int    `mapstructure:"concurrency" validate:"gt=0"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type EmailConf struct {
	BrevoAPIKey string `mapstructure:"brevo_api_key"`
	SenderEmail string `mapstructure:"sender_email"`
	SenderName  string `mapstructure:"sender_name"`
}

type RateLimitConf struct {
	ConnectPerMinute int `mapstructure:"connect_per_minute"`
}

type Config struct {
	App       AppConf       `mapstructure:"app"`
	Mongo     MongoConf     `mapstructure:"mongodb"`
	Redis     RedisConf     `mapstructure:"redis"`
	Session   SessionConf   `mapstructure:"session"`
	Storage   StorageConf   `mapstructure:"storage"`
	AWS       AWSConf       `mapstructure:"aws"`
	Files     FilesConf     `mapstructure:"files"`
	Queue     QueueConf     `mapstructure:"queue"`
	Kafka     KafkaConf     `mapstructure:"kafka"`
	Worker    WorkerConf    `mapstructure:"worker"`
	Email     EmailConf     `mapstructure:"email"`
	RateLimit RateLimitConf `mapstructure:"rate_limit"`
	Log       struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// derived
	ShutdownTimeout time.Duration `mapstructure:"-"`
	SessionTTL      time.Duration `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 5000)
	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "files_manager")
	v.SetDefault("mongodb.files_collection", "files")
	v.SetDefault("mongodb.users_collection", "users")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("session.ttl_seconds", 24*3600)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.folder_path", "/tmp/files_manager")
	v.SetDefault("aws.prefix", "files/")
	v.SetDefault("files.thumbnail_widths", []int{500, 250, 100})
	v.SetDefault("queue.driver", "redis")
	v.SetDefault("queue.thumbnail_queue", "fileQueue")
	v.SetDefault("queue.welcome_queue", "userQueue")
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("kafka.group_id", "files-manager-workers")
	v.SetDefault("kafka.dlq_topic", "files-manager.dead")
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("rate_limit.connect_per_minute", 30)
	v.SetDefault("log.level", "info")
}

// Load reads the YAML file at path (if non-empty) and applies env overrides,
// e.g. MONGODB_URI or STORAGE_FOLDER_PATH.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.App.ShutdownSecond == 0 {
		cfg.App.ShutdownSecond = 15
	}
	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownSecond) * time.Second
	cfg.SessionTTL = time.Duration(cfg.Session.TTLSeconds) * time.Second
	if cfg.Queue.RetryBackoffMs == 0 {
		cfg.Queue.RetryBackoffMs = 1000
	}
	if cfg.Queue.MaxBackoffMs == 0 {
		cfg.Queue.MaxBackoffMs = 30000
	}
	if cfg.Queue.PollIntervalMs == 0 {
		cfg.Queue.PollIntervalMs = 500
	}
	if cfg.Queue.VisibilitySecond == 0 {
		cfg.Queue.VisibilitySecond = 300
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.Driver == "local" && cfg.Storage.FolderPath == "" {
		return nil, fmt.Errorf("invalid config: storage.folder_path is required for the local driver")
	}
	if cfg.Storage.Driver == "s3" && cfg.AWS.Bucket == "" {
		return nil, fmt.Errorf("invalid config: aws.bucket is required for the s3 driver")
	}
	if cfg.Queue.Driver == "kafka" && len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("invalid config: kafka.brokers is required for the kafka queue")
	}
	return &cfg, nil
}
