package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"aster-api"`
	Port                          int      `env:"PORT" env-default:"5000"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"aster"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion    int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" env-default:"0"`

	// Auth
	JWTSecret       string        `env:"JWT_SECRET" env-default:""`
	JWTTTL          time.Duration `env:"JWT_TTL" env-default:"24h"`
	BCryptCost      int           `env:"BCRYPT_COST" env-default:"10"`
	CaptchaTTL      time.Duration `env:"CAPTCHA_TTL" env-default:"5m"`
	RecoveryCodeTTL time.Duration `env:"RECOVERY_CODE_TTL" env-default:"15m"`

	// Redis (captcha + recovery codes)
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Kafka producer (account lifecycle events)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"account-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Media storage
	StorageBackend     string        `env:"STORAGE_BACKEND" env-default:"local"` // local | sftp
	StorageLocalRoot   string        `env:"STORAGE_LOCAL_ROOT" env-default:"fileBase"`
	StoragePublicURL   string        `env:"FILE_SERVER_URL" env-default:"/uploads"`
	SFTPHost           string        `env:"SFTP_HOST" env-default:""`
	SFTPPort           int           `env:"SFTP_PORT" env-default:"22"`
	SFTPUsername       string        `env:"SFTP_USERNAME" env-default:""`
	SFTPPassword       string        `env:"SFTP_PASSWORD" env-default:""`
	SFTPBasePath       string        `env:"SFTP_BASE_PATH" env-default:"/fileBase"`
	SFTPPoolSize       int           `env:"SFTP_POOL_SIZE" env-default:"3"`
	SFTPAcquireTimeout time.Duration `env:"SFTP_ACQUIRE_TIMEOUT" env-default:"5s"`
	SFTPConnectTimeout time.Duration `env:"SFTP_CONNECT_TIMEOUT" env-default:"10s"`

	// Outbound mail (recovery codes)
	SMTPHost     string `env:"SMTP_HOST" env-default:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" env-default:"587"`
	SMTPUser     string `env:"EMAIL" env-default:""`
	SMTPPassword string `env:"APP_PASSWORD" env-default:""`
	MailSubject  string `env:"MAIL_SUBJECT" env-default:"Код восстановления"`
	MailBody     string `env:"MAIL_TEXT" env-default:"Ваш код восстановления: %s"`

	// Import pipeline
	// Policy for records whose <date> tag is entirely absent: "now" or "null".
	ImportOnMissingDate string `env:"IMPORT_ON_MISSING_DATE" env-default:"now"`

	// Tracing
	TracingEnabled      bool   `env:"TRACING_ENABLED" env-default:"false"`
	TracingOTLPEndpoint string `env:"TRACING_OTLP_ENDPOINT" env-default:"localhost:4317"`
	TracingOTLPProtocol string `env:"TRACING_OTLP_PROTOCOL" env-default:"grpc"`
}
