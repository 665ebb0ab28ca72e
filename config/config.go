package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	StorageS3    = "s3"
	StorageLocal = "local"
)

type Config struct {
	Debug bool   `envconfig:"debug"`
	Port  int    `envconfig:"port" default:"4000"`
	Env   string `envconfig:"env" default:"dev"`

	JWTSecret  string        `envconfig:"jwt_secret" required:"true"`
	JWTExpiry  time.Duration `envconfig:"jwt_expiry" default:"720h"`
	BcryptCost int           `envconfig:"bcrypt_cost" default:"10"`

	StoreDriver      string `envconfig:"store_driver" default:"postgres"`
	PostgresHost     string `envconfig:"postgres_host" default:"localhost"`
	PostgresPort     int    `envconfig:"postgres_port" default:"5432"`
	PostgresUser     string `envconfig:"postgres_user"`
	PostgresPassword string `envconfig:"postgres_password"`
	PostgresDB       string `envconfig:"postgres_db" default:"incidentes"`
	MongoURI         string `envconfig:"mongo_uri" default:"mongodb://localhost:27017"`
	MongoDatabase    string `envconfig:"mongo_database" default:"incidentes"`

	StorageDriver      string `envconfig:"storage_driver" default:"local"`
	AWSRegion          string `envconfig:"aws_region"`
	AWSAccessKeyID     string `envconfig:"aws_access_key_id"`
	AWSSecretAccessKey string `envconfig:"aws_secret_access_key"`
	AWSBucket          string `envconfig:"aws_bucket"`
	S3Endpoint         string `envconfig:"s3_endpoint"`
	UploadDir          string `envconfig:"upload_dir" default:"uploads"`
	PublicBaseURL      string `envconfig:"public_base_url" default:"http://localhost:4000"`
	ImageFolder        string `envconfig:"image_folder" default:"incidentes-portoviejo"`
	MaxImageSize       int64  `envconfig:"max_image_size" default:"10485760"`
	MaxImagePixels     int64  `envconfig:"max_image_pixels" default:"40000000"`

	SentryDSN      string   `envconfig:"sentry_dsn"`
	AuthRateLimit  uint     `envconfig:"auth_rate_limit" default:"20"`
	AllowedOrigins []string `envconfig:"allowed_origins"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("incidentes", c)
	if err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.StoreDriver {
	case StorePostgres, StoreMongo:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	switch c.StorageDriver {
	case StorageS3:
		if c.AWSBucket == "" {
			return fmt.Errorf("aws bucket is required for the s3 storage driver")
		}
	case StorageLocal:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("jwt expiry must be positive")
	}
	return nil
}

// PostgresDSN builds the connection string for the gorm postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=America/Guayaquil",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)
}
