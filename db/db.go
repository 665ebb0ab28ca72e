package db

import (
	"context"
	"fmt"
	"log"

	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/config"
	"github.com/portoviejo/incidentes/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config) *GormDB {
	gormDB := &GormDB{}
	gormDB.Init(c)
	return gormDB
}

func (g *GormDB) Init(c *config.Config) {
	gormConfig := &gorm.Config{TranslateError: true}
	if c.Env != "prod" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	log.Printf("Connecting to postgres at %s:%d/%s", c.PostgresHost, c.PostgresPort, c.PostgresDB)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN: c.PostgresDSN(),
	}), gormConfig)
	if err != nil {
		log.Fatal(err)
	}
	g.DB = gormDB

	if err := migrate(g.DB); err != nil {
		log.Fatalf("unable to run migrations: %v", err)
	}
}

// NewGormDB opens dialector and migrates the schema.
func NewGormDB(dialector gorm.Dialector, conf *gorm.Config) (*GormDB, error) {
	if conf == nil {
		conf = &gorm.Config{}
	}
	conf.TranslateError = true
	gormDB, err := gorm.Open(dialector, conf)
	if err != nil {
		return nil, errors.Wrap(err, "gorm open")
	}
	if err := migrate(gormDB); err != nil {
		return nil, err
	}
	return &GormDB{DB: gormDB}, nil
}

func (g *GormDB) Ping(ctx context.Context) error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (g *GormDB) Close(ctx context.Context) error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Incident{},
		&models.IncidentLike{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}
	return nil
}
