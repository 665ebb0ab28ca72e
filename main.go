package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/portoviejo/incidentes/config"
	"github.com/portoviejo/incidentes/db"
	"github.com/portoviejo/incidentes/server"
	"github.com/portoviejo/incidentes/services"
)

func initSentry(conf *config.Config) {
	if conf.SentryDSN == "" {
		return
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              conf.SentryDSN,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
		Environment:      conf.Env,
		Debug:            conf.Debug,
	})
	if err != nil {
		log.Printf("sentry init failed: %v", err)
		return
	}
	log.Println("Sentry initialized")
}

func imageStore(conf *config.Config) services.ImageStore {
	if conf.StorageDriver == config.StorageS3 {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		store, err := services.NewS3Store(ctx, conf)
		if err != nil {
			log.Fatalf("unable to configure S3 storage: %v", err)
		}
		log.Printf("Storing images in S3 bucket %s", conf.AWSBucket)
		return store
	}
	store := services.NewLocalStore(conf)
	log.Printf("Storing images under %s", store.Dir())
	return store
}

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	initSentry(conf)

	var (
		store        server.Store
		authRepo     db.AuthRepository
		incidentRepo db.IncidentRepository
	)
	switch conf.StoreDriver {
	case config.StoreMongo:
		mongoDB := db.GetMongoDB(conf)
		store = mongoDB
		authRepo = db.NewMongoAuthRepo(mongoDB)
		incidentRepo = db.NewMongoIncidentRepo(mongoDB)
	default:
		gormDB := db.GetDB(conf)
		store = gormDB
		authRepo = db.NewAuthRepo(gormDB)
		incidentRepo = db.NewIncidentRepo(gormDB)
	}
	query := db.NewIncidentQuery(authRepo, incidentRepo)

	authService := services.NewAuthService(authRepo, conf)
	mediaService := services.NewMediaService(imageStore(conf), conf)
	incidentService := services.NewIncidentService(incidentRepo, query, mediaService, conf)
	likeService := services.NewLikeService(incidentRepo, query, conf)

	s := &server.Server{
		Config:          conf,
		DB:              store,
		AuthRepository:  authRepo,
		AuthService:     authService,
		IncidentService: incidentService,
		LikeService:     likeService,
	}
	s.Start()
}
