package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campusevents/config"
	"campusevents/db"
	"campusevents/middlewares"
	"campusevents/models"
	"campusevents/routes"
	"campusevents/utils"
)

func newLogger(appName, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.WithFields(logrus.Fields{"app": appName, "env": env}).Info("logger initialized")
	return logger
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := newLogger(cfg.AppName, cfg.Env)

	// Postgres: users, registrations, discussions, notifications.
	sqldb, err := db.Open(cfg.PostgresDSN)
	if err != nil {
		logger.WithError(err).Fatal("postgres connect failed")
	}
	defer sqldb.Close()
	if err := db.Migrate(sqldb); err != nil {
		logger.WithError(err).Fatal("migrations failed")
	}

	// Mongo: event catalog.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mg, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.WithError(err).Fatal("mongo connect failed")
	}
	if err := mg.Ping(ctx, nil); err != nil {
		logger.WithError(err).Fatal("mongo ping failed")
	}
	defer func() { _ = mg.Disconnect(context.Background()) }()

	eventsCol := mg.Database(cfg.MongoDatabase).Collection("events")
	if err := models.EnsureEventIndexes(ctx, eventsCol); err != nil {
		logger.WithError(err).Fatal("event index setup failed")
	}

	// Redis: response cache and quotas.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	inv := utils.NewCacheInvalidator(rdb)

	gin.SetMode(cfg.GinMode)
	server := gin.New()
	server.Use(gin.Recovery())
	if cfg.HTTPLogEnabled {
		server.Use(middlewares.RequestLogger(logger))
	}
	corsConf := cors.DefaultConfig()
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		corsConf.AllowOrigins = origins
	} else {
		corsConf.AllowAllOrigins = true
	}
	corsConf.AllowHeaders = append(corsConf.AllowHeaders, "Authorization")
	server.Use(cors.New(corsConf))
	server.Use(middlewares.ResponseCache(rdb, cfg.CacheTTL))

	server.Static("/uploads", cfg.UploadDir)

	routes.RegisterRoutes(server, routes.Deps{
		Users:         models.NewSQLUserRepository(sqldb),
		Events:        models.NewMongoEventRepository(eventsCol),
		Registrations: models.NewSQLRegistrationRepository(sqldb),
		Discussions:   models.NewSQLDiscussionRepository(sqldb),
		Notifications: models.NewSQLNotificationRepository(sqldb),
		RDB:           rdb,
		Invalidator:   inv,
		UploadDir:     cfg.UploadDir,
	})

	logger.WithField("port", cfg.Port).Info("campusevents API listening")
	if err := server.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
