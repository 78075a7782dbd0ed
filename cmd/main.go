package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/ndenisov/authd/internal/api"
	"github.com/ndenisov/authd/internal/controller"
	"github.com/ndenisov/authd/internal/migrations"
	"github.com/ndenisov/authd/internal/service"
	"github.com/ndenisov/authd/internal/storage/postgres"
	"github.com/ndenisov/authd/internal/storage/redis"
	"github.com/ndenisov/authd/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.RunMigrations(db, logger); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	cleanupFuncs := []func(){dbCleanup, redisCleanup}

	storage := postgres.NewStorage(db)
	codeStorage := redis.NewCodeStorage(redisClient)

	tokenService := service.NewTokenService(util.NewTokenConfig())
	verificationService := service.NewVerificationService(util.NewVerificationConfig(), codeStorage)
	mailService := service.NewMailService(util.NewSMTPConfig(), logger)

	serverConfig := util.NewServerConfig()
	authService := service.NewAuthService(storage, tokenService, verificationService, mailService, serverConfig, logger)

	controller := controller.NewController(logger, authService, util.NewOAuthConfig())

	apiServer := api.NewAPI(controller, authService, serverConfig, logger, cleanupFuncs)
	apiServer.Run(ctx)
}
