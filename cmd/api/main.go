package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nftlend-backend/internal/adapter/chain"
	httpadp "nftlend-backend/internal/adapter/http"
	idem "nftlend-backend/internal/adapter/middleware"
	"nftlend-backend/internal/adapter/repository/mysql"
	"nftlend-backend/internal/config"
	"nftlend-backend/internal/domain/fee"
	"nftlend-backend/internal/infrastructure/cache"
	"nftlend-backend/internal/infrastructure/db"
	"nftlend-backend/internal/infrastructure/events"
	"nftlend-backend/internal/infrastructure/logging"
	"nftlend-backend/internal/infrastructure/metrics"
	"nftlend-backend/internal/usecase/admin"
	"nftlend-backend/internal/usecase/loan"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN())
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := gdb.WithContext(ctx).AutoMigrate(mysql.Models()...); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	settings := mysql.NewSettingsRepository(gdb)
	if _, err := settings.EnsureDefaults(ctx, fee.Defaults(cfg.DefaultOriginationFeeRate, cfg.DefaultImprovementRate)); err != nil {
		logger.Fatal("seed facilitator settings", zap.Error(err))
	}

	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatal("open redis", zap.Error(err))
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewLoanMetrics(reg)

	emitter := events.Fanout{
		events.LogEmitter{Logger: logger.Named("events")},
		events.NewRedisPublisher(rdb, cfg.EventsChannel, logger.Named("publisher"), m),
	}

	var contracts loan.ContractChecker
	if cfg.EthRPCURL != "" {
		rpc, closeRPC, err := chain.Dial(ctx, cfg.EthRPCURL)
		if err != nil {
			logger.Fatal("dial eth rpc", zap.Error(err))
		}
		defer closeRPC()
		contracts = rpc
	} else {
		logger.Info("no ETH_RPC_URL, using static asset allow list", zap.Strings("assets", cfg.AssetContracts))
		contracts = chain.NewStaticContractChecker(cfg.AssetAddresses())
	}

	tx := mysql.NewGormUoW(gdb, cfg.Facilitator())
	loanUC := loan.NewUsecase(mysql.NewLoanRepository(gdb), tx, contracts, cfg.Facilitator(),
		loan.WithEmitter(emitter),
		loan.WithObserver(m),
		loan.WithLogger(logger.Named("loan")),
	)
	adminUC := admin.NewUsecase(settings, tx, cfg.Admin(), cfg.Facilitator(),
		admin.WithEmitter(emitter),
		admin.WithLogger(logger.Named("admin")),
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())
	e.Use(idem.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, logger.Named("idempotency")))

	// routes
	httpadp.RegisterRoutes(e, httpadp.NewHandler(), httpadp.NewLoanHandler(loanUC), httpadp.NewAdminHandler(adminUC))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	addr := ":" + cfg.AppPort
	logger.Info("listening", zap.String("addr", addr))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
