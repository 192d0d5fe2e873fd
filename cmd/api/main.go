package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/storage"
	"storefront/internal/middleware"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"
	"storefront/internal/ws"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

// 期限切れカートを消す間隔（DB保存のとき）
const cartSweepInterval = time.Hour

func main() {
	logger := log.New("storefront")
	logger.SetHeader("${time_rfc3339} ${level} ${short_file}:${line}")

	//.envは無くてもよい（本番は環境変数）
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warnf(".env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if cfg.IsProd() {
		logger.SetLevel(log.INFO)
	} else {
		logger.SetLevel(log.DEBUG)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatalf("db migrate: %v", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	menuItemRepo := infraRepo.NewMenuItemGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//カートの保存先と他タブ通知（Redisが無ければDBとプロセス内）
	var (
		persisters usecase.CartPersisters
		notifier   usecase.CartNotifier
	)
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		persisters = cache.NewRedisCartPersisters(rdb, cfg.CartTTL)
		notifier = cache.NewCartChannel(rdb)
		logger.Infof("cart: redis %s", cfg.RedisAddr)
	} else {
		snapshots := infraRepo.NewCartSnapshotGormRepository(gormDB)
		persisters = infraRepo.NewDBCartPersisters(snapshots, cfg.CartTTL)
		notifier = cache.NewMemoryCartChannel()
		go sweepCarts(ctx, snapshots, logger)
		logger.Infof("cart: database")
	}

	//管理画面のライブ通知
	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	//注文イベント（AMQP_URLが無ければHubだけ）
	var publisher events.Publisher = hub
	if cfg.AMQPURL != "" {
		amqpPub, err := events.DialAMQP(cfg.AMQPURL)
		if err != nil {
			logger.Fatalf("amqp: %v", err)
		}
		defer amqpPub.Close()
		publisher = events.Multi(hub, amqpPub)
	}

	//画像アップロード（MINIO_ENDPOINTが無ければ無効）
	var images usecase.ImageStore
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioImageStore(ctx, cfg)
		if err != nil {
			logger.Fatalf("minio: %v", err)
		}
		images = store
	}

	handoff := usecase.HandoffConfig{Phone: cfg.WhatsAppPhone, Currency: cfg.CurrencyLabel}

	//Usecase生成
	menuUC := usecase.NewMenuUsecase(categoryRepo, menuItemRepo, auditRepo, images)
	cartUC := usecase.NewCartUsecase(persisters, menuItemRepo, notifier, logger)
	checkoutUC := usecase.NewCheckoutUsecase(txm, cartUC, publisher, logger, handoff)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, publisher, logger, handoff)
	dashboardUC := usecase.NewDashboardUsecase(txm, categoryRepo)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, validator.NewAuthValidator())

	if cfg.AdminEmail != "" {
		created, err := authUC.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Fatalf("seed admin: %v", err)
		}
		if created {
			logger.Infof("admin created: %s", cfg.AdminEmail)
		}
	}

	//Handler生成
	e := server.New(cfg, server.Deps{
		UserRepo:     userRepo,
		CartSessions: middleware.NewCartCookieStore(cfg),
		Logger:       logger,
	}, server.Handlers{
		Menu:       handler.NewMenuHandler(menuUC),
		Cart:       handler.NewCartHandler(cartUC, cfg.FEURL),
		Checkout:   handler.NewCheckoutHandler(checkoutUC),
		Auth:       handler.NewAuthHandler(authUC),
		AdminMenu:  handler.NewAdminMenuHandler(menuUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
		Dashboard:  handler.NewAdminDashboardHandler(dashboardUC, auditUC, hub, cfg.FEURL),
	})

	//Server起動
	if err := server.Start(ctx, e, cfg.Addr()); err != nil {
		logger.Fatalf("server: %v", err)
	}
}

type cartSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

func sweepCarts(ctx context.Context, snapshots cartSweeper, logger *log.Logger) {
	ticker := time.NewTicker(cartSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := snapshots.DeleteExpired(ctx, time.Now())
			if err != nil {
				logger.Warnf("cart sweep: %v", err)
				continue
			}
			if n > 0 {
				logger.Debugf("cart sweep: %d expired", n)
			}
		}
	}
}
