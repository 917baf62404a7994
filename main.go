package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TIANLI0/MoldeKit/config"
	"github.com/TIANLI0/MoldeKit/handler"
	"github.com/TIANLI0/MoldeKit/middleware"
	"github.com/TIANLI0/MoldeKit/repository"
	"github.com/TIANLI0/MoldeKit/service"
	"github.com/TIANLI0/MoldeKit/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	BuildID   = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

func main() {
	// 加载配置
	cfg := config.New()

	// 初始化日志
	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting MoldeKit server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("git_branch", GitBranch))

	// 视觉运行时只初始化一次
	if err := service.EnsureVision(); err != nil {
		utils.Logger.Fatal("failed to initialize vision runtime", zap.Error(err))
	}

	// 初始化Redis
	redisService := service.NewRedisService(&cfg.Redis)
	ctx := context.Background()
	if err := redisService.Ping(ctx); err != nil {
		utils.Logger.Warn("redis connection failed, cache disabled", zap.Error(err))
	} else {
		utils.Logger.Info("redis connected successfully")
	}
	defer redisService.Close()

	// 初始化存储
	db, err := repository.OpenSQLite(cfg.Store.Path)
	if err != nil {
		utils.Logger.Fatal("failed to open store", zap.Error(err))
	}
	store := repository.NewSQLiteStore(db)
	if err := store.Init(ctx); err != nil {
		utils.Logger.Fatal("failed to init store", zap.Error(err))
	}
	defer store.Close()

	fonts, err := service.NewFontRegistry()
	if err != nil {
		utils.Logger.Fatal("failed to load builtin font", zap.Error(err))
	}

	extractor := service.NewExtractor(&cfg.Extract)
	worker := service.NewExtractWorker(extractor, &cfg.Extract)
	compositor := service.NewCompositor(fonts, &cfg.Compose)
	exporter := service.NewExporter(cfg.Compose.ExportDir, cfg.Compose.DownloadName)

	// 初始化Handler
	extractHandler := handler.NewExtractHandler(cfg, redisService, worker)
	composeHandler := handler.NewComposeHandler(compositor, exporter)
	patternHandler := handler.NewPatternHandler(store, fonts)
	fontHandler := handler.NewFontHandler(cfg, store, fonts)

	// 恢复已保存的字体
	if n, err := fontHandler.Restore(ctx); err != nil {
		utils.Logger.Fatal("failed to restore fonts", zap.Error(err))
	} else {
		utils.Logger.Info("fonts restored", zap.Int("count", n))
	}

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)
	binding.EnableDecoderDisallowUnknownFields = true

	// 创建路由
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.MaxMultipartMemory = cfg.Upload.MaxSize

	// 健康检查和版本信息
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"version": Version,
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"build_id":   BuildID,
			"git_commit": GitCommit,
			"git_branch": GitBranch,
			"opencv":     service.VisionVersion(),
		})
	})

	// API路由
	api := r.Group("/api/v1")
	{
		api.POST("/extract", extractHandler.Extract)
		api.GET("/extract/:md5", extractHandler.GetByMD5)

		api.POST("/compose", composeHandler.Compose)
		api.POST("/compose/preview", composeHandler.Preview)
		api.POST("/compose/download", composeHandler.Download)

		api.POST("/moldes", patternHandler.Create)
		api.GET("/moldes", patternHandler.List)
		api.GET("/moldes/:id", patternHandler.Get)
		api.PUT("/moldes/:id", patternHandler.Update)
		api.DELETE("/moldes/:id", patternHandler.Delete)

		api.POST("/fonts", fontHandler.Register)
		api.GET("/fonts", fontHandler.List)
		api.GET("/fonts/:name", fontHandler.Get)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.Error("server shutdown failed", zap.Error(err))
	}
}
