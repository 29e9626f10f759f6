package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/api/router"
	"resume-match-go/internal/config"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/llm"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/telegram"
	"resume-match-go/internal/tracing"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}

	initLogger(cfg)
	logger.Info().Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	storageManager, err := storage.NewStorage(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()
	logger.Info().Msg("存储服务初始化成功")

	chatModel, err := llm.NewQwenChatModel(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.APIURL,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化推理服务客户端失败")
	}
	logger.Info().Str("model", cfg.LLM.Model).Msg("推理服务客户端初始化成功")

	pdfExtractor, err := parser.NewEinoPDFExtractor(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("创建PDF提取器失败")
	}

	skillExtractor := extractor.NewAISkillExtractor(chatModel, cfg.LLM.MaxResumeChars, cfg.LLM.SkillExtractMaxTokens)
	requirementExtractor := extractor.NewRequirementExtractor(chatModel, cfg.LLM.MaxJobDescChars, cfg.LLM.RequirementMaxTokens)

	// Redis可选，缺失时上传去重与需求缓存自动关闭
	var dedup pipeline.DedupStore
	if storageManager.Redis != nil {
		dedup = storageManager.Redis
	}
	ingest := pipeline.NewIngest(pdfExtractor, skillExtractor, storageManager.MinIO, storageManager.MySQL, dedup)

	var scorer matcher.Scorer
	var threshold float64
	if cfg.Matcher.UseSemanticScoring {
		scorer = matcher.NewSemanticScorer(chatModel, cfg.LLM.ScoringMaxTokens)
		threshold = cfg.Matcher.SemanticThreshold
	} else {
		scorer = matcher.NewKeywordScorer()
		threshold = cfg.Matcher.DeterministicThreshold
	}
	selector := matcher.NewSelector(threshold, cfg.Matcher.TopCandidates)

	// Redis缺席时传nil接口，需求缓存整体关闭
	var requirementCache handler.RequirementCache
	if storageManager.Redis != nil {
		requirementCache = storageManager.Redis
	}
	matchService := handler.NewMatchService(
		storageManager.MySQL,
		storageManager.MinIO,
		requirementCache,
		requirementExtractor,
		scorer,
		selector,
		time.Duration(cfg.Redis.RequirementCacheTTLHours)*time.Hour,
		time.Duration(cfg.MinIO.PresignExpirySeconds)*time.Second,
	)

	matchHandler := handler.NewMatchHandler(matchService)
	uploadHandler := handler.NewUploadHandler(ingest)

	// Telegram入口可选：不配token就只有HTTP接口
	var telegramHandler *handler.TelegramHandler
	if cfg.Telegram.BotToken != "" {
		tgClient, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIURL,
			time.Duration(cfg.Telegram.TimeoutSeconds)*time.Second)
		if err != nil {
			logger.Fatal().Err(err).Msg("初始化Telegram客户端失败")
		}
		telegramHandler = handler.NewTelegramHandler(tgClient, ingest, matchService, storageManager.MySQL)
		logger.Info().Msg("Telegram webhook处理器初始化成功")
	} else {
		logger.Info().Msg("未配置Telegram bot token，webhook入口关闭")
	}

	serverTracer, serverTracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		serverTracer,
	)
	h.Use(hertztracing.ServerMiddleware(serverTracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		// 请求上下文带上全局logger，业务日志自动关联trace
		c = logger.WithContext(c)
		ctx.Next(c)
	})

	router.RegisterRoutes(h, matchHandler, uploadHandler, telegramHandler)
	logger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器启动中")

	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("链路追踪导出器关闭失败")
	}
	logger.Info().Msg("优雅退出完成")
}

func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	logger.Logger = logger.Logger.With().
		Str("app", "resume-match-go").
		Logger()

	// Hertz框架日志走同一个zerolog实例
	glog.SetLogger(hertzadapter.From(logger.Logger))
}
