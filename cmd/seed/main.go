package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/abhijeets54/feedback-backend/config"
	"github.com/abhijeets54/feedback-backend/internal/repository"
	"github.com/abhijeets54/feedback-backend/internal/seed"
	"github.com/abhijeets54/feedback-backend/pkg/database"
	applogger "github.com/abhijeets54/feedback-backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	fixturePath := flag.String("file", "config/seed.example.yaml", "用户夹具文件")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	fixture, err := seed.Load(*fixturePath)
	if err != nil {
		logger.Fatal("加载夹具失败", zap.Error(err))
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	repo := repository.NewRepository(db)
	res, err := seed.Apply(context.Background(), repo.User, fixture, logger)
	if err != nil {
		logger.Fatal("写入初始用户失败", zap.Error(err))
	}

	logger.Info("初始用户写入完成", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
}
