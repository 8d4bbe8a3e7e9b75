package main

import (
	"context"
	"flag"
	"log"

	"MotoPrice/internal/config"
	"MotoPrice/internal/refdata"
	"MotoPrice/internal/repository"
	"MotoPrice/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 离线训练入口。默认从数据库拉取帖子；
// --input 指定CSV时走文件路径（无需数据库），--ingest 则先把CSV入库再训练。
func main() {
	inputCSV := flag.String("input", "", "帖子CSV路径，指定后不从数据库读取")
	ingest := flag.Bool("ingest", false, "训练前将 --input 的CSV批量入库")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	logrusLogger := logrus.New()
	logrusLogger.SetLevel(logrus.InfoLevel)

	store, err := refdata.Load(&cfg.Data, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("加载参考数据失败: %v", err)
	}

	// 纯CSV路径不需要数据库
	var repo repository.ListingRepository
	if *inputCSV == "" || *ingest {
		db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			logrusLogger.Fatalf("连接PostgreSQL失败: %v", err)
		}
		repo = repository.NewListingRepository(db)
	}

	trainer := service.NewTrainingService(repo, store, cfg, logrusLogger)
	ctx := context.Background()

	var report *service.TrainReport
	if *inputCSV != "" {
		importer := service.NewListingImporter(repo, logrusLogger)
		if *ingest {
			n, err := importer.Ingest(ctx, *inputCSV)
			if err != nil {
				logrusLogger.Fatalf("CSV入库失败: %v", err)
			}
			logrusLogger.Infof("已入库%d条帖子", n)
		}
		listings, err := importer.ReadCSV(*inputCSV)
		if err != nil {
			logrusLogger.Fatalf("读取CSV失败: %v", err)
		}
		report, err = trainer.TrainFromListings(listings)
		if err != nil {
			logrusLogger.Fatalf("训练失败: %v", err)
		}
	} else {
		report, err = trainer.Train(ctx)
		if err != nil {
			logrusLogger.Fatalf("训练失败: %v", err)
		}
	}

	logrusLogger.Infof("训练完成: 训练集%d条, 测试集%d条, RMSE=%.4f R²=%.4f, 模型保存于 %s",
		report.TrainRows, report.TestRows, report.Metrics.RMSE, report.Metrics.R2, report.ModelPath)
}
