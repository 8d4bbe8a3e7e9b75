package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"MotoPrice/internal/config"
	"MotoPrice/internal/model"
	"MotoPrice/internal/pipeline"
	"MotoPrice/internal/refdata"
	"MotoPrice/internal/regression"
	"MotoPrice/internal/repository"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// TrainingService 离线批量训练编排：
// 帖子 -> 清洗/变换 -> 训练过滤 -> 设计矩阵 -> OLS拟合 -> 评估 -> 落盘。
type TrainingService struct {
	repo   repository.ListingRepository
	ref    *refdata.Store
	cfg    *config.Config
	logger *logrus.Logger
}

// NewTrainingService 创建 TrainingService
func NewTrainingService(repo repository.ListingRepository, ref *refdata.Store, cfg *config.Config, logger *logrus.Logger) *TrainingService {
	return &TrainingService{repo: repo, ref: ref, cfg: cfg, logger: logger}
}

// TrainReport 一次训练运行的产出摘要
type TrainReport struct {
	TotalListings int                   `json:"total_listings"`
	TrainRows     int                   `json:"train_rows"`
	TestRows      int                   `json:"test_rows"`
	Stages        pipeline.FilterReport `json:"stages"`
	Metrics       regression.Metrics    `json:"metrics"` // 对数价格空间
	ModelPath     string                `json:"model_path"`
}

// Train 从数据库拉取帖子并训练
func (s *TrainingService) Train(ctx context.Context) (*TrainReport, error) {
	listings, err := s.repo.ListForTraining(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("拉取训练帖子失败: %w", err)
	}
	return s.TrainFromListings(listings)
}

// TrainFromListings 对给定帖子集合训练（CSV离线路径也走这里）
func (s *TrainingService) TrainFromListings(listings []model.Listing) (*TrainReport, error) {
	s.logger.Infof("开始训练, 共%d条帖子", len(listings))
	transformer := pipeline.NewTransformer(s.ref, s.cfg.Training.CurrentYear)

	// 清洗 + 变换，逐阶段计数
	rows, cleanReport, err := pipeline.BuildTrainingRows(listings, transformer)
	if err != nil {
		return nil, fmt.Errorf("清洗/变换失败: %w", err)
	}
	// 训练过滤
	rows, filterReport := pipeline.FilterTraining(rows, s.cfg.Training, pipeline.DefaultExclusionRules())
	stages := append(cleanReport, filterReport...)
	for _, stage := range stages {
		s.logger.Infof("过滤阶段 %s: 丢弃%d, 剩余%d", stage.Stage, stage.Dropped, stage.Remaining)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("过滤后没有可用训练样本")
	}

	// 调试产物：落盘处理后的训练行（非权威数据，每次训练整体重算）
	if s.cfg.Data.ProcessedDir != "" {
		if err := s.dumpProcessedRows(rows); err != nil {
			s.logger.WithError(err).Warn("写入调试CSV失败")
		}
	}

	// 设计矩阵与目标向量
	flags := s.cfg.Features
	vectors := make([]pipeline.FeatureVector, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		vectors[i] = r.Features
		y[i] = r.PriceLog
	}

	// 固定种子划分，先在训练集上拟合评估
	trainIdx, testIdx := regression.TrainTestSplit(len(rows), s.cfg.Training.TestSize, s.cfg.Training.Seed)
	s.logger.Infof("训练集%d条, 测试集%d条 (seed=%d)", len(trainIdx), len(testIdx), s.cfg.Training.Seed)

	columns := columnNames(flags)
	evalModel := regression.NewOLS(flags, s.cfg.Training.CurrentYear, columns)
	if err := evalModel.Fit(subMatrix(vectors, trainIdx, flags), subSlice(y, trainIdx)); err != nil {
		return nil, fmt.Errorf("拟合失败: %w", err)
	}
	yPred, err := evalModel.PredictBatch(subMatrix(vectors, testIdx, flags))
	if err != nil {
		return nil, fmt.Errorf("评估预测失败: %w", err)
	}
	metrics, err := regression.Evaluate(subSlice(y, testIdx), yPred)
	if err != nil {
		return nil, fmt.Errorf("计算评估指标失败: %w", err)
	}
	s.logger.Infof("评估结果(对数空间): MSE=%.4f RMSE=%.4f R²=%.4f MAPE=%.2f%%",
		metrics.MSE, metrics.RMSE, metrics.R2, metrics.MAPE)

	// 最终模型在全量数据上重拟合后落盘
	finalModel := regression.NewOLS(flags, s.cfg.Training.CurrentYear, columns)
	if err := finalModel.Fit(pipeline.BuildMatrix(vectors, flags), y); err != nil {
		return nil, fmt.Errorf("全量拟合失败: %w", err)
	}
	s.logger.Infof("全量拟合完成: R²=%.4f", finalModel.R2())

	if err := s.persist(finalModel, metrics); err != nil {
		return nil, err
	}

	return &TrainReport{
		TotalListings: len(listings),
		TrainRows:     len(trainIdx),
		TestRows:      len(testIdx),
		Stages:        stages,
		Metrics:       metrics,
		ModelPath:     s.cfg.Model.Path,
	}, nil
}

// persist 模型JSON + 文本摘要 + 指标JSON 三件套落盘
func (s *TrainingService) persist(olsModel *regression.OLS, metrics regression.Metrics) error {
	if dir := filepath.Dir(s.cfg.Model.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建模型目录失败: %w", err)
		}
	}
	if err := olsModel.Save(s.cfg.Model.Path); err != nil {
		return err
	}
	s.logger.Infof("模型已保存到 %s", s.cfg.Model.Path)

	if s.cfg.Model.SummaryPath != "" {
		if err := os.WriteFile(s.cfg.Model.SummaryPath, []byte(olsModel.Summary()), 0o644); err != nil {
			return fmt.Errorf("写入模型摘要失败: %w", err)
		}
	}
	if s.cfg.Model.MetricsPath != "" {
		raw, err := json.MarshalIndent(metrics, "", "  ")
		if err != nil {
			return fmt.Errorf("序列化指标失败: %w", err)
		}
		if err := os.WriteFile(s.cfg.Model.MetricsPath, raw, 0o644); err != nil {
			return fmt.Errorf("写入指标文件失败: %w", err)
		}
	}
	return nil
}

// dumpProcessedRows 把处理后的训练行写成CSV，便于排查
func (s *TrainingService) dumpProcessedRows(rows []pipeline.TrainingRow) error {
	if err := os.MkdirAll(s.cfg.Data.ProcessedDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.cfg.Data.ProcessedDir, "processed_training_data.csv")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{
		"price_log", "age_log", "mileage_log", "model",
		"model_ref_price_log", "origin", "origin_multiplier",
		"province", "province_scoli",
	}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			formatFloat(r.PriceLog),
			formatFloat(r.Features.AgeLog),
			formatFloat(r.Features.MileageLog),
			r.Model,
			formatFloat(r.Features.RefPriceLog),
			r.Origin,
			formatFloat(r.Features.OriginMultiplier),
			r.Province,
			formatFloat(r.Features.ProvinceSCOLI),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

// columnNames 给定特征开关下的设计矩阵列名（与 pipeline.BuildRow 顺序一致）
func columnNames(flags config.FeatureFlags) []string {
	columns := []string{"const", "age_log", "age_log^2", "age_log^3", "mileage_log"}
	if flags.IncludeOrigin {
		columns = append(columns, "origin_multiplier")
	}
	columns = append(columns, "model_ref_price_log")
	if flags.IncludeProvince {
		columns = append(columns, "province_scoli")
	}
	return columns
}

func subMatrix(vectors []pipeline.FeatureVector, idx []int, flags config.FeatureFlags) *mat.Dense {
	sub := make([]pipeline.FeatureVector, len(idx))
	for i, j := range idx {
		sub[i] = vectors[j]
	}
	return pipeline.BuildMatrix(sub, flags)
}

func subSlice(values []float64, idx []int) []float64 {
	sub := make([]float64, len(idx))
	for i, j := range idx {
		sub[i] = values[j]
	}
	return sub
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
