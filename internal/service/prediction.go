package service

import (
	"errors"
	"fmt"
	"math"

	"MotoPrice/internal/config"
	"MotoPrice/internal/model"
	"MotoPrice/internal/pipeline"
	"MotoPrice/internal/refdata"
	"MotoPrice/internal/regression"

	"github.com/sirupsen/logrus"
)

// ErrInvalidInput 推理输入校验失败
var ErrInvalidInput = errors.New("invalid prediction input")

// 推理侧显式兜底路径使用的文档化默认值
const (
	fallbackOriginMultiplier = 1.0   // 按国产处理
	fallbackProvinceSCOLI    = 100.0 // 河内基准
	baseConfidence           = 0.85
	confidencePenalty        = 0.05
	oldAgeThreshold          = 10      // 年
	highMileageThreshold     = 100_000 // 公里
)

// PredictionInput 单次预测请求。brand/model/mileage/origin/reg_year 必填，
// province 缺省时回落到配置的默认省份。
type PredictionInput struct {
	Brand       string  `json:"brand"`
	Model       string  `json:"model"`
	Variant     string  `json:"variant,omitempty"`
	RegYear     int     `json:"reg_year"`
	Mileage     float64 `json:"mileage"`
	Origin      string  `json:"origin"`
	Province    string  `json:"province,omitempty"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	// 以下字段仅启发式预测使用
	EngineCC  int    `json:"engine_cc,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// PredictionResult 预测输出
type PredictionResult struct {
	Price      int64    `json:"price"`       // 越南盾
	PriceRange [2]int64 `json:"price_range"` // [下限, 上限]，±10%
	Confidence float64  `json:"confidence"`  // [0,1]
	Unit       string   `json:"unit"`
	Method     string   `json:"method"` // regression / heuristic
}

// PredictionService 单条帖子的价格预测编排：
// 校验 -> 清洗 -> 特征变换 -> 组装矩阵 -> 回归 -> 后处理。
// 参考表与模型在进程内只读共享，服务本身无状态。
type PredictionService struct {
	refs   *refdata.Holder
	model  *regression.OLS
	cfg    *config.Config
	logger *logrus.Logger
}

// NewPredictionService 创建 PredictionService
func NewPredictionService(refs *refdata.Holder, olsModel *regression.OLS, cfg *config.Config, logger *logrus.Logger) *PredictionService {
	return &PredictionService{refs: refs, model: olsModel, cfg: cfg, logger: logger}
}

// CurrentYear 模型工件携带的车龄基准年份
func (s *PredictionService) CurrentYear() int { return s.model.CurrentYear() }

// Predict 对单条输入预测价格
func (s *PredictionService) Predict(input PredictionInput) (*PredictionResult, error) {
	// 校验
	if err := s.validate(input); err != nil {
		return nil, err
	}
	province := input.Province
	if province == "" {
		province = s.cfg.Predict.DefaultProvince
	}

	// 清洗 + 变换（与训练共用同一套实现，不允许出现训练/推理偏差）
	clean := pipeline.CleanListing{
		Brand:    input.Brand,
		Model:    input.Model,
		ModelKey: refdata.NormalizeModelKey(input.Model, input.Brand),
		Origin:   pipeline.ResolveOrigin(input.Origin, input.Title, input.Description),
		Province: pipeline.CanonicalProvince(province),
		RegYear:  input.RegYear,
		Mileage:  input.Mileage,
	}
	transformer := pipeline.NewTransformer(s.refs.Get(), s.model.CurrentYear())
	features, err := transformer.TransformCleanListing(clean)
	if err != nil {
		features, err = s.applyLookupFallback(clean, transformer, err)
		if err != nil {
			return nil, err
		}
	}

	// 组装矩阵并做列数校验：不一致即致命，禁止补列
	row := pipeline.BuildRow(features, s.model.Flags())
	if len(row) != s.model.NumFeatures() {
		return nil, &model.DimensionMismatchError{Got: len(row), Want: s.model.NumFeatures()}
	}

	// 回归
	priceLog, err := s.model.Predict(row)
	if err != nil {
		return nil, err
	}

	// 后处理：对数价格 -> 千越南盾 -> 越南盾，再导出区间与置信度
	priceVND := math.Round(math.Exp(priceLog) * pipeline.PriceScale)
	confidence := baseConfidence
	if age := s.model.CurrentYear() - input.RegYear; age > oldAgeThreshold {
		confidence -= confidencePenalty
	}
	if input.Mileage > highMileageThreshold {
		confidence -= confidencePenalty
	}

	result := &PredictionResult{
		Price:      int64(priceVND),
		PriceRange: [2]int64{int64(math.Round(priceVND * 0.9)), int64(math.Round(priceVND * 1.1))},
		Confidence: math.Round(confidence*100) / 100,
		Unit:       "VND",
		Method:     "regression",
	}
	s.logger.WithFields(logrus.Fields{
		"model":      input.Model,
		"price":      result.Price,
		"confidence": result.Confidence,
	}).Info("预测完成")
	return result, nil
}

// validate 必填字段校验
func (s *PredictionService) validate(input PredictionInput) error {
	if input.Brand == "" {
		return fmt.Errorf("%w: 缺少 brand", ErrInvalidInput)
	}
	if input.Model == "" {
		return fmt.Errorf("%w: 缺少 model", ErrInvalidInput)
	}
	if input.Origin == "" {
		return fmt.Errorf("%w: 缺少 origin", ErrInvalidInput)
	}
	if input.RegYear <= 0 {
		return fmt.Errorf("%w: 缺少 reg_year", ErrInvalidInput)
	}
	if input.RegYear > s.model.CurrentYear() {
		return fmt.Errorf("%w: reg_year %d 晚于基准年份 %d", ErrInvalidInput, input.RegYear, s.model.CurrentYear())
	}
	if input.Mileage <= 0 {
		return fmt.Errorf("%w: mileage 必须为正", ErrInvalidInput)
	}
	return nil
}

// applyLookupFallback 推理侧兜底：仅当配置显式开启时，
// 用文档化默认值替换查表失败的特征，并逐项记日志；否则原样返回 LookupError。
// 这是对训练侧严格契约的有意放宽，必须走这条显式路径，不允许埋进默认分支。
func (s *PredictionService) applyLookupFallback(clean pipeline.CleanListing, t *pipeline.Transformer, cause error) (pipeline.FeatureVector, error) {
	if !s.cfg.Predict.LookupFallback || !errors.Is(cause, model.ErrLookup) {
		return pipeline.FeatureVector{}, cause
	}

	store := s.refs.Get()
	features := pipeline.FeatureVector{AgeLog: t.AgeLog(clean.RegYear)}

	mileageLog, err := t.MileageLog(clean.Mileage)
	if err != nil {
		return pipeline.FeatureVector{}, err
	}
	features.MileageLog = mileageLog

	if refPriceLog, err := t.RefPriceLog(clean.ModelKey); err == nil {
		features.RefPriceLog = refPriceLog
	} else {
		features.RefPriceLog = math.Log(store.MedianRefPrice() * pipeline.PriceScale)
		s.logger.WithField("model", clean.Model).Warn("车型无参考价，回落到参考价中位数")
	}
	if mult, err := t.OriginMultiplier(clean.Origin); err == nil {
		features.OriginMultiplier = mult
	} else {
		features.OriginMultiplier = fallbackOriginMultiplier
		s.logger.WithField("origin", clean.Origin).Warn("出厂国家无系数，回落到1.0")
	}
	if scoli, err := t.ProvinceSCOLI(clean.Province); err == nil {
		features.ProvinceSCOLI = scoli
	} else {
		features.ProvinceSCOLI = fallbackProvinceSCOLI
		s.logger.WithField("province", clean.Province).Warn("省份无SCOLI指数，回落到100")
	}
	return features, nil
}
