package service

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// HeuristicPredictor 无模型可用时的乘法式估价兜底。
// 只能由调用方显式选择（请求里 use_heuristic=true），
// 绝不允许静默顶替回归结果——响应里 method 恒为 "heuristic"。
type HeuristicPredictor struct {
	logger *logrus.Logger
}

// NewHeuristicPredictor 创建 HeuristicPredictor
func NewHeuristicPredictor(logger *logrus.Logger) *HeuristicPredictor {
	return &HeuristicPredictor{logger: logger}
}

// 品牌基础价（百万越南盾），未知品牌取15
var brandBasePrice = map[string]float64{
	"Honda":   20,
	"Yamaha":  25,
	"Suzuki":  18,
	"Piaggio": 35,
	"SYM":     15,
}

const defaultBrandBase = 15

// 车况系数，五档
var conditionFactor = map[string]float64{
	"Rất kém":    0.7,
	"Kém":        0.8,
	"Trung bình": 0.9,
	"Tốt":        1.0,
	"Rất tốt":    1.1,
}

// 地区系数
var locationFactor = map[string]float64{
	"Hà Nội":          1.05,
	"TP. Hồ Chí Minh": 1.1,
	"Đà Nẵng":         1.0,
}

const otherLocationFactor = 0.95

// Predict 乘法估价：品牌基础价 × 排量比 × 年限折旧(每年5%) ×
// 里程折旧(每1万公里1%) × 车况系数 × 地区系数
func (h *HeuristicPredictor) Predict(input PredictionInput, currentYear int) (*PredictionResult, error) {
	if input.Brand == "" {
		return nil, fmt.Errorf("%w: 缺少 brand", ErrInvalidInput)
	}
	if input.RegYear <= 0 || input.RegYear > currentYear {
		return nil, fmt.Errorf("%w: reg_year 无效", ErrInvalidInput)
	}

	base, ok := brandBasePrice[input.Brand]
	if !ok {
		base = defaultBrandBase
	}

	cc := float64(input.EngineCC)
	if cc <= 0 {
		cc = 100
	}
	base *= cc / 100

	age := currentYear - input.RegYear
	base *= math.Pow(0.95, float64(age))

	kmFactor := 1 - input.Mileage/10_000*0.01
	if kmFactor < 0 {
		kmFactor = 0
	}
	base *= kmFactor

	cond, ok := conditionFactor[input.Condition]
	if !ok {
		cond = 1.0
	}
	base *= cond

	loc, ok := locationFactor[input.Province]
	if !ok {
		loc = otherLocationFactor
	}
	base *= loc

	// base 单位为百万越南盾
	priceVND := math.Round(base * 1_000_000)
	result := &PredictionResult{
		Price:      int64(priceVND),
		PriceRange: [2]int64{int64(math.Round(priceVND * 0.9)), int64(math.Round(priceVND * 1.1))},
		Confidence: baseConfidence,
		Unit:       "VND",
		Method:     "heuristic",
	}
	h.logger.WithFields(logrus.Fields{
		"brand": input.Brand,
		"price": result.Price,
	}).Info("启发式估价完成")
	return result, nil
}
