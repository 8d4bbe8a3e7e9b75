package regression

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"MotoPrice/internal/config"
	"MotoPrice/internal/model"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Regressor 回归模型的统一契约。目标恒为对数价格 ln(价格/1000)，
// 换成树集成等其他实现时接口不变。
type Regressor interface {
	// Fit 在设计矩阵X与对数价格y上拟合
	Fit(X *mat.Dense, y []float64) error
	// Predict 对单行特征向量预测对数价格；列数不符返回 DimensionMismatchError
	Predict(x []float64) (float64, error)
	// NumFeatures 模型期望的特征矩阵列数（含截距列）
	NumFeatures() int
}

var _ Regressor = (*OLS)(nil)

// OLS 普通最小二乘回归模型
type OLS struct {
	coef      []float64
	stdErrors []float64
	tValues   []float64
	pValues   []float64
	r2        float64
	adjR2     float64
	n         int // 训练样本数

	flags       config.FeatureFlags // 训练时的可选特征开关
	currentYear int                 // 训练时的车龄基准年份
	columns     []string
	trainedAt   time.Time
}

// NewOLS 创建未拟合的OLS模型，记录训练时的特征配置
func NewOLS(flags config.FeatureFlags, currentYear int, columns []string) *OLS {
	return &OLS{flags: flags, currentYear: currentYear, columns: columns}
}

// Fit 最小二乘拟合（QR分解），并计算系数标准误/t值/p值与R²
func (m *OLS) Fit(X *mat.Dense, y []float64) error {
	n, p := X.Dims()
	if n != len(y) {
		return fmt.Errorf("样本数不一致: X有%d行, y有%d个值", n, len(y))
	}
	if n <= p {
		return fmt.Errorf("样本数%d不足以拟合%d个参数", n, p)
	}

	yVec := mat.NewVecDense(n, y)
	var beta mat.VecDense
	if err := beta.SolveVec(X, yVec); err != nil {
		return fmt.Errorf("最小二乘求解失败: %w", err)
	}
	m.coef = make([]float64, p)
	for j := 0; j < p; j++ {
		m.coef[j] = beta.AtVec(j)
	}
	m.n = n

	// 残差与判定系数
	var fitted mat.VecDense
	fitted.MulVec(X, &beta)
	rss, tss := 0.0, 0.0
	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(n)
	for i := 0; i < n; i++ {
		resid := y[i] - fitted.AtVec(i)
		rss += resid * resid
		dev := y[i] - meanY
		tss += dev * dev
	}
	if tss > 0 {
		m.r2 = 1 - rss/tss
		m.adjR2 = 1 - (1-m.r2)*float64(n-1)/float64(n-p)
	}

	// 系数协方差 sigma² (XᵀX)⁻¹，进而标准误/t值/p值
	sigma2 := rss / float64(n-p)
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return fmt.Errorf("XᵀX不可逆（存在共线特征列）: %w", err)
	}
	m.stdErrors = make([]float64, p)
	m.tValues = make([]float64, p)
	m.pValues = make([]float64, p)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - p)}
	for j := 0; j < p; j++ {
		m.stdErrors[j] = math.Sqrt(sigma2 * xtxInv.At(j, j))
		if m.stdErrors[j] > 0 {
			m.tValues[j] = m.coef[j] / m.stdErrors[j]
		}
		m.pValues[j] = 2 * (1 - tDist.CDF(math.Abs(m.tValues[j])))
	}
	m.trainedAt = time.Now()
	return nil
}

// Predict 单行预测，返回对数价格
func (m *OLS) Predict(x []float64) (float64, error) {
	if len(m.coef) == 0 {
		return 0, &model.ModelUnavailableError{Path: "(in-memory)", Err: fmt.Errorf("模型未拟合")}
	}
	if len(x) != len(m.coef) {
		return 0, &model.DimensionMismatchError{Got: len(x), Want: len(m.coef)}
	}
	sum := 0.0
	for j, v := range x {
		sum += m.coef[j] * v
	}
	return sum, nil
}

// PredictBatch 批量预测（评估用）
func (m *OLS) PredictBatch(X *mat.Dense) ([]float64, error) {
	n, p := X.Dims()
	if p != len(m.coef) {
		return nil, &model.DimensionMismatchError{Got: p, Want: len(m.coef)}
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := m.Predict(mat.Row(nil, i, X))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// NumFeatures 模型期望的列数
func (m *OLS) NumFeatures() int { return len(m.coef) }

// Flags 训练时的可选特征开关
func (m *OLS) Flags() config.FeatureFlags { return m.flags }

// CurrentYear 训练时的车龄基准年份
func (m *OLS) CurrentYear() int { return m.currentYear }

// R2 判定系数
func (m *OLS) R2() float64 { return m.r2 }

// Coefficients 系数副本
func (m *OLS) Coefficients() []float64 {
	out := make([]float64, len(m.coef))
	copy(out, m.coef)
	return out
}

// Summary 文本摘要（系数、标准误、t值、p值、R²），训练后与模型一起落盘备查
func (m *OLS) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "OLS Regression Results\n")
	fmt.Fprintf(&b, "======================\n")
	fmt.Fprintf(&b, "No. Observations: %d\n", m.n)
	fmt.Fprintf(&b, "Df Residuals:     %d\n", m.n-len(m.coef))
	fmt.Fprintf(&b, "R-squared:        %.4f\n", m.r2)
	fmt.Fprintf(&b, "Adj. R-squared:   %.4f\n", m.adjR2)
	fmt.Fprintf(&b, "Trained at:       %s\n\n", m.trainedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "%-24s %12s %12s %10s %10s\n", "variable", "coef", "std err", "t", "P>|t|")
	for j, name := range m.columns {
		if j >= len(m.coef) {
			break
		}
		fmt.Fprintf(&b, "%-24s %12.6f %12.6f %10.4f %10.4f\n",
			name, m.coef[j], m.stdErrors[j], m.tValues[j], m.pValues[j])
	}
	return b.String()
}

// artifact 模型落盘格式。kind 字段区分实现，便于以后挂树集成模型。
type artifact struct {
	Kind         string              `json:"kind"`
	TrainedAt    time.Time           `json:"trained_at"`
	CurrentYear  int                 `json:"current_year"`
	Features     config.FeatureFlags `json:"features"`
	Columns      []string            `json:"columns"`
	Coefficients []float64           `json:"coefficients"`
	StdErrors    []float64           `json:"std_errors"`
	TValues      []float64           `json:"t_values"`
	PValues      []float64           `json:"p_values"`
	R2           float64             `json:"r2"`
	AdjR2        float64             `json:"adj_r2"`
	NumSamples   int                 `json:"num_samples"`
}

// Save 序列化模型到JSON文件
func (m *OLS) Save(path string) error {
	art := artifact{
		Kind:         "ols",
		TrainedAt:    m.trainedAt,
		CurrentYear:  m.currentYear,
		Features:     m.flags,
		Columns:      m.columns,
		Coefficients: m.coef,
		StdErrors:    m.stdErrors,
		TValues:      m.tValues,
		PValues:      m.pValues,
		R2:           m.r2,
		AdjR2:        m.adjR2,
		NumSamples:   m.n,
	}
	raw, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化模型失败: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("写入模型文件失败: %w", err)
	}
	return nil
}

// Load 从JSON文件加载模型。文件缺失或损坏返回 ModelUnavailableError，
// 服务启动时遇到即致命。
func Load(path string) (*OLS, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ModelUnavailableError{Path: path, Err: err}
	}
	var art artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, &model.ModelUnavailableError{Path: path, Err: err}
	}
	if art.Kind != "ols" {
		return nil, &model.ModelUnavailableError{Path: path, Err: fmt.Errorf("未知模型类型 %q", art.Kind)}
	}
	if len(art.Coefficients) == 0 {
		return nil, &model.ModelUnavailableError{Path: path, Err: fmt.Errorf("模型系数为空")}
	}
	return &OLS{
		coef:        art.Coefficients,
		stdErrors:   art.StdErrors,
		tValues:     art.TValues,
		pValues:     art.PValues,
		r2:          art.R2,
		adjR2:       art.AdjR2,
		n:           art.NumSamples,
		flags:       art.Features,
		currentYear: art.CurrentYear,
		columns:     art.Columns,
		trainedAt:   art.TrainedAt,
	}, nil
}
