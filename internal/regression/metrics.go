package regression

import (
	"fmt"
	"math"
	"math/rand"
)

// Metrics 评估指标。全部在对数价格空间计算，
// 不换算回线性价格——调用方须自行注意量纲。
type Metrics struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
	MAPE float64 `json:"mape"` // 百分比
}

// Evaluate 计算对数空间的MSE/RMSE/R²/MAPE
func Evaluate(yTrue, yPred []float64) (Metrics, error) {
	if len(yTrue) != len(yPred) {
		return Metrics{}, fmt.Errorf("长度不一致: yTrue=%d yPred=%d", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return Metrics{}, fmt.Errorf("评估集为空")
	}

	n := float64(len(yTrue))
	meanY := 0.0
	for _, v := range yTrue {
		meanY += v
	}
	meanY /= n

	var rss, tss, ape float64
	for i := range yTrue {
		resid := yTrue[i] - yPred[i]
		rss += resid * resid
		dev := yTrue[i] - meanY
		tss += dev * dev
		if yTrue[i] != 0 {
			ape += math.Abs(resid / yTrue[i])
		}
	}

	m := Metrics{
		MSE:  rss / n,
		MAPE: ape / n * 100,
	}
	m.RMSE = math.Sqrt(m.MSE)
	if tss > 0 {
		m.R2 = 1 - rss/tss
	}
	return m, nil
}

// TrainTestSplit 以固定种子把 [0,n) 打乱后按比例切分，保证可复现。
// 返回训练下标与测试下标。
func TrainTestSplit(n int, testSize float64, seed int64) (trainIdx, testIdx []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	numTest := int(math.Round(float64(n) * testSize))
	if numTest < 1 && n > 1 {
		numTest = 1
	}
	return perm[numTest:], perm[:numTest]
}
