package pipeline

import (
	"MotoPrice/internal/config"

	"gonum.org/v1/gonum/mat"
)

// 车龄特征做三次多项式展开（含截距列），其余特征按固定顺序接线性项。
// 列顺序训练与推理必须完全一致：
//   1, age_log, age_log², age_log³, mileage_log,
//   [origin_multiplier], model_ref_price_log, [province_scoli]
// 可选列由 FeatureFlags 决定，模型产物中记录训练时的开关。

const polyDegree = 3

// Width 给定特征开关下的矩阵列数
func Width(flags config.FeatureFlags) int {
	width := polyDegree + 1 + 2 // 截距+三个车龄次方 + mileage_log + model_ref_price_log
	if flags.IncludeOrigin {
		width++
	}
	if flags.IncludeProvince {
		width++
	}
	return width
}

// BuildRow 按固定列顺序展开一条特征向量
func BuildRow(v FeatureVector, flags config.FeatureFlags) []float64 {
	row := make([]float64, 0, Width(flags))
	row = append(row, 1)
	agePow := 1.0
	for d := 0; d < polyDegree; d++ {
		agePow *= v.AgeLog
		row = append(row, agePow)
	}
	row = append(row, v.MileageLog)
	if flags.IncludeOrigin {
		row = append(row, v.OriginMultiplier)
	}
	row = append(row, v.RefPriceLog)
	if flags.IncludeProvince {
		row = append(row, v.ProvinceSCOLI)
	}
	return row
}

// BuildMatrix 把N条特征向量组装为设计矩阵X
func BuildMatrix(vectors []FeatureVector, flags config.FeatureFlags) *mat.Dense {
	width := Width(flags)
	X := mat.NewDense(len(vectors), width, nil)
	for i, v := range vectors {
		X.SetRow(i, BuildRow(v, flags))
	}
	return X
}
