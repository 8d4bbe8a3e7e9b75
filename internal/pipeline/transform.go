package pipeline

import (
	"math"
	"strconv"
	"strings"

	"MotoPrice/internal/model"
	"MotoPrice/internal/refdata"
)

// minAge 同年注册的车龄下限：车必须有正车龄，log变换才有定义
const minAge = 0.5

// Transformer 五个特征变换的唯一实现，训练与单行推理共用，
// 保证同一输入在两条路径上产出完全一致的数值。
type Transformer struct {
	ref         *refdata.Store
	currentYear int
}

// NewTransformer 创建 Transformer
func NewTransformer(ref *refdata.Store, currentYear int) *Transformer {
	return &Transformer{ref: ref, currentYear: currentYear}
}

// MileageLog ln(公里数)。公里数必须为正，二手车公里数为0属于数据错误。
func (t *Transformer) MileageLog(km float64) (float64, error) {
	if km <= 0 {
		return 0, &model.ParseError{Field: "mileage", Value: strconv.FormatFloat(km, 'f', -1, 64)}
	}
	return math.Log(km), nil
}

// AgeLog ln(max(基准年份-注册年份, 0.5))
func (t *Transformer) AgeLog(regYear int) float64 {
	age := float64(t.currentYear - regYear)
	return math.Log(math.Max(age, minAge))
}

// RefPriceLog 车型参考均价的对数：ln(均价(千越南盾) * 1000)
func (t *Transformer) RefPriceLog(modelName string) (float64, error) {
	avg, err := t.ref.ModelRefPrice(modelName)
	if err != nil {
		return 0, err
	}
	return math.Log(avg * PriceScale), nil
}

// OriginMultiplier 出厂国家价格系数（输入须为已回填的国家名）
func (t *Transformer) OriginMultiplier(origin string) (float64, error) {
	return t.ref.CountryMultiplier(origin)
}

// ProvinceSCOLI 省级SCOLI指数（输入须为已规范化的省份名）
func (t *Transformer) ProvinceSCOLI(province string) (float64, error) {
	return t.ref.ProvinceSCOLI(province)
}

// ===== 列级包装：训练时按列批量变换 =====

// TransformMileage 对公里数列做log变换
func (t *Transformer) TransformMileage(kms []float64) ([]float64, error) {
	out := make([]float64, len(kms))
	for i, km := range kms {
		v, err := t.MileageLog(km)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// TransformRegYear 对注册年份列计算车龄对数
func (t *Transformer) TransformRegYear(years []int) []float64 {
	out := make([]float64, len(years))
	for i, y := range years {
		out[i] = t.AgeLog(y)
	}
	return out
}

// TransformModel 对车型列查参考价并取对数。
// 任何未匹配键都会让整列失败，错误信息列出全部未匹配键：
// 静默的NaN流入回归比直接中止更糟。
func (t *Transformer) TransformModel(models []string) ([]float64, error) {
	out := make([]float64, len(models))
	var missing []string
	seen := make(map[string]bool)
	for i, m := range models {
		v, err := t.RefPriceLog(m)
		if err != nil {
			if !seen[m] {
				seen[m] = true
				missing = append(missing, m)
			}
			continue
		}
		out[i] = v
	}
	if len(missing) > 0 {
		return nil, &model.LookupError{Table: "model_ref_price", Key: strings.Join(missing, ", ")}
	}
	return out, nil
}

// TransformOrigin 对出厂国家列查价格系数
func (t *Transformer) TransformOrigin(origins []string) ([]float64, error) {
	out := make([]float64, len(origins))
	var missing []string
	seen := make(map[string]bool)
	for i, origin := range origins {
		v, err := t.OriginMultiplier(origin)
		if err != nil {
			if !seen[origin] {
				seen[origin] = true
				missing = append(missing, origin)
			}
			continue
		}
		out[i] = v
	}
	if len(missing) > 0 {
		return nil, &model.LookupError{Table: "country_multiplier", Key: strings.Join(missing, ", ")}
	}
	return out, nil
}

// TransformProvince 对省份列查SCOLI指数
func (t *Transformer) TransformProvince(provinces []string) ([]float64, error) {
	out := make([]float64, len(provinces))
	var missing []string
	seen := make(map[string]bool)
	for i, p := range provinces {
		v, err := t.ProvinceSCOLI(p)
		if err != nil {
			if !seen[p] {
				seen[p] = true
				missing = append(missing, p)
			}
			continue
		}
		out[i] = v
	}
	if len(missing) > 0 {
		return nil, &model.LookupError{Table: "province_scoli", Key: strings.Join(missing, ", ")}
	}
	return out, nil
}

// FeatureVector 一条帖子变换后的全部特征值
type FeatureVector struct {
	AgeLog           float64 `json:"age_log"`
	MileageLog       float64 `json:"mileage_log"`
	OriginMultiplier float64 `json:"origin_multiplier"`
	RefPriceLog      float64 `json:"model_ref_price_log"`
	ProvinceSCOLI    float64 `json:"province_scoli"`
}

// TransformCleanListing 对一条已清洗帖子做全部五个变换（推理侧入口）
func (t *Transformer) TransformCleanListing(c CleanListing) (FeatureVector, error) {
	mileageLog, err := t.MileageLog(c.Mileage)
	if err != nil {
		return FeatureVector{}, err
	}
	refPriceLog, err := t.RefPriceLog(c.ModelKey)
	if err != nil {
		return FeatureVector{}, err
	}
	originMult, err := t.OriginMultiplier(c.Origin)
	if err != nil {
		return FeatureVector{}, err
	}
	scoli, err := t.ProvinceSCOLI(c.Province)
	if err != nil {
		return FeatureVector{}, err
	}
	return FeatureVector{
		AgeLog:           t.AgeLog(c.RegYear),
		MileageLog:       mileageLog,
		OriginMultiplier: originMult,
		RefPriceLog:      refPriceLog,
		ProvinceSCOLI:    scoli,
	}, nil
}
