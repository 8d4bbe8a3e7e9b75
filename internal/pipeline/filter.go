package pipeline

import (
	"errors"
	"math"
	"sort"

	"MotoPrice/internal/config"
	"MotoPrice/internal/model"
)

// TrainingRow 清洗、过滤、变换后保留的一条训练样本
type TrainingRow struct {
	ListingID uint64
	Model     string // 规范化车型键，分组与排除规则都按键匹配
	Origin    string
	Province  string
	RegYear   int
	Mileage   float64
	Price     float64 // 千越南盾
	PriceLog  float64 // ln(价格/1000)
	Features  FeatureVector
}

// StageCount 单个过滤阶段的丢弃统计
type StageCount struct {
	Stage     string `json:"stage"`
	Dropped   int    `json:"dropped"`
	Remaining int    `json:"remaining"`
}

// FilterReport 各阶段丢弃统计，训练日志与审计用
type FilterReport []StageCount

// ExclusionRule 可插拔的坏记录排除规则。
// 具体规则是调参产物而非结构性需求，调用方可自由增删。
type ExclusionRule struct {
	Name  string
	Match func(r TrainingRow) bool // 返回true则该行被排除
}

// DefaultExclusionRules 当前已知的人工排除规则
func DefaultExclusionRules() []ExclusionRule {
	blocked := map[string]bool{"Vespa": true, "Cub": true, "R": true, "Dream": true}
	return []ExclusionRule{
		{
			// SH 存在一批可疑低价帖（小于3百万盾）
			Name: "sh_low_price",
			Match: func(r TrainingRow) bool {
				return r.Model == "SH" && r.Price < 3_000
			},
		},
		{
			Name: "model_blocklist",
			Match: func(r TrainingRow) bool {
				return blocked[r.Model]
			},
		},
	}
}

// BuildTrainingRows 清洗并变换原始帖子为训练样本。
// 可解析性、车型哨兵值、参考价缺失在此逐行处理并计数；
// 出厂国家与省份查表失败仍是硬错误（这两张表必须覆盖全部训练数据）。
func BuildTrainingRows(listings []model.Listing, t *Transformer) ([]TrainingRow, FilterReport, error) {
	report := FilterReport{}
	remaining := len(listings)

	cleaned := make([]CleanListing, 0, len(listings))
	dropped := 0
	for _, l := range listings {
		c, err := CleanListingRow(l)
		if err != nil {
			if errors.Is(err, model.ErrParse) {
				dropped++
				continue
			}
			return nil, nil, err
		}
		cleaned = append(cleaned, c)
	}
	remaining -= dropped
	report = append(report, StageCount{Stage: "unparsable", Dropped: dropped, Remaining: remaining})

	// 车型哨兵值
	kept := cleaned[:0]
	dropped = 0
	for _, c := range cleaned {
		if IsVagueModel(c.Model) {
			dropped++
			continue
		}
		kept = append(kept, c)
	}
	cleaned = kept
	remaining -= dropped
	report = append(report, StageCount{Stage: "vague_model", Dropped: dropped, Remaining: remaining})

	// 变换。参考价缺失的车型无法参与回归，逐行剔除并计数；
	// 其余查表失败向上抛（LookupError）。
	rows := make([]TrainingRow, 0, len(cleaned))
	dropped = 0
	for _, c := range cleaned {
		refPriceLog, err := t.RefPriceLog(c.ModelKey)
		if err != nil {
			if errors.Is(err, model.ErrLookup) {
				dropped++
				continue
			}
			return nil, nil, err
		}
		mileageLog, err := t.MileageLog(c.Mileage)
		if err != nil {
			dropped++
			continue
		}
		originMult, err := t.OriginMultiplier(c.Origin)
		if err != nil {
			return nil, nil, err
		}
		scoli, err := t.ProvinceSCOLI(c.Province)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, TrainingRow{
			ListingID: c.ID,
			Model:     c.ModelKey,
			Origin:    c.Origin,
			Province:  c.Province,
			RegYear:   c.RegYear,
			Mileage:   c.Mileage,
			Price:     c.PriceThousand,
			PriceLog:  math.Log(c.PriceThousand),
			Features: FeatureVector{
				AgeLog:           t.AgeLog(c.RegYear),
				MileageLog:       mileageLog,
				OriginMultiplier: originMult,
				RefPriceLog:      refPriceLog,
				ProvinceSCOLI:    scoli,
			},
		})
	}
	remaining -= dropped
	report = append(report, StageCount{Stage: "no_ref_price", Dropped: dropped, Remaining: remaining})

	return rows, report, nil
}

// FilterTraining 训练专属过滤：价格开区间、最少帖子数（或TopN模式）、
// 排除规则、公里数范围。推理输入不经过本函数。
func FilterTraining(rows []TrainingRow, cfg config.TrainingConfig, rules []ExclusionRule) ([]TrainingRow, FilterReport) {
	report := FilterReport{}
	remaining := len(rows)

	// 价格须严格落在 (PriceMin, PriceMax) 开区间内
	kept := make([]TrainingRow, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if r.Price > cfg.PriceMin && r.Price < cfg.PriceMax {
			kept = append(kept, r)
		} else {
			dropped++
		}
	}
	rows = kept
	remaining -= dropped
	report = append(report, StageCount{Stage: "price_bounds", Dropped: dropped, Remaining: remaining})

	// 车型最少帖子数 / TopN替代模式
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Model]++
	}
	allowed := make(map[string]bool)
	if cfg.TopNModels > 0 {
		type modelCount struct {
			model string
			count int
		}
		ranked := make([]modelCount, 0, len(counts))
		for m, c := range counts {
			ranked = append(ranked, modelCount{m, c})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].count != ranked[j].count {
				return ranked[i].count > ranked[j].count
			}
			return ranked[i].model < ranked[j].model
		})
		for i := 0; i < len(ranked) && i < cfg.TopNModels; i++ {
			allowed[ranked[i].model] = true
		}
	} else {
		for m, c := range counts {
			if c >= cfg.MinModelCount {
				allowed[m] = true
			}
		}
	}
	kept = rows[:0]
	dropped = 0
	for _, r := range rows {
		if allowed[r.Model] {
			kept = append(kept, r)
		} else {
			dropped++
		}
	}
	rows = kept
	remaining -= dropped
	report = append(report, StageCount{Stage: "min_support", Dropped: dropped, Remaining: remaining})

	// 人工排除规则
	for _, rule := range rules {
		kept = rows[:0]
		dropped = 0
		for _, r := range rows {
			if rule.Match(r) {
				dropped++
			} else {
				kept = append(kept, r)
			}
		}
		rows = kept
		remaining -= dropped
		report = append(report, StageCount{Stage: rule.Name, Dropped: dropped, Remaining: remaining})
	}

	// 公里数范围
	kept = rows[:0]
	dropped = 0
	for _, r := range rows {
		if r.Mileage >= cfg.MileageMin && r.Mileage <= cfg.MileageMax {
			kept = append(kept, r)
		} else {
			dropped++
		}
	}
	rows = kept
	remaining -= dropped
	report = append(report, StageCount{Stage: "mileage_bounds", Dropped: dropped, Remaining: remaining})

	return rows, report
}
