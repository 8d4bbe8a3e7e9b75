package refdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"MotoPrice/internal/config"
	"MotoPrice/internal/model"

	"github.com/sirupsen/logrus"
)

// Store 三张参考表的只读镜像，进程启动时构建一次。
// 构建完成后不再修改，可被并发请求处理器无锁共享；
// 刷新参考数据时整体重建并原子替换（见 Holder），禁止原地改写。
type Store struct {
	modelRefPrice     map[string]float64 // 规范化车型 -> 参考均价（千越南盾）
	countryMultiplier map[string]float64 // 国家名 -> 价格系数
	provinceSCOLI     map[string]float64 // 省份规范名 -> SCOLI指数
	medianRefPrice    float64            // 参考价中位数，仅供显式兜底路径使用
}

// multiWordModels 车型键提取的特例：必须先于首词规则匹配的多词车型
var multiWordModels = []struct {
	Contains string
	Model    string
}{
	{"Air Blade", "Air Blade"},
	{"SH Mode", "SH Mode"},
	{"Super Cub", "Cub"},
	{"Winner X", "Winner X"},
}

// NormalizeModelKey 从完整车型名推导用于join的车型键。
// 多词特例与 Vespa 整品牌覆盖优先，其余取第一个空白分隔词。
func NormalizeModelKey(modelName, brandName string) string {
	for _, special := range multiWordModels {
		if strings.Contains(modelName, special.Contains) {
			return special.Model
		}
	}
	if brandName == "Vespa" {
		return "Vespa"
	}
	fields := strings.Fields(modelName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// NewStore 由已就绪的参考表直接构建 Store，文件加载之外的构建入口
func NewStore(modelRefPrice, countryMultiplier, provinceSCOLI map[string]float64) *Store {
	return &Store{
		modelRefPrice:     modelRefPrice,
		countryMultiplier: countryMultiplier,
		provinceSCOLI:     provinceSCOLI,
		medianRefPrice:    median(modelRefPrice),
	}
}

// Load 加载三张参考表并构建 Store
func Load(cfg *config.DataConfig, logger *logrus.Logger) (*Store, error) {
	refPrice, err := loadModelRefPrice(cfg.RefPriceFile, cfg.RefPriceExtraFile)
	if err != nil {
		return nil, fmt.Errorf("加载车型参考价失败: %w", err)
	}
	countries, err := loadCountryMultiplier(cfg.CountryFile)
	if err != nil {
		return nil, fmt.Errorf("加载国家系数失败: %w", err)
	}
	scoli, err := loadProvinceSCOLI(cfg.ScoliFile)
	if err != nil {
		return nil, fmt.Errorf("加载省级SCOLI失败: %w", err)
	}

	store := &Store{
		modelRefPrice:     refPrice,
		countryMultiplier: countries,
		provinceSCOLI:     scoli,
		medianRefPrice:    median(refPrice),
	}
	logger.Infof("参考数据加载完成: 车型参考价%d条, 国家系数%d条, 省级SCOLI%d条",
		len(refPrice), len(countries), len(scoli))
	return store, nil
}

// ModelRefPrice 查车型参考均价（千越南盾），未命中返回 LookupError
func (s *Store) ModelRefPrice(modelKey string) (float64, error) {
	v, ok := s.modelRefPrice[modelKey]
	if !ok {
		return 0, &model.LookupError{Table: "model_ref_price", Key: modelKey}
	}
	return v, nil
}

// CountryMultiplier 查出厂国家价格系数，未命中返回 LookupError
func (s *Store) CountryMultiplier(country string) (float64, error) {
	v, ok := s.countryMultiplier[country]
	if !ok {
		return 0, &model.LookupError{Table: "country_multiplier", Key: country}
	}
	return v, nil
}

// ProvinceSCOLI 查省级SCOLI指数，未命中返回 LookupError
func (s *Store) ProvinceSCOLI(province string) (float64, error) {
	v, ok := s.provinceSCOLI[province]
	if !ok {
		return 0, &model.LookupError{Table: "province_scoli", Key: province}
	}
	return v, nil
}

// MedianRefPrice 参考价中位数（千越南盾），只用于推理侧显式开启的兜底路径
func (s *Store) MedianRefPrice() float64 { return s.medianRefPrice }

// Sizes 各参考表条数，重载接口回显用
func (s *Store) Sizes() (models, countries, provinces int) {
	return len(s.modelRefPrice), len(s.countryMultiplier), len(s.provinceSCOLI)
}

// loadModelRefPrice 从版本级CSV推导车型级参考均价，再并入人工补充表。
// 规则：丢弃缺失 price_min 的行；price_avg=(min+max)/2；
// 按 NormalizeModelKey 分组求均值；extra 表的行直接并入结果。
func loadModelRefPrice(variantPath, extraPath string) (map[string]float64, error) {
	records, header, err := readCSV(variantPath)
	if err != nil {
		return nil, err
	}
	required := []string{"model_name", "brand_name", "price_min", "price_max"}
	cols, err := columnIndex(header, required)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", variantPath, err)
	}

	sum := make(map[string]float64)
	count := make(map[string]int)
	for _, rec := range records {
		minRaw := strings.TrimSpace(rec[cols["price_min"]])
		if minRaw == "" {
			continue // 缺最低价的版本不参与均值
		}
		priceMin, err := strconv.ParseFloat(minRaw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: price_min %q 不是数字", variantPath, minRaw)
		}
		priceMax, err := strconv.ParseFloat(strings.TrimSpace(rec[cols["price_max"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: price_max %q 不是数字", variantPath, rec[cols["price_max"]])
		}
		key := NormalizeModelKey(rec[cols["model_name"]], rec[cols["brand_name"]])
		if key == "" {
			continue
		}
		sum[key] += (priceMin + priceMax) / 2
		count[key]++
	}

	result := make(map[string]float64, len(sum))
	for key, total := range sum {
		result[key] = total / float64(count[key])
	}

	// 人工补充表：覆盖版本表没有的车型
	if extraPath != "" {
		extraRecords, extraHeader, err := readCSV(extraPath)
		if err != nil {
			return nil, err
		}
		extraCols, err := columnIndex(extraHeader, []string{"model", "price_avg"})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", extraPath, err)
		}
		for _, rec := range extraRecords {
			priceAvg, err := strconv.ParseFloat(strings.TrimSpace(rec[extraCols["price_avg"]]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: price_avg %q 不是数字", extraPath, rec[extraCols["price_avg"]])
			}
			result[strings.TrimSpace(rec[extraCols["model"]])] = priceAvg
		}
	}

	for key, price := range result {
		if price <= 0 {
			return nil, fmt.Errorf("车型 %s 的参考均价必须为正数, 实际为 %v", key, price)
		}
	}
	return result, nil
}

// loadCountryMultiplier 读取国家系数表（country_name, country_multiplier）
func loadCountryMultiplier(path string) (map[string]float64, error) {
	records, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, []string{"country_name", "country_multiplier"})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	result := make(map[string]float64, len(records))
	for _, rec := range records {
		mult, err := strconv.ParseFloat(strings.TrimSpace(rec[cols["country_multiplier"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: country_multiplier %q 不是数字", path, rec[cols["country_multiplier"]])
		}
		result[strings.TrimSpace(rec[cols["country_name"]])] = mult
	}
	return result, nil
}

// loadProvinceSCOLI 读取JSON-stat格式的SCOLI数据集并摊平为 省份->指数
func loadProvinceSCOLI(path string) (map[string]float64, error) {
	table, err := ReadJSONStat(path)
	if err != nil {
		return nil, err
	}
	result := make(map[string]float64, len(table.Rows))
	for _, row := range table.Rows {
		if len(row.Labels) == 0 {
			continue
		}
		// 第一维为省份，其余维（年份）固定为参考年
		result[row.Labels[0]] = row.Value
	}
	return result, nil
}

// readCSV 读CSV并分离表头
func readCSV(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("打开CSV失败: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("读取CSV失败 %s: %w", path, err)
	}
	if len(all) < 1 {
		return nil, nil, fmt.Errorf("CSV为空: %s", path)
	}
	return all[1:], all[0], nil
}

// columnIndex 校验必需列并返回列名->下标
func columnIndex(header []string, required []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("缺少必需列 %s", name)
		}
	}
	return index, nil
}

func median(values map[string]float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		sorted = append(sorted, v)
	}
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
