package pipeline

import (
	"strconv"
	"strings"
	"unicode"

	"MotoPrice/internal/model"
	"MotoPrice/internal/refdata"
)

// PriceScale 价格缩放因子：建模时把越南盾除以1000，数值范围更友好
const PriceScale = 1_000

// beforeYearSentinel 注册年份的哨兵文本（"1980年以前"），统一映射为1980
const beforeYearSentinel = "trước năm"

// vagueModels 车型为"其他"类哨兵值的帖子没有信号，整行丢弃
var vagueModels = map[string]bool{
	"Dòng khác": true,
	"dòng khác": true,
}

// provinceCanonical 省份常见变体拼写 -> SCOLI表的规范拼写
var provinceCanonical = map[string]string{
	"Tp Hồ Chí Minh":     "TP. Hồ Chí Minh",
	"Bà Rịa - Vũng Tàu":  "Bà Rịa-Vũng Tàu",
	"Thừa Thiên Huế":     "Thừa Thiên - Huế",
	"Thanh Hóa":          "Thanh Hoá",
	"Khánh Hòa":          "Khánh Hoà",
	"Hòa Bình":           "Hoà Bình",
}

// DomesticOrigin 国产（越南）出厂，系数基准1.0
const DomesticOrigin = "Việt Nam"

// originKeywords 标题/描述中的出厂国家关键词（含常见异体拼写）。
// 顺序固定，保证同一文本的解析结果可复现。
var originKeywords = []struct {
	Country  string
	Keywords []string
}{
	{"Thái Lan", []string{"thái", "thai lan", "xe thái"}},
	{"Nhật Bản", []string{"nhật", "nhat ban", "xe nhật"}},
	{"Indonesia", []string{"indonesia", "xe indo"}},
	{"Ý", []string{"ý", "italia"}},
	{"Mỹ", []string{"mỹ", "america", "xe mỹ"}},
	{"Trung Quốc", []string{"trung", "xe tq", "xe trung quốc", "trung quốc"}},
	{"Ấn Độ", []string{"ấn", "xe ấn", "an do"}},
	{"Hàn Quốc", []string{"hàn", "xe hàn", "han quoc"}},
	{"Đức", []string{"đức", "xe đức", "duc"}},
	{"Đài Loan", []string{"đài", "xe đài", "dai loan"}},
}

// unresolvedOrigins 需要从文本回填的出厂国家占位值
var unresolvedOrigins = map[string]bool{
	"đang cập nhật": true,
	"nước khác":     true,
}

// CleanPrice 把格式化价格串（如 "33.000.000 đ"）解析为千越南盾。
// 解析失败返回 ParseError。
func CleanPrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "đ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &model.ParseError{Field: "price", Value: raw}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &model.ParseError{Field: "price", Value: raw, Err: err}
	}
	return float64(v) / PriceScale, nil
}

// CleanRegYear 解析注册年份，"trước năm 1980" 哨兵映射为1980
func CleanRegYear(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(strings.ToLower(s), beforeYearSentinel) {
		return 1980, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, &model.ParseError{Field: "reg_year", Value: raw, Err: err}
	}
	return year, nil
}

// ProvinceFromLocation 取地址最后一个逗号段作为省份，并做规范化
func ProvinceFromLocation(location string) string {
	segments := strings.Split(location, ", ")
	return CanonicalProvince(strings.TrimSpace(segments[len(segments)-1]))
}

// CanonicalProvince 省份变体拼写归一到SCOLI表的规范拼写
func CanonicalProvince(province string) string {
	if canonical, ok := provinceCanonical[province]; ok {
		return canonical
	}
	return province
}

// IsVagueModel 车型是否为"其他"类哨兵值
func IsVagueModel(modelName string) bool {
	return vagueModels[modelName]
}

// ResolveOrigin 解析出厂国家。占位值（"đang cập nhật"/"nước khác"）或空值
// 先在标题+描述中按关键词词典匹配，匹配不到则默认国产。
func ResolveOrigin(origin, title, description string) string {
	trimmed := strings.TrimSpace(origin)
	if trimmed != "" && !unresolvedOrigins[strings.ToLower(trimmed)] {
		return trimmed
	}

	text := strings.ToLower(strings.TrimSpace(description + " " + title))
	for _, entry := range originKeywords {
		for _, keyword := range entry.Keywords {
			if containsWord(text, keyword) {
				return entry.Country
			}
		}
	}
	return DomesticOrigin
}

// containsWord 判断 text 是否包含整词 keyword（前后非字母数字）。
// 不用 regexp 的 \b：Go 的词边界按ASCII判定，对越南语变音字符不可靠。
func containsWord(text, keyword string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], keyword)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(keyword)
		if boundaryBefore(text, idx) && boundaryAfter(text, end) {
			return true
		}
		start = idx + 1
	}
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	runes := []rune(text[:idx])
	last := runes[len(runes)-1]
	return !unicode.IsLetter(last) && !unicode.IsDigit(last)
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	for _, r := range text[end:] {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}
	return true
}

// CleanListing 清洗后、特征转换前的一条帖子
type CleanListing struct {
	ID            uint64
	Brand         string
	Model         string  // 帖子原始车型名
	ModelKey      string  // 参考价表join用的规范化车型键
	Origin        string  // 已回填的出厂国家
	Province      string  // 已规范化的省份
	RegYear       int
	Mileage       float64 // 公里
	PriceThousand float64 // 千越南盾，训练数据专有
}

// CleanListingRow 清洗一条原始帖子（训练路径：价格必须可解析）
func CleanListingRow(l model.Listing) (CleanListing, error) {
	price, err := CleanPrice(l.PriceRaw)
	if err != nil {
		return CleanListing{}, err
	}
	regYear, err := CleanRegYear(l.RegYearRaw)
	if err != nil {
		return CleanListing{}, err
	}
	if l.Mileage <= 0 {
		return CleanListing{}, &model.ParseError{Field: "mileage", Value: strconv.FormatInt(l.Mileage, 10)}
	}
	return CleanListing{
		ID:            l.ID,
		Brand:         l.Brand,
		Model:         l.Model,
		ModelKey:      refdata.NormalizeModelKey(l.Model, l.Brand),
		Origin:        ResolveOrigin(l.Origin, l.Title, l.Description),
		Province:      ProvinceFromLocation(l.Location),
		RegYear:       regYear,
		Mileage:       float64(l.Mileage),
		PriceThousand: price,
	}, nil
}
