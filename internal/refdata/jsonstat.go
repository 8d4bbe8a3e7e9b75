package refdata

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonStatDoc JSON-stat 文档最外层结构（v1.x，dataset 包裹）
type jsonStatDoc struct {
	Dataset jsonStatDataset `json:"dataset"`
}

type jsonStatDataset struct {
	Dimension json.RawMessage `json:"dimension"`
	Value     []*float64      `json:"value"`
}

// jsonStatDimMeta dimension 对象中的 id/size 元信息
type jsonStatDimMeta struct {
	ID   []string `json:"id"`
	Size []int    `json:"size"`
}

// jsonStatDim 单个维度：label + category（index 为键到位置，label 为键到可读名）
type jsonStatDim struct {
	Label    string `json:"label"`
	Category struct {
		Index map[string]int    `json:"index"`
		Label map[string]string `json:"label"`
	} `json:"category"`
}

// StatRow JSON-stat 摊平后的一行：各维度的可读标签 + 数值
type StatRow struct {
	Labels []string
	Value  float64
}

// StatTable 摊平后的表：表头为各维度 label，末列固定为 Value
type StatTable struct {
	Headers []string
	Rows    []StatRow
}

// ReadJSONStat 读取 JSON-stat 文件并摊平为行表。
// 值数组按行主序排列：对第 i 个值，维度 d 的类别下标为 (i / stride_d) % size_d，
// 其中 stride_d 为 d 之后所有维度 size 的乘积；再经 category.index 反查出键，
// 输出该键的可读 label 而非机器下标。
func ReadJSONStat(filePath string) (*StatTable, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取JSON-stat文件失败: %w", err)
	}

	var doc jsonStatDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("解析JSON-stat文件失败: %w", err)
	}

	var meta jsonStatDimMeta
	if err := json.Unmarshal(doc.Dataset.Dimension, &meta); err != nil {
		return nil, fmt.Errorf("解析JSON-stat维度元信息失败: %w", err)
	}
	if len(meta.ID) == 0 || len(meta.ID) != len(meta.Size) {
		return nil, fmt.Errorf("JSON-stat维度元信息不完整: id=%v size=%v", meta.ID, meta.Size)
	}

	// dimension 对象同时含有 id/size 与各维度对象，需二次解析
	var dims map[string]json.RawMessage
	if err := json.Unmarshal(doc.Dataset.Dimension, &dims); err != nil {
		return nil, fmt.Errorf("解析JSON-stat维度失败: %w", err)
	}

	headers := make([]string, 0, len(meta.ID)+1)
	// 每个维度：位置 -> 可读label
	labelByPos := make([][]string, len(meta.ID))
	for d, dimID := range meta.ID {
		rawDim, ok := dims[dimID]
		if !ok {
			return nil, fmt.Errorf("JSON-stat缺少维度 %s", dimID)
		}
		var dim jsonStatDim
		if err := json.Unmarshal(rawDim, &dim); err != nil {
			return nil, fmt.Errorf("解析JSON-stat维度 %s 失败: %w", dimID, err)
		}
		header := dim.Label
		if header == "" {
			header = dimID
		}
		headers = append(headers, header)

		positions := make([]string, meta.Size[d])
		for key, pos := range dim.Category.Index {
			if pos < 0 || pos >= meta.Size[d] {
				return nil, fmt.Errorf("JSON-stat维度 %s 的类别 %s 下标越界: %d", dimID, key, pos)
			}
			label, ok := dim.Category.Label[key]
			if !ok {
				label = key
			}
			positions[pos] = label
		}
		labelByPos[d] = positions
	}
	headers = append(headers, "Value")

	// 行主序解码每个值的各维度位置
	total := 1
	for _, size := range meta.Size {
		total *= size
	}
	if len(doc.Dataset.Value) != total {
		return nil, fmt.Errorf("JSON-stat值数量 %d 与维度乘积 %d 不一致", len(doc.Dataset.Value), total)
	}

	table := &StatTable{Headers: headers}
	for i, v := range doc.Dataset.Value {
		if v == nil {
			continue // 缺测值直接跳过
		}
		labels := make([]string, len(meta.ID))
		stride := total
		for d := range meta.ID {
			stride /= meta.Size[d]
			labels[d] = labelByPos[d][(i/stride)%meta.Size[d]]
		}
		table.Rows = append(table.Rows, StatRow{Labels: labels, Value: *v})
	}
	return table, nil
}
