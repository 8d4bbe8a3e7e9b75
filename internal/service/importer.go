package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"MotoPrice/internal/model"
	"MotoPrice/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ListingImporter 爬虫导出CSV -> listings 表/内存切片
type ListingImporter struct {
	repo   repository.ListingRepository
	logger *logrus.Logger
}

// NewListingImporter 创建 ListingImporter，repo 可为 nil（仅读CSV不入库）
func NewListingImporter(repo repository.ListingRepository, logger *logrus.Logger) *ListingImporter {
	return &ListingImporter{repo: repo, logger: logger}
}

// csv 必填列；variant/origin/title/description 等列可缺省
var requiredListingColumns = []string{"brand", "model", "reg_year", "mileage", "price", "location"}

// ReadCSV 解析帖子CSV，缺失UUID的行补发
func (im *ListingImporter) ReadCSV(path string) ([]model.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开帖子CSV失败: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取帖子CSV失败: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("帖子CSV为空: %s", path)
	}

	header := records[0]
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range requiredListingColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("帖子CSV缺少列 %q: %s", col, path)
		}
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	listings := make([]model.Listing, 0, len(records)-1)
	skipped := 0
	for _, row := range records[1:] {
		mileage, err := strconv.ParseInt(strings.ReplaceAll(field(row, "mileage"), ".", ""), 10, 64)
		if err != nil {
			skipped++
			continue
		}
		listingUUID := field(row, "uuid")
		if listingUUID == "" {
			listingUUID = uuid.NewString()
		}
		source := model.ListingSource(field(row, "source"))
		if source == "" {
			source = model.SourceManual
		}
		listings = append(listings, model.Listing{
			ListingUUID: listingUUID,
			Source:      source,
			Brand:       field(row, "brand"),
			Model:       field(row, "model"),
			Variant:     field(row, "variant"),
			Origin:      field(row, "origin"),
			Location:    field(row, "location"),
			RegYearRaw:  field(row, "reg_year"),
			Mileage:     mileage,
			PriceRaw:    field(row, "price"),
			Title:       field(row, "title"),
			Description: field(row, "description"),
			CrawledAt:   time.Now(),
		})
	}
	if skipped > 0 {
		im.logger.Warnf("帖子CSV有%d行里程不可解析, 已跳过", skipped)
	}
	im.logger.Infof("从 %s 读取到%d条帖子", path, len(listings))
	return listings, nil
}

// Ingest 读CSV并批量写入数据库
func (im *ListingImporter) Ingest(ctx context.Context, path string) (int, error) {
	if im.repo == nil {
		return 0, fmt.Errorf("未配置数据库, 无法入库")
	}
	listings, err := im.ReadCSV(path)
	if err != nil {
		return 0, err
	}
	batch := make([]*model.Listing, len(listings))
	for i := range listings {
		batch[i] = &listings[i]
	}
	if err := im.repo.SaveBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("帖子入库失败: %w", err)
	}
	return len(listings), nil
}
