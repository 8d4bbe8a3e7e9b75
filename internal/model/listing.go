package model

import (
	"time"
)

// ListingSource 二手车帖子来源平台
type ListingSource string

const (
	SourceChotot    ListingSource = "chotot"
	SourceVnexpress ListingSource = "vnexpress"
	SourceManual    ListingSource = "manual" // 手工导入（CSV）
)

// Listing 二手摩托车原始帖子（爬虫/导入写入，之后只读）
type Listing struct {
	ID          uint64        `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	ListingUUID string        `gorm:"column:listing_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	Source      ListingSource `gorm:"column:source;type:varchar(32);index;not null;comment:来源平台"`
	Brand       string        `gorm:"column:brand;type:varchar(64);not null;comment:品牌"`
	Model       string        `gorm:"column:model;type:varchar(128);index;not null;comment:车型"`
	Variant     string        `gorm:"column:variant;type:varchar(128);comment:版本"`
	Origin      string        `gorm:"column:origin;type:varchar(64);comment:出厂国家（自由文本）"`
	Location    string        `gorm:"column:location;type:varchar(256);comment:地址，最后一个逗号段为省份"`
	RegYearRaw  string        `gorm:"column:reg_year_raw;type:varchar(32);comment:注册年份原文（可能为 trước năm 1980）"`
	Mileage     int64         `gorm:"column:mileage;type:bigint;comment:已行驶公里数"`
	PriceRaw    string        `gorm:"column:price_raw;type:varchar(64);comment:价格原文（如 33.000.000 đ）"`
	Title       string        `gorm:"column:title;type:varchar(512);comment:帖子标题"`
	Description string        `gorm:"column:description;type:text;comment:帖子描述"`
	CrawledAt   time.Time     `gorm:"column:crawled_at;type:timestamp;comment:抓取时间"`
	CreatedAt   time.Time     `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
}

func (Listing) TableName() string { return "listings" }
