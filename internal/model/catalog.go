package model

import (
	"time"

	"gorm.io/datatypes"
)

// Motorbike 车型目录（新车参考信息，支撑品牌/车型/版本查询接口）
type Motorbike struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Brand        string         `gorm:"column:brand;type:varchar(64);index;not null;comment:品牌"`
	Model        string         `gorm:"column:model;type:varchar(128);index;not null;comment:车型"`
	Variant      string         `gorm:"column:variant;type:varchar(128);comment:版本"`
	Segment      string         `gorm:"column:segment;type:varchar(64);index;comment:细分市场（tay ga/xe số/...）"`
	EngineCC     int            `gorm:"column:engine_cc;type:int;comment:排量"`
	PriceNew     float64        `gorm:"column:price_new;type:numeric(18,2);comment:新车参考价（千越南盾）"`
	AvgPriceUsed float64        `gorm:"column:avg_price_used;type:numeric(18,2);comment:二手平均价（千越南盾）"`
	Features     datatypes.JSON `gorm:"column:features;type:jsonb;comment:配置信息"`
	Description  string         `gorm:"column:description;type:text;comment:介绍"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

func (Motorbike) TableName() string { return "motorbikes" }
