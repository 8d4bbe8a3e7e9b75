package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Postgres PostgresConfig `mapstructure:"postgres"` // PostgreSQL配置
	Data     DataConfig     `mapstructure:"data"`     // 参考数据文件路径
	Model    ModelConfig    `mapstructure:"model"`    // 模型产物路径
	Training TrainingConfig `mapstructure:"training"` // 训练参数
	Features FeatureFlags   `mapstructure:"features"` // 可选特征开关
	Predict  PredictConfig  `mapstructure:"predict"`  // 推理行为配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// DataConfig 参考数据文件路径
type DataConfig struct {
	RefPriceFile      string `mapstructure:"ref_price_file"`       // 车型参考价CSV（按版本）
	RefPriceExtraFile string `mapstructure:"ref_price_extra_file"` // 车型参考价人工补充CSV
	CountryFile       string `mapstructure:"country_file"`         // 出厂国家系数CSV
	ScoliFile         string `mapstructure:"scoli_file"`           // 省级SCOLI指数（JSON-stat）
	ProcessedDir      string `mapstructure:"processed_dir"`        // 训练中间产物输出目录
}

// ModelConfig 模型产物路径
type ModelConfig struct {
	Path        string `mapstructure:"path"`         // 回归模型JSON
	SummaryPath string `mapstructure:"summary_path"` // OLS文本摘要
	MetricsPath string `mapstructure:"metrics_path"` // 评估指标JSON
}

// TrainingConfig 训练参数
type TrainingConfig struct {
	CurrentYear   int     `mapstructure:"current_year"`    // 计算车龄的基准年份
	PriceMin      float64 `mapstructure:"price_min"`       // 价格下限（千越南盾，开区间）
	PriceMax      float64 `mapstructure:"price_max"`       // 价格上限（千越南盾，开区间）
	MileageMin    float64 `mapstructure:"mileage_min"`     // 公里数下限
	MileageMax    float64 `mapstructure:"mileage_max"`     // 公里数上限
	MinModelCount int     `mapstructure:"min_model_count"` // 每个车型最少帖子数
	TopNModels    int     `mapstructure:"top_n_models"`    // 替代模式：只取帖子最多的前N个车型（0表示关闭）
	TestSize      float64 `mapstructure:"test_size"`       // 测试集比例
	Seed          int64   `mapstructure:"seed"`            // 划分随机种子
}

// FeatureFlags 可选特征开关，训练与推理必须一致。
// json标签供模型产物序列化使用。
type FeatureFlags struct {
	IncludeOrigin   bool `mapstructure:"include_origin" json:"include_origin"`     // 是否加入出厂国家系数
	IncludeProvince bool `mapstructure:"include_province" json:"include_province"` // 是否加入省级SCOLI指数
}

// PredictConfig 推理行为配置
type PredictConfig struct {
	LookupFallback  bool   `mapstructure:"lookup_fallback"`  // 查表失败时是否使用文档化兜底值（显式开关，默认关闭）
	DefaultProvince string `mapstructure:"default_province"` // 未提供省份时的默认值
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
}

// ApplyDefaults 对未配置项填入文档化默认值
func ApplyDefaults(cfg *Config) {
	if cfg.Training.CurrentYear == 0 {
		cfg.Training.CurrentYear = 2025
	}
	if cfg.Training.PriceMin == 0 {
		cfg.Training.PriceMin = 1_000
	}
	if cfg.Training.PriceMax == 0 {
		cfg.Training.PriceMax = 600_000
	}
	if cfg.Training.MileageMin == 0 {
		cfg.Training.MileageMin = 500
	}
	if cfg.Training.MileageMax == 0 {
		cfg.Training.MileageMax = 900_000
	}
	if cfg.Training.MinModelCount == 0 {
		cfg.Training.MinModelCount = 30
	}
	if cfg.Training.TestSize == 0 {
		cfg.Training.TestSize = 0.2
	}
	if cfg.Training.Seed == 0 {
		cfg.Training.Seed = 42
	}
	if cfg.Predict.DefaultProvince == "" {
		cfg.Predict.DefaultProvince = "Hà Nội"
	}
}
