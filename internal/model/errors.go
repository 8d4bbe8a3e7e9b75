package model

import (
	"errors"
	"fmt"
)

// 管道错误哨兵，供 errors.Is 判断错误类别
var (
	ErrLookup            = errors.New("lookup failed")
	ErrParse             = errors.New("parse failed")
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
	ErrModelUnavailable  = errors.New("model unavailable")
)

// LookupError 分类特征在参考表中无匹配（训练时必须中止，不允许静默兜底）
type LookupError struct {
	Table string // 参考表名：model_ref_price / country_multiplier / province_scoli
	Key   string // 未命中的键
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s: key %q not found", e.Table, e.Key)
}

func (e *LookupError) Unwrap() error { return ErrLookup }

// ParseError 原始字段（价格/年份/公里数）解析失败
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: invalid value %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s: invalid value %q", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// DimensionMismatchError 特征矩阵列数与模型期望不一致，永远是致命错误，禁止补列
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("feature matrix has %d columns, model expects %d", e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// ModelUnavailableError 模型文件缺失或反序列化失败，服务启动时即致命
type ModelUnavailableError struct {
	Path string
	Err  error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model artifact %s unavailable: %v", e.Path, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return ErrModelUnavailable }
