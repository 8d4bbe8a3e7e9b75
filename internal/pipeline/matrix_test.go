package pipeline

import (
	"math"
	"testing"

	"MotoPrice/internal/config"
)

func allFlags() config.FeatureFlags {
	return config.FeatureFlags{IncludeOrigin: true, IncludeProvince: true}
}

func TestWidth(t *testing.T) {
	tests := []struct {
		flags config.FeatureFlags
		want  int
	}{
		{config.FeatureFlags{IncludeOrigin: true, IncludeProvince: true}, 8},
		{config.FeatureFlags{IncludeOrigin: true}, 7},
		{config.FeatureFlags{IncludeProvince: true}, 7},
		{config.FeatureFlags{}, 6},
	}
	for _, tt := range tests {
		if got := Width(tt.flags); got != tt.want {
			t.Errorf("Width(%+v) = %d; want %d", tt.flags, got, tt.want)
		}
	}
}

func TestBuildRowOrder(t *testing.T) {
	v := FeatureVector{
		AgeLog:           math.Log(4),
		MileageLog:       math.Log(10_000),
		OriginMultiplier: 1.0,
		RefPriceLog:      math.Log(75_000 * PriceScale),
		ProvinceSCOLI:    100.0,
	}
	row := BuildRow(v, allFlags())
	want := []float64{
		1,
		math.Log(4),
		math.Log(4) * math.Log(4),
		math.Log(4) * math.Log(4) * math.Log(4),
		math.Log(10_000),
		1.0,
		math.Log(75_000 * PriceScale),
		100.0,
	}
	if len(row) != len(want) {
		t.Fatalf("row length = %d; want %d", len(row), len(want))
	}
	for i := range want {
		if !almostEqual(row[i], want[i]) {
			t.Errorf("row[%d] = %v; want %v", i, row[i], want[i])
		}
	}
}

func TestBuildRowWithoutOptionalColumns(t *testing.T) {
	v := FeatureVector{AgeLog: 1, MileageLog: 2, OriginMultiplier: 9, RefPriceLog: 3, ProvinceSCOLI: 9}
	row := BuildRow(v, config.FeatureFlags{})
	want := []float64{1, 1, 1, 1, 2, 3}
	if len(row) != len(want) {
		t.Fatalf("row length = %d; want %d", len(row), len(want))
	}
	for i := range want {
		if !almostEqual(row[i], want[i]) {
			t.Errorf("row[%d] = %v; want %v", i, row[i], want[i])
		}
	}
}

// 同一条特征向量经批量与单行路径组装的行必须完全一致
func TestBuildMatrixMatchesBuildRow(t *testing.T) {
	vectors := []FeatureVector{
		{AgeLog: math.Log(4), MileageLog: math.Log(10_000), OriginMultiplier: 1.0, RefPriceLog: 18.1, ProvinceSCOLI: 100},
		{AgeLog: math.Log(0.5), MileageLog: math.Log(500), OriginMultiplier: 1.1, RefPriceLog: 17.2, ProvinceSCOLI: 96.99},
		{AgeLog: math.Log(12), MileageLog: math.Log(250_000), OriginMultiplier: 0.8, RefPriceLog: 16.9, ProvinceSCOLI: 94.5},
	}
	X := BuildMatrix(vectors, allFlags())

	rows, cols := X.Dims()
	if rows != len(vectors) || cols != Width(allFlags()) {
		t.Fatalf("dims = (%d, %d); want (%d, %d)", rows, cols, len(vectors), Width(allFlags()))
	}
	for i, v := range vectors {
		single := BuildRow(v, allFlags())
		for j := range single {
			if !almostEqual(X.At(i, j), single[j]) {
				t.Errorf("X[%d][%d] = %v; BuildRow = %v", i, j, X.At(i, j), single[j])
			}
		}
	}
}
