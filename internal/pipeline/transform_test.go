package pipeline

import (
	"errors"
	"math"
	"testing"

	"MotoPrice/internal/model"
	"MotoPrice/internal/refdata"
)

const floatTol = 1e-12

func testStore() *refdata.Store {
	return refdata.NewStore(
		map[string]float64{"SH": 75_000, "Vision": 32_000, "Exciter": 50_000},
		map[string]float64{"Việt Nam": 1.0, "Thái Lan": 1.1, "Nhật Bản": 1.25},
		map[string]float64{"Hà Nội": 100.0, "TP. Hồ Chí Minh": 96.99},
	)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTol
}

func TestAgeLog(t *testing.T) {
	tr := NewTransformer(testStore(), 2025)

	tests := []struct {
		regYear int
		want    float64
	}{
		{2021, math.Log(4)},
		{2025, math.Log(0.5)}, // 同年注册：车龄下限0.5
		{2026, math.Log(0.5)}, // 未来年份同样被钳制
		{1980, math.Log(45)},
	}
	for _, tt := range tests {
		if got := tr.AgeLog(tt.regYear); !almostEqual(got, tt.want) {
			t.Errorf("AgeLog(%d) = %v; want %v", tt.regYear, got, tt.want)
		}
	}
}

func TestMileageLog(t *testing.T) {
	tr := NewTransformer(testStore(), 2025)

	got, err := tr.MileageLog(10_000)
	if err != nil {
		t.Fatalf("MileageLog(10000) failed: %v", err)
	}
	if !almostEqual(got, math.Log(10_000)) {
		t.Errorf("MileageLog(10000) = %v; want ln(10000)", got)
	}

	for _, km := range []float64{0, -5} {
		if _, err := tr.MileageLog(km); !errors.Is(err, model.ErrParse) {
			t.Errorf("MileageLog(%v) error = %v; want ErrParse", km, err)
		}
	}
}

func TestRefPriceLog(t *testing.T) {
	tr := NewTransformer(testStore(), 2025)

	got, err := tr.RefPriceLog("SH")
	if err != nil {
		t.Fatalf("RefPriceLog(SH) failed: %v", err)
	}
	// 参考价以千越南盾存储，取对数前还原为越南盾
	if want := math.Log(75_000 * PriceScale); !almostEqual(got, want) {
		t.Errorf("RefPriceLog(SH) = %v; want %v", got, want)
	}

	if _, err := tr.RefPriceLog("Wave"); !errors.Is(err, model.ErrLookup) {
		t.Errorf("RefPriceLog(Wave) error = %v; want ErrLookup", err)
	}
}

func TestTransformModelCollectsAllMissingKeys(t *testing.T) {
	tr := NewTransformer(testStore(), 2025)

	_, err := tr.TransformModel([]string{"SH", "Wave", "Sirius", "Wave"})
	if !errors.Is(err, model.ErrLookup) {
		t.Fatalf("error = %v; want ErrLookup", err)
	}
	var lookupErr *model.LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("error %v is not a *LookupError", err)
	}
	if lookupErr.Key != "Wave, Sirius" {
		t.Errorf("missing keys = %q; want \"Wave, Sirius\"", lookupErr.Key)
	}
}

func TestTransformRegYearBatchMatchesScalar(t *testing.T) {
	tr := NewTransformer(testStore(), 2025)

	years := []int{2010, 2020, 2025}
	got := tr.TransformRegYear(years)
	for i, y := range years {
		if !almostEqual(got[i], tr.AgeLog(y)) {
			t.Errorf("batch[%d] = %v; scalar = %v", i, got[i], tr.AgeLog(y))
		}
	}
}

func TestTransformCleanListing(t *testing.T) {
	tr := NewTransformer(testStore(), 2025)

	clean := CleanListing{
		Model:    "SH 125i",
		ModelKey: "SH",
		Origin:   "Thái Lan",
		Province: "Hà Nội",
		RegYear:  2021,
		Mileage:  10_000,
	}
	features, err := tr.TransformCleanListing(clean)
	if err != nil {
		t.Fatalf("TransformCleanListing failed: %v", err)
	}
	if !almostEqual(features.AgeLog, math.Log(4)) {
		t.Errorf("AgeLog = %v; want ln(4)", features.AgeLog)
	}
	if !almostEqual(features.MileageLog, math.Log(10_000)) {
		t.Errorf("MileageLog = %v; want ln(10000)", features.MileageLog)
	}
	if !almostEqual(features.OriginMultiplier, 1.1) {
		t.Errorf("OriginMultiplier = %v; want 1.1", features.OriginMultiplier)
	}
	if !almostEqual(features.RefPriceLog, math.Log(75_000*PriceScale)) {
		t.Errorf("RefPriceLog = %v; want ln(75000000)", features.RefPriceLog)
	}
	if !almostEqual(features.ProvinceSCOLI, 100.0) {
		t.Errorf("ProvinceSCOLI = %v; want 100", features.ProvinceSCOLI)
	}
}

func TestTransformCleanListingUnknownModel(t *testing.T) {
	tr := NewTransformer(testStore(), 2025)

	clean := CleanListing{
		Model: "Wave Alpha", ModelKey: "Wave", Origin: "Việt Nam",
		Province: "Hà Nội", RegYear: 2020, Mileage: 5_000,
	}
	if _, err := tr.TransformCleanListing(clean); !errors.Is(err, model.ErrLookup) {
		t.Errorf("error = %v; want ErrLookup", err)
	}
}
