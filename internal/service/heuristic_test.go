package service

import (
	"errors"
	"testing"
)

func TestHeuristicPredict(t *testing.T) {
	h := NewHeuristicPredictor(testLogger())

	input := PredictionInput{
		Brand:     "Honda",
		Model:     "Lead 125",
		RegYear:   2023,
		Mileage:   10_000,
		EngineCC:  125,
		Condition: "Tốt",
		Province:  "Hà Nội",
	}
	result, err := h.Predict(input, 2025)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	// 20 × 125/100 × 0.95² × 0.99 × 1.0 × 1.05 ≈ 23.45百万
	if result.Price != 23_453_719 {
		t.Errorf("Price = %d; want 23453719", result.Price)
	}
	if result.Method != "heuristic" {
		t.Errorf("Method = %q; want heuristic", result.Method)
	}
	if result.Unit != "VND" {
		t.Errorf("Unit = %q; want VND", result.Unit)
	}
}

func TestHeuristicDefaults(t *testing.T) {
	h := NewHeuristicPredictor(testLogger())

	// 未知品牌、无排量、无车况、无省份：全部取默认档
	input := PredictionInput{Brand: "Kymco", RegYear: 2025, Mileage: 1_000}
	result, err := h.Predict(input, 2025)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	// 15 × 100/100 × 0.95⁰ × 0.999 × 1.0 × 0.95
	if result.Price != 14_235_750 {
		t.Errorf("Price = %d; want 14235750", result.Price)
	}
}

func TestHeuristicMileageFloor(t *testing.T) {
	h := NewHeuristicPredictor(testLogger())

	// 超高里程：里程折旧钳制在0，价格不为负
	input := PredictionInput{Brand: "Honda", RegYear: 2020, Mileage: 2_000_000}
	result, err := h.Predict(input, 2025)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if result.Price != 0 {
		t.Errorf("Price = %d; want 0 with mileage factor floored", result.Price)
	}
}

func TestHeuristicValidation(t *testing.T) {
	h := NewHeuristicPredictor(testLogger())

	if _, err := h.Predict(PredictionInput{RegYear: 2020}, 2025); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing brand: error = %v; want ErrInvalidInput", err)
	}
	if _, err := h.Predict(PredictionInput{Brand: "Honda", RegYear: 2030}, 2025); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("future reg_year: error = %v; want ErrInvalidInput", err)
	}
}
