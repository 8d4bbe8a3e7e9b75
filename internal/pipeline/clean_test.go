package pipeline

import (
	"errors"
	"testing"

	"MotoPrice/internal/model"
)

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"33.000.000 đ", 33_000},
		{"9.500.000đ", 9_500},
		{"120000000", 120_000},
		{" 45.000.000 đ ", 45_000},
	}
	for _, tt := range tests {
		got, err := CleanPrice(tt.raw)
		if err != nil {
			t.Errorf("CleanPrice(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CleanPrice(%q) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestCleanPriceInvalid(t *testing.T) {
	for _, raw := range []string{"", "thỏa thuận", "đ"} {
		_, err := CleanPrice(raw)
		if !errors.Is(err, model.ErrParse) {
			t.Errorf("CleanPrice(%q) error = %v; want ErrParse", raw, err)
		}
	}
}

func TestCleanRegYear(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"2021", 2021},
		{" 1995 ", 1995},
		{"trước năm 1980", 1980},
		{"Trước năm 1980", 1980},
	}
	for _, tt := range tests {
		got, err := CleanRegYear(tt.raw)
		if err != nil {
			t.Errorf("CleanRegYear(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CleanRegYear(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}

	if _, err := CleanRegYear("không rõ"); !errors.Is(err, model.ErrParse) {
		t.Errorf("CleanRegYear(không rõ) error = %v; want ErrParse", err)
	}
}

func TestProvinceFromLocation(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"Phường 5, Quận 3, Tp Hồ Chí Minh", "TP. Hồ Chí Minh"},
		{"Quận Cầu Giấy, Hà Nội", "Hà Nội"},
		{"Hải Châu, Đà Nẵng", "Đà Nẵng"},
		{"Thanh Hóa", "Thanh Hoá"},
		{"Xã A, Huyện B, Bà Rịa - Vũng Tàu", "Bà Rịa-Vũng Tàu"},
	}
	for _, tt := range tests {
		if got := ProvinceFromLocation(tt.location); got != tt.want {
			t.Errorf("ProvinceFromLocation(%q) = %q; want %q", tt.location, got, tt.want)
		}
	}
}

func TestIsVagueModel(t *testing.T) {
	if !IsVagueModel("Dòng khác") {
		t.Error("Dòng khác should be vague")
	}
	if IsVagueModel("SH 125i") {
		t.Error("SH 125i should not be vague")
	}
}

func TestResolveOrigin(t *testing.T) {
	tests := []struct {
		name        string
		origin      string
		title       string
		description string
		want        string
	}{
		{"explicit wins", "Nhật Bản", "xe thái chính chủ", "", "Nhật Bản"},
		{"placeholder falls through to text", "đang cập nhật", "Bán SH nhập thái", "", "Thái Lan"},
		{"nuoc khac falls through", "nước khác", "", "xe nhật nguyên bản", "Nhật Bản"},
		{"empty origin no keyword", "", "Bán xe chính chủ", "máy êm", "Việt Nam"},
		{"keyword must be whole word", "", "thailand tour", "", "Việt Nam"},
		{"description keyword", "", "", "hàng indonesia về", "Indonesia"},
	}
	for _, tt := range tests {
		got := ResolveOrigin(tt.origin, tt.title, tt.description)
		if got != tt.want {
			t.Errorf("%s: ResolveOrigin = %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestCleanListingRow(t *testing.T) {
	listing := model.Listing{
		ID:         7,
		Brand:      "Honda",
		Model:      "SH 125i",
		Origin:     "đang cập nhật",
		Location:   "Quận 1, Tp Hồ Chí Minh",
		RegYearRaw: "2021",
		Mileage:    10_000,
		PriceRaw:   "75.000.000 đ",
		Title:      "SH nhập thái 2021",
	}
	clean, err := CleanListingRow(listing)
	if err != nil {
		t.Fatalf("CleanListingRow failed: %v", err)
	}
	if clean.PriceThousand != 75_000 {
		t.Errorf("PriceThousand = %v; want 75000", clean.PriceThousand)
	}
	if clean.Origin != "Thái Lan" {
		t.Errorf("Origin = %q; want Thái Lan", clean.Origin)
	}
	if clean.Province != "TP. Hồ Chí Minh" {
		t.Errorf("Province = %q; want TP. Hồ Chí Minh", clean.Province)
	}
	if clean.RegYear != 2021 {
		t.Errorf("RegYear = %d; want 2021", clean.RegYear)
	}
}

func TestCleanListingRowRejectsNonPositiveMileage(t *testing.T) {
	listing := model.Listing{
		Brand: "Honda", Model: "Vision", Location: "Hà Nội",
		RegYearRaw: "2020", Mileage: 0, PriceRaw: "20.000.000 đ",
	}
	if _, err := CleanListingRow(listing); !errors.Is(err, model.ErrParse) {
		t.Errorf("error = %v; want ErrParse", err)
	}
}
