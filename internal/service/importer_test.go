package service

import (
	"os"
	"path/filepath"
	"testing"

	"MotoPrice/internal/model"
)

func writeListingCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestImporterReadCSV(t *testing.T) {
	im := NewListingImporter(nil, testLogger())
	path := writeListingCSV(t,
		"brand,model,reg_year,mileage,price,location,origin,title\n"+
			"Honda,SH 125i,2021,10000,75.000.000 đ,\"Quận 1, Tp Hồ Chí Minh\",Thái Lan,SH nhập thái\n"+
			"Yamaha,Exciter 155,2020,abc,40.000.000 đ,Hà Nội,,\n"+ // 里程不可解析：跳过
			"Honda,Vision 110,trước năm 1980,8000,9.000.000 đ,Hà Nội,,\n")

	listings, err := im.ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings; want 2", len(listings))
	}

	first := listings[0]
	if first.Brand != "Honda" || first.Model != "SH 125i" || first.Mileage != 10_000 {
		t.Errorf("first listing = %+v", first)
	}
	if first.ListingUUID == "" {
		t.Error("missing UUID should be generated")
	}
	if first.Source != model.SourceManual {
		t.Errorf("Source = %q; want manual", first.Source)
	}
	if first.Location != "Quận 1, Tp Hồ Chí Minh" {
		t.Errorf("Location = %q", first.Location)
	}
	if listings[1].RegYearRaw != "trước năm 1980" {
		t.Errorf("RegYearRaw = %q; want sentinel preserved", listings[1].RegYearRaw)
	}
}

func TestImporterMissingColumnFails(t *testing.T) {
	im := NewListingImporter(nil, testLogger())
	path := writeListingCSV(t, "brand,model\nHonda,SH\n")
	if _, err := im.ReadCSV(path); err == nil {
		t.Fatal("expected error for missing required columns")
	}
}
