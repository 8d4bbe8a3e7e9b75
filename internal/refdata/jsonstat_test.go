package refdata

import (
	"os"
	"path/filepath"
	"testing"
)

func writeJSONStat(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stat.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestReadJSONStatRowMajorOrder(t *testing.T) {
	// 2x3：值按行主序排列，第一维走得最慢
	path := writeJSONStat(t, `{
  "dataset": {
    "dimension": {
      "id": ["region", "year"],
      "size": [2, 3],
      "region": {
        "label": "Region",
        "category": {
          "index": {"a": 0, "b": 1},
          "label": {"a": "Alpha", "b": "Beta"}
        }
      },
      "year": {
        "label": "Year",
        "category": {
          "index": {"2021": 0, "2022": 1, "2023": 2},
          "label": {"2021": "2021", "2022": "2022", "2023": "2023"}
        }
      }
    },
    "value": [1, 2, 3, 4, 5, 6]
  }
}`)

	table, err := ReadJSONStat(path)
	if err != nil {
		t.Fatalf("ReadJSONStat failed: %v", err)
	}
	if len(table.Headers) != 3 || table.Headers[0] != "Region" || table.Headers[2] != "Value" {
		t.Errorf("headers = %v; want [Region Year Value]", table.Headers)
	}
	if len(table.Rows) != 6 {
		t.Fatalf("got %d rows; want 6", len(table.Rows))
	}

	want := []StatRow{
		{Labels: []string{"Alpha", "2021"}, Value: 1},
		{Labels: []string{"Alpha", "2022"}, Value: 2},
		{Labels: []string{"Alpha", "2023"}, Value: 3},
		{Labels: []string{"Beta", "2021"}, Value: 4},
		{Labels: []string{"Beta", "2022"}, Value: 5},
		{Labels: []string{"Beta", "2023"}, Value: 6},
	}
	for i, w := range want {
		got := table.Rows[i]
		if got.Value != w.Value || got.Labels[0] != w.Labels[0] || got.Labels[1] != w.Labels[1] {
			t.Errorf("row %d = %+v; want %+v", i, got, w)
		}
	}
}

func TestReadJSONStatSkipsNullValues(t *testing.T) {
	path := writeJSONStat(t, `{
  "dataset": {
    "dimension": {
      "id": ["p"],
      "size": [3],
      "p": {
        "category": {
          "index": {"x": 0, "y": 1, "z": 2},
          "label": {"x": "X", "y": "Y", "z": "Z"}
        }
      }
    },
    "value": [1.5, null, 2.5]
  }
}`)

	table, err := ReadJSONStat(path)
	if err != nil {
		t.Fatalf("ReadJSONStat failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows; want 2 (null skipped)", len(table.Rows))
	}
	if table.Rows[0].Labels[0] != "X" || table.Rows[1].Labels[0] != "Z" {
		t.Errorf("rows = %+v; want X and Z", table.Rows)
	}
	// 无label的维度id直接作表头
	if table.Headers[0] != "p" {
		t.Errorf("header = %q; want p", table.Headers[0])
	}
}

func TestReadJSONStatValueCountMismatch(t *testing.T) {
	path := writeJSONStat(t, `{
  "dataset": {
    "dimension": {
      "id": ["p"],
      "size": [2],
      "p": {"category": {"index": {"x": 0, "y": 1}, "label": {"x": "X", "y": "Y"}}}
    },
    "value": [1]
  }
}`)
	if _, err := ReadJSONStat(path); err == nil {
		t.Fatal("expected error for value count mismatch")
	}
}
