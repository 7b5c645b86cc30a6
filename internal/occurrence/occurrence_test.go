package occurrence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc"+LogExt)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRead(t *testing.T) {
	path := writeLog(t, `[
  {"key": "TestBook", "page": "p.~312"},
  {"key": "TestBook", "page": "pp.~45-67"},
  {"key": "TestBook", "page": "p.~312"},
  {"key": "NoPage"},
  {"key": "NullPage", "page": null}
]`)

	occs, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	want := []Occurrence{
		{Key: "TestBook", Page: "p.~312"},
		{Key: "TestBook", Page: "pp.~45-67"},
		{Key: "TestBook", Page: "p.~312"},
		{Key: "NoPage"},
		{Key: "NullPage"},
	}
	if len(occs) != len(want) {
		t.Fatalf("Read() returned %d occurrences, want %d", len(occs), len(want))
	}
	for i := range want {
		if occs[i] != want[i] {
			t.Errorf("occurrence %d = %+v, want %+v", i, occs[i], want[i])
		}
	}
	if occs[3].HasPage() {
		t.Error("HasPage() should be false when page is absent")
	}
}

func TestRead_EmptyList(t *testing.T) {
	occs, err := Read(writeLog(t, "[]"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(occs) != 0 {
		t.Errorf("Read() = %v, want empty", occs)
	}
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "never-built"+LogExt))
	if !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("Read() error = %v, want ErrLogNotFound", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() should be true")
	}
	var fe *FormatError
	if errors.As(err, &fe) {
		t.Error("a missing log must not be reported as a format error")
	}
}

func TestRead_Malformed(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantRecord int
	}{
		{name: "not json", content: `\gbentry{Book1}{p.~3}`},
		{name: "empty file", content: "  \n"},
		{name: "object instead of list", content: `{"key": "A"}`},
		{name: "null", content: "null\n"},
		{name: "string", content: `"[]"`},
		{name: "truncated", content: `[{"key": "A", "page": "p.~1"},`},
		{name: "missing key", content: `[{"key": "A"}, {"page": "p.~2"}]`, wantRecord: 2},
		{name: "empty key", content: `[{"key": ""}]`, wantRecord: 1},
		{name: "numeric page", content: `[{"key": "A", "page": 12}]`, wantRecord: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(writeLog(t, tt.content))
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Read() error = %v, want *FormatError", err)
			}
			if fe.Record != tt.wantRecord {
				t.Errorf("Record = %d, want %d", fe.Record, tt.wantRecord)
			}
			if IsNotFound(err) {
				t.Error("a malformed log must not be reported as missing")
			}
		})
	}
}
