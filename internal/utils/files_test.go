package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/spedgrowth-cli/internal/utils"
)

func TestSafeWriteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "report.json")
	if err := utils.SafeWriteFile(p, []byte("{}")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "{}" {
		t.Fatalf("read back %q, %v", b, err)
	}
	if utils.FileExists(p + ".tmp") {
		t.Fatalf("temp file left behind")
	}
	if !utils.FileExists(p) || utils.FileExists(filepath.Dir(p)) {
		t.Fatalf("FileExists mismatch")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"schools": 3})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"schools\": 3") {
		t.Fatalf("unexpected json: %s", b)
	}
}
