package verify

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vyquocvu/blockview/verify/internal/config"
)

func testArtifacts(t *testing.T) *Artifacts {
	t.Helper()
	cfg := config.Default()
	cfg.Artifacts.Dir = t.TempDir()
	return NewArtifacts(cfg.Artifacts, nil)
}

func TestArtifactPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Artifacts.Dir = "verification"
	a := NewArtifacts(cfg.Artifacts, nil)

	if got := a.SuccessPath(); got != filepath.Join("verification", "verification.png") {
		t.Errorf("success path = %q", got)
	}
	if got := a.ErrorPath(); got != filepath.Join("verification", "error_screenshot.png") {
		t.Errorf("error path = %q", got)
	}
}

func TestRenderSnapshot(t *testing.T) {
	a := testArtifacts(t)

	raw := `<!doctype html><html><head><title>BlockView</title>
<script>alert("tracked")</script></head><body>
<h2>Transaction</h2>
<p>0xdeadbeef</p>
<h3>Transaction Trace</h3>
<table><thead><tr><th>Op</th><th>Gas</th></tr></thead>
<tbody><tr><td>CALL</td><td>21000</td></tr></tbody></table>
</body></html>`

	out := string(a.RenderSnapshot(raw))

	if !strings.HasPrefix(out, "# BlockView\n") {
		t.Errorf("snapshot missing title heading:\n%s", out)
	}
	if !strings.Contains(out, "0xdeadbeef") {
		t.Error("snapshot lost the transaction hash")
	}
	if !strings.Contains(out, "Transaction Trace") {
		t.Error("snapshot lost the trace heading")
	}
	if strings.Contains(out, "alert(") {
		t.Error("script content survived sanitisation")
	}
}

func TestRenderSnapshotEmptyBody(t *testing.T) {
	a := testArtifacts(t)
	out := string(a.RenderSnapshot("<html><head><title>t</title></head><body></body></html>"))
	if out == "" {
		t.Error("snapshot should never be empty")
	}
}

func TestMdName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"verification.png", "verification.md"},
		{"error_screenshot.png", "error_screenshot.md"},
		{"plain", "plain.md"},
	}
	for _, tt := range tests {
		if got := mdName(tt.in); got != tt.want {
			t.Errorf("mdName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteReport(t *testing.T) {
	a := testArtifacts(t)

	// A real PNG is required: pdfcpu decodes the image to size the page.
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	shot := filepath.Join(a.cfg.Dir, "verification.png")
	f, err := os.Create(shot)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	out, err := a.WriteReport(shot, filepath.Join(a.cfg.Dir, "missing.png"))
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("report is empty")
	}
}

func TestWriteReportNoInputs(t *testing.T) {
	a := testArtifacts(t)
	if _, err := a.WriteReport(filepath.Join(a.cfg.Dir, "missing.png")); err == nil {
		t.Error("expected error when no artifacts exist")
	}
}
