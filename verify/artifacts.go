// CLAUDE:SUMMARY Writes run artifacts: screenshot paths, sanitised DOM-to-markdown snapshots, and the optional PDF report.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vyquocvu/blockview/verify/internal/browser"
	"github.com/vyquocvu/blockview/verify/internal/config"
)

// Artifacts resolves and writes the files a verification run leaves behind.
// Paths are fixed per configuration and overwritten on each run.
type Artifacts struct {
	cfg       config.ArtifactsConfig
	logger    *slog.Logger
	sanitizer *bluemonday.Policy
	md        *converter.Converter
}

// NewArtifacts creates an artifact writer for the given configuration.
func NewArtifacts(cfg config.ArtifactsConfig, logger *slog.Logger) *Artifacts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Artifacts{
		cfg:       cfg,
		logger:    logger,
		sanitizer: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// SuccessPath is the screenshot path for a run that reached a terminal state.
func (a *Artifacts) SuccessPath() string {
	return filepath.Join(a.cfg.Dir, a.cfg.Success)
}

// ErrorPath is the screenshot path for a run that failed before a terminal state.
func (a *Artifacts) ErrorPath() string {
	return filepath.Join(a.cfg.Dir, a.cfg.Error)
}

// DOMSnapshotEnabled reports whether markdown DOM snapshots are written.
func (a *Artifacts) DOMSnapshotEnabled() bool {
	return a.cfg.DOMSnapshot != nil && *a.cfg.DOMSnapshot
}

// WriteSnapshot serialises the tab's DOM, sanitises it, converts it to
// markdown, and writes it next to the screenshot named by pngName with a
// .md extension. Returns the snapshot path.
func (a *Artifacts) WriteSnapshot(ctx context.Context, tab *browser.Tab, pngName string) (string, error) {
	raw, err := tab.HTML(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(a.cfg.Dir, mdName(pngName))
	data := a.RenderSnapshot(raw)

	if err := os.MkdirAll(a.cfg.Dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	a.logger.Debug("verify: dom snapshot written", "path", path, "bytes", len(data))
	return path, nil
}

// RenderSnapshot converts raw page HTML into the markdown snapshot body:
// page title heading, then the sanitised DOM as markdown. Conversion
// failures fall back to the sanitised text so a diagnostic is never empty.
func (a *Artifacts) RenderSnapshot(raw string) []byte {
	title := htmlTitle(raw)
	clean := a.sanitizer.Sanitize(raw)

	body, err := a.md.ConvertString(clean)
	if err != nil || strings.TrimSpace(body) == "" {
		body = strings.TrimSpace(clean)
	}

	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return []byte(b.String())
}

// WriteReport bundles the given PNG artifacts into a single PDF alongside
// them. Missing inputs are skipped; an empty set is an error.
func (a *Artifacts) WriteReport(images ...string) (string, error) {
	var existing []string
	for _, img := range images {
		if _, err := os.Stat(img); err == nil {
			existing = append(existing, img)
		}
	}
	if len(existing) == 0 {
		return "", fmt.Errorf("verify: no artifacts to report")
	}

	out := filepath.Join(a.cfg.Dir, "verification.pdf")
	if err := api.ImportImagesFile(existing, out, nil, model.NewDefaultConfiguration()); err != nil {
		return "", fmt.Errorf("verify: pdf report: %w", err)
	}
	return out, nil
}

// htmlTitle extracts the <title> text from raw HTML.
func htmlTitle(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	return findTitle(doc)
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// mdName swaps a .png artifact name for its .md snapshot counterpart.
func mdName(pngName string) string {
	return strings.TrimSuffix(pngName, filepath.Ext(pngName)) + ".md"
}
