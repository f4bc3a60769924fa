package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Tab wraps a Rod page with verification-specific setup: stealth page
// creation, viewport sizing, and resource blocking. All waits take their
// timeout per call; a timeout surfaces as a context.DeadlineExceeded
// wrapped by Rod.
type Tab struct {
	Page    *rod.Page
	manager *Manager
}

// TextSelector pairs a CSS selector with a literal text fragment the matched
// element must contain.
type TextSelector struct {
	Selector string
	Text     string
}

func (ts TextSelector) regex() string {
	return regexp.QuoteMeta(ts.Text)
}

// String renders the selector the way it appears in diagnostics.
func (ts TextSelector) String() string {
	if ts.Text == "" {
		return ts.Selector
	}
	return fmt.Sprintf("%s:has-text(%q)", ts.Selector, ts.Text)
}

// OpenTab creates a blank stealth tab with the manager's viewport applied.
// The tab inherits ctx, so setup calls and the page itself observe its
// cancellation; waits re-bound their own deadlines per call.
func OpenTab(ctx context.Context, mgr *Manager) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             mgr.cfg.ViewportWidth,
		Height:            mgr.cfg.ViewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		mgr.cfg.Logger.Warn("browser: set viewport failed", "error", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	return &Tab{Page: page, manager: mgr}, nil
}

// Navigate loads pageURL and waits for the load event, bounded by timeout.
func (t *Tab) Navigate(ctx context.Context, pageURL string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := t.Page.Context(navCtx)
	if err := p.Navigate(pageURL); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load %s: %w", pageURL, err)
	}
	return nil
}

// WaitVisible waits for the first element matching sel to become visible.
func (t *Tab) WaitVisible(ctx context.Context, sel string, timeout time.Duration) (*rod.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := t.Page.Context(waitCtx).Element(sel)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	return el, nil
}

// WaitVisibleText waits for an element matching ts.Selector whose text
// contains ts.Text to become visible.
func (t *Tab) WaitVisibleText(ctx context.Context, ts TextSelector, timeout time.Duration) (*rod.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := t.Page.Context(waitCtx).ElementR(ts.Selector, ts.regex())
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	return el, nil
}

// ClickText waits for the element per WaitVisibleText and clicks it.
func (t *Tab) ClickText(ctx context.Context, ts TextSelector, timeout time.Duration) error {
	el, err := t.WaitVisibleText(ctx, ts, timeout)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// WaitAnyText races the given selectors and returns the index of whichever
// becomes visible first. This is the flow's only branching wait: either
// terminal indicator satisfies it, with no preference ordering. Presence in
// the DOM is not enough: a hidden match (a display:none error template, say)
// keeps the race open, so each iteration probes every candidate and only a
// visible one wins.
func (t *Tab) WaitAnyText(ctx context.Context, timeout time.Duration, candidates ...TextSelector) (int, error) {
	raceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	probe := t.Page.Context(raceCtx).Sleeper(rod.NotFoundSleeper)
	for {
		for i, ts := range candidates {
			el, err := probe.ElementR(ts.Selector, ts.regex())
			if err != nil {
				if errors.Is(err, &rod.ElementNotFoundError{}) {
					continue
				}
				return -1, err
			}
			visible, err := el.Visible()
			if err != nil {
				// Detached between match and check; treat as not present.
				continue
			}
			if visible {
				return i, nil
			}
		}

		select {
		case <-raceCtx.Done():
			return -1, raceCtx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Attribute reads an attribute from el; a missing attribute is an error.
func Attribute(el *rod.Element, name string) (string, error) {
	val, err := el.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("browser: read attribute %s: %w", name, err)
	}
	if val == nil {
		return "", fmt.Errorf("browser: attribute %s not present", name)
	}
	return *val, nil
}

// HTML serialises the complete DOM as outer HTML.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	html, err := t.Page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return html, nil
}

// Screenshot captures a full-page PNG to path, creating parent directories.
func (t *Tab) Screenshot(ctx context.Context, path string) error {
	data, err := t.Page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return fmt.Errorf("browser: screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
