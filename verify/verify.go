// Package verify drives a headless browser through the BlockView explorer's
// transaction trace flow: open the transactions list, follow the first row
// to its detail page, trigger "View Trace", and persist a screenshot of
// whichever terminal state the application reaches.
//
// The flow is a fixed linear sequence with per-step timeouts and no retries.
// Reaching either terminal indicator (trace panel or application error
// message) is a successful verification; only failing before a terminal
// state counts as failure.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vyquocvu/blockview/verify/internal/browser"
	"github.com/vyquocvu/blockview/verify/internal/config"
)

// Selectors and labels of the application under verification.
const (
	selFirstTxLink  = `table > tbody > tr:first-child > td:first-child > a`
	selTraceError   = `div.text-red-500`
	txtViewTrace    = "View Trace"
	txtTraceHeading = "Transaction Trace"
	txtTraceError   = "Error fetching trace:"
)

// Flow step names, recorded in StepError and the run ledger.
const (
	StepLaunch        = "launch"
	StepListNav       = "transactions-nav"
	StepFirstRow      = "first-row-link"
	StepReference     = "extract-reference"
	StepDetailNav     = "detail-nav"
	StepDetailConfirm = "detail-confirm"
	StepTraceClick    = "view-trace-click"
	StepOutcome       = "terminal-wait"
	StepScreenshot    = "screenshot"
)

// TerminalState identifies which terminal indicator resolved the run.
type TerminalState string

const (
	// StateTrace means the trace panel heading rendered.
	StateTrace TerminalState = "trace"
	// StateAppError means the application surfaced its own fetch error.
	// The run still verifies: the feature responded with a terminal state.
	StateAppError TerminalState = "app_error"
)

// Result describes a completed verification run.
type Result struct {
	TxRef      string
	State      TerminalState
	Screenshot string
	Snapshot   string // markdown DOM snapshot, empty if disabled
	Report     string // PDF report, empty if disabled
	Started    time.Time
	Finished   time.Time
}

// Runner executes the verification flow. Create with New, run with Run.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	artifacts *Artifacts
}

// New creates a Runner. A nil cfg uses DefaultConfig; a nil logger uses
// slog.Default.
func New(cfg *Config, logger *slog.Logger) *Runner {
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg.ApplyDefaults()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:       cfg,
		logger:    logger,
		artifacts: NewArtifacts(cfg.Artifacts, logger),
	}
}

// Run executes the flow once. Exactly one browser session is live for the
// duration of the call and is released on every exit path. On failure the
// error artifact is written before the original error is returned.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        r.cfg.Browser.Remote,
		Headful:          r.cfg.Browser.Headful,
		XvfbDisplay:      r.cfg.Browser.XvfbDisplay,
		ResourceBlocking: r.cfg.Browser.ResourceBlocking,
		ViewportWidth:    r.cfg.Browser.ViewportWidth,
		ViewportHeight:   r.cfg.Browser.ViewportHeight,
		Logger:           r.logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return nil, &StepError{Step: StepLaunch, Err: err}
	}
	defer mgr.Close()

	tab, err := browser.OpenTab(ctx, mgr)
	if err != nil {
		return nil, &StepError{Step: StepLaunch, Err: err}
	}

	res, runErr := r.flow(ctx, tab)
	if runErr != nil {
		r.logger.Error("verify: run failed", "error", runErr)
		r.captureFailure(ctx, tab)
		return nil, runErr
	}

	res.Started = started
	res.Finished = time.Now()

	if r.cfg.Artifacts.PDFReport {
		report, err := r.artifacts.WriteReport(res.Screenshot)
		if err != nil {
			r.logger.Warn("verify: pdf report failed", "error", err)
		} else {
			res.Report = report
		}
	}

	r.logger.Info("verify: run complete",
		"tx_ref", res.TxRef, "state", res.State,
		"screenshot", res.Screenshot, "duration", res.Finished.Sub(res.Started))
	return res, nil
}

func (r *Runner) flow(ctx context.Context, tab *browser.Tab) (*Result, error) {
	t := r.cfg.Timeouts
	base := strings.TrimRight(r.cfg.Target.BaseURL, "/")

	// 1. Transactions listing.
	listURL := base + "/#/transactions"
	r.logger.Info("verify: open transactions list", "url", listURL)
	if err := tab.Navigate(ctx, listURL, t.Navigation); err != nil {
		return nil, &StepError{Step: StepListNav, Err: navErr(listURL, t.Navigation, err)}
	}

	// 2. First row's transaction link.
	link, err := tab.WaitVisible(ctx, selFirstTxLink, t.Element)
	if err != nil {
		return nil, &StepError{Step: StepFirstRow, Err: elemErr(selFirstTxLink, t.Element, err)}
	}

	// 3. Transaction reference = final path segment of the link target.
	href, err := browser.Attribute(link, "href")
	if err != nil {
		return nil, &StepError{Step: StepReference, Err: err}
	}
	ref, ok := refFromHref(href)
	if !ok {
		return nil, &StepError{Step: StepReference, Err: &EmptyReferenceError{Href: href}}
	}
	r.logger.Info("verify: transaction reference", "ref", ref)

	// 4. Detail page.
	detailURL := fmt.Sprintf("%s/#/tx/%s", base, ref)
	if err := tab.Navigate(ctx, detailURL, t.Navigation); err != nil {
		return nil, &StepError{Step: StepDetailNav, Err: navErr(detailURL, t.Navigation, err)}
	}

	// 5. Confirm the detail page shows the right record.
	hashText := browser.TextSelector{Selector: "p", Text: ref}
	if _, err := tab.WaitVisibleText(ctx, hashText, t.Element); err != nil {
		return nil, &StepError{Step: StepDetailConfirm, Err: elemErr(hashText.String(), t.Element, err)}
	}

	// 6. Trigger the trace feature.
	traceBtn := browser.TextSelector{Selector: "button", Text: txtViewTrace}
	if err := tab.ClickText(ctx, traceBtn, t.Action); err != nil {
		return nil, &StepError{Step: StepTraceClick, Err: elemErr(traceBtn.String(), t.Action, err)}
	}

	// 7. Race the two terminal indicators; first visible wins.
	winner, err := tab.WaitAnyText(ctx, t.Outcome,
		browser.TextSelector{Selector: "h3", Text: txtTraceHeading},
		browser.TextSelector{Selector: selTraceError, Text: txtTraceError},
	)
	if err != nil {
		return nil, &StepError{Step: StepOutcome, Err: outcomeErr(t.Outcome, err)}
	}
	state := StateTrace
	if winner == 1 {
		state = StateAppError
	}
	r.logger.Info("verify: terminal state reached", "state", state)

	// 8. The artifact does not distinguish which indicator fired.
	shot := r.artifacts.SuccessPath()
	if err := tab.Screenshot(ctx, shot); err != nil {
		return nil, &StepError{Step: StepScreenshot, Err: err}
	}

	res := &Result{TxRef: ref, State: state, Screenshot: shot}
	if r.artifacts.DOMSnapshotEnabled() {
		snap, err := r.artifacts.WriteSnapshot(ctx, tab, r.cfg.Artifacts.Success)
		if err != nil {
			r.logger.Warn("verify: dom snapshot failed", "error", err)
		} else {
			res.Snapshot = snap
		}
	}
	return res, nil
}

// captureFailure writes the error artifacts best-effort. The run's context
// may already be cancelled, so capture gets its own bound.
func (r *Runner) captureFailure(ctx context.Context, tab *browser.Tab) {
	capCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := tab.Screenshot(capCtx, r.artifacts.ErrorPath()); err != nil {
		r.logger.Warn("verify: error screenshot failed", "error", err)
	} else {
		r.logger.Info("verify: error screenshot written", "path", r.artifacts.ErrorPath())
	}
	if r.artifacts.DOMSnapshotEnabled() {
		if _, err := r.artifacts.WriteSnapshot(capCtx, tab, r.cfg.Artifacts.Error); err != nil {
			r.logger.Warn("verify: error dom snapshot failed", "error", err)
		}
	}
}

// refFromHref returns the final path segment of a link target. Mirrors the
// application's route shape #/tx/{hash}: everything after the last slash.
func refFromHref(href string) (string, bool) {
	seg := href
	if i := strings.LastIndex(href, "/"); i >= 0 {
		seg = href[i+1:]
	}
	return seg, seg != ""
}

func navErr(url string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &NavigationTimeoutError{URL: url, Timeout: timeout, Cause: err}
	}
	return err
}

func elemErr(selector string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ElementNotFoundError{Selector: selector, Timeout: timeout, Cause: err}
	}
	return err
}

func outcomeErr(timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &OutcomeTimeoutError{Timeout: timeout, Cause: err}
	}
	return err
}
