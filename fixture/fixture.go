// Package fixture is a chi-served stand-in for the BlockView explorer used
// by the harness's own tests: a one-page hash-routed app with a transactions
// table, a transaction detail view, and a "View Trace" control that can be
// configured to succeed, fail, stall, serve an empty table, omit the hash
// from the detail view, or carry a hidden error template. It reproduces
// exactly the selectors the verification flow depends on.
package fixture

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Transaction is one row of the fixture's transactions table.
type Transaction struct {
	Hash string `json:"hash"`
	From string `json:"from"`
	To   string `json:"to"`
}

// DefaultTransactions seed the table when no option overrides them.
var DefaultTransactions = []Transaction{
	{Hash: "0x3f8a1c9b2d4e5f60718293a4b5c6d7e8f9001122334455667788990011223344", From: "0xaaa1", To: "0xbbb2"},
	{Hash: "0x9d2e4f6a8c0b1d3e5f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6", From: "0xccc3", To: "0xddd4"},
}

// Server is the fixture application.
type Server struct {
	txs          []Transaction
	traceErr     string
	traceDelay   time.Duration
	brokenDetail bool
	hiddenErrDiv bool
	router       chi.Router
}

// Option customises fixture behaviour.
type Option func(*Server)

// WithTransactions replaces the seeded table rows.
func WithTransactions(txs []Transaction) Option {
	return func(s *Server) { s.txs = txs }
}

// WithEmptyTable serves a transactions list with no rows (scenario: the
// first-row locator never becomes visible).
func WithEmptyTable() Option {
	return func(s *Server) { s.txs = nil }
}

// WithTraceError makes the trace endpoint fail with the given message, so
// the application renders its error indicator instead of the trace panel.
func WithTraceError(msg string) Option {
	return func(s *Server) { s.traceErr = msg }
}

// WithTraceDelay delays the trace endpoint's response, so the trace panel
// never renders within a short outcome window.
func WithTraceDelay(d time.Duration) Option {
	return func(s *Server) { s.traceDelay = d }
}

// WithBrokenDetail serves a detail view that never renders the transaction
// hash (scenario: the opened record cannot be confirmed).
func WithBrokenDetail() Option {
	return func(s *Server) { s.brokenDetail = true }
}

// WithHiddenErrorTemplate pre-renders the trace error indicator as a hidden
// element on the detail view, mimicking apps that keep an invisible error
// template in the DOM. A wait keyed on presence alone would match it before
// any trace request is even made.
func WithHiddenErrorTemplate() Option {
	return func(s *Server) { s.hiddenErrDiv = true }
}

// New creates a fixture Server.
func New(opts ...Option) *Server {
	s := &Server{txs: DefaultTransactions}
	for _, o := range opts {
		o(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/api/txs", s.handleList)
	r.Get("/api/txs/{hash}/trace", s.handleTrace)

	s.router = r
	return s
}

// Handler returns the fixture's HTTP handler, suitable for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	flags, _ := json.Marshal(map[string]bool{
		"brokenDetail":   s.brokenDetail,
		"hiddenErrorDiv": s.hiddenErrDiv,
	})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(strings.Replace(indexHTML, "__FLAGS__", string(flags), 1)))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.txs)
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	if s.traceDelay > 0 {
		select {
		case <-time.After(s.traceDelay):
		case <-r.Context().Done():
			return
		}
	}
	if s.traceErr != "" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": s.traceErr})
		return
	}
	hash := chi.URLParam(r, "hash")
	writeJSON(w, http.StatusOK, map[string]any{
		"hash": hash,
		"frames": []map[string]any{
			{"op": "CALL", "depth": 0, "gas": 21000},
			{"op": "SLOAD", "depth": 1, "gas": 2100},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// indexHTML is the hash-routed single page. It renders the same DOM shapes
// the real explorer exposes: the transactions table, the detail paragraph
// carrying the hash, the View Trace button, and the two terminal indicators.
const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>BlockView</title>
</head>
<body>
<div id="app"></div>
<script>
const app = document.getElementById('app');
const flags = __FLAGS__;

async function renderTransactions() {
  const res = await fetch('/api/txs');
  const txs = await res.json();
  let rows = '';
  for (const tx of txs) {
    rows += '<tr><td><a href="#/tx/' + tx.hash + '">' + tx.hash + '</a></td>' +
            '<td>' + tx.from + '</td><td>' + tx.to + '</td></tr>';
  }
  app.innerHTML = '<h2>Transactions</h2>' +
    '<table><thead><tr><th>Hash</th><th>From</th><th>To</th></tr></thead>' +
    '<tbody>' + rows + '</tbody></table>';
}

function renderDetail(hash) {
  const shown = flags.brokenDetail ? 'pending' : hash;
  let tpl = '';
  if (flags.hiddenErrorDiv) {
    tpl = '<div class="text-red-500" style="display:none">Error fetching trace: template</div>';
  }
  app.innerHTML = '<h2>Transaction</h2>' +
    '<p>' + shown + '</p>' +
    '<button id="view-trace">View Trace</button>' +
    tpl +
    '<div id="trace"></div>';
  document.getElementById('view-trace').addEventListener('click', async () => {
    const target = document.getElementById('trace');
    try {
      const res = await fetch('/api/txs/' + hash + '/trace');
      const body = await res.json();
      if (!res.ok) {
        throw new Error(body.error || ('status ' + res.status));
      }
      target.innerHTML = '<h3>Transaction Trace</h3><pre>' +
        JSON.stringify(body, null, 2) + '</pre>';
    } catch (err) {
      target.innerHTML = '<div class="text-red-500">Error fetching trace: ' +
        err.message + '</div>';
    }
  });
}

function route() {
  const hash = window.location.hash || '#/transactions';
  const m = hash.match(/^#\/tx\/(.+)$/);
  if (m) {
    renderDetail(m[1]);
  } else {
    renderTransactions();
  }
}

window.addEventListener('hashchange', route);
route();
</script>
</body>
</html>
`
