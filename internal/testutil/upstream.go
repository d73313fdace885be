package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/medorders/internal/models"
)

// Upstream fakes the orders, alert and update APIs on a single test server.
// Orders are served from Pages: "/orders" is the first page, "/orders?page=N" the N-th one (1-based)
type Upstream struct {
	Server *httptest.Server

	mu         sync.Mutex
	pages      []models.OrdersPage
	ordersCode int
	alertCode  int
	updateCode int
	alerts     []string
	updates    []models.Order
	pageVisits []string
}

// StartUpstream starts fake server. It is closed on test cleanup
func StartUpstream(t *testing.T) *Upstream {
	t.Helper()

	u := &Upstream{
		ordersCode: http.StatusOK,
		alertCode:  http.StatusOK,
		updateCode: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", u.handleOrders)
	mux.HandleFunc("POST /alerts", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message string `json:"message"`
		}
		err := json.NewDecoder(r.Body).Decode(&body)
		require.NoError(t, err, "alert body must be JSON")

		u.mu.Lock()
		u.alerts = append(u.alerts, body.Message)
		code := u.alertCode
		u.mu.Unlock()

		w.WriteHeader(code)
	})
	mux.HandleFunc("POST /update", func(w http.ResponseWriter, r *http.Request) {
		var order models.Order
		err := json.NewDecoder(r.Body).Decode(&order)
		require.NoError(t, err, "update body must be JSON order")

		u.mu.Lock()
		u.updates = append(u.updates, order)
		code := u.updateCode
		u.mu.Unlock()

		w.WriteHeader(code)
	})

	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Server.Close)

	return u
}

func (u *Upstream) handleOrders(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.pageVisits = append(u.pageVisits, r.URL.RequestURI())

	if u.ordersCode != http.StatusOK {
		w.WriteHeader(u.ordersCode)
		return
	}

	idx := 0
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		idx = n - 1
	}

	if idx < 0 || idx >= len(u.pages) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(u.pages[idx])
}

// BaseURL is the value for all three base URL settings
func (u *Upstream) BaseURL() string {
	return u.Server.URL
}

// PageURL returns absolute URL of the N-th page (1-based)
func (u *Upstream) PageURL(n int) string {
	if n == 1 {
		return u.Server.URL + "/orders"
	}
	return u.Server.URL + "/orders?page=" + strconv.Itoa(n)
}

// SetPages sets orders served page by page. Next page links are set to follow the pages in order
func (u *Upstream) SetPages(pages ...[]models.Order) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.pages = make([]models.OrdersPage, len(pages))
	for i, orders := range pages {
		u.pages[i] = models.OrdersPage{Orders: orders}
		if i+1 < len(pages) {
			next := u.PageURL(i + 2)
			u.pages[i].NextPageURL = &next
		}
	}
}

// SetRawPages sets pages as is, next page links included
func (u *Upstream) SetRawPages(pages ...models.OrdersPage) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pages = pages
}

func (u *Upstream) SetOrdersStatus(code int) { u.setCode(&u.ordersCode, code) }
func (u *Upstream) SetAlertStatus(code int)  { u.setCode(&u.alertCode, code) }
func (u *Upstream) SetUpdateStatus(code int) { u.setCode(&u.updateCode, code) }

func (u *Upstream) setCode(dst *int, code int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	*dst = code
}

// Alerts returns received alert messages
func (u *Upstream) Alerts() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.alerts...)
}

// Updates returns received order updates
func (u *Upstream) Updates() []models.Order {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]models.Order(nil), u.updates...)
}

// PageVisits returns request URIs of every orders page request
func (u *Upstream) PageVisits() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.pageVisits...)
}
