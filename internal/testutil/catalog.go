package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dom/tcg-collection/internal/config"
)

// FakeCatalog is an httptest stand-in for the upstream card catalog. Records
// are raw JSON objects so tests can serve malformed entries.
type FakeCatalog struct {
	Server *httptest.Server

	mu          sync.Mutex
	sets        []map[string]interface{}
	cards       map[string][]map[string]interface{}
	totalCounts map[string]int
	failSets    bool
	failCards   map[string]map[int]bool
	delay       time.Duration
	requests    []*http.Request
}

// NewFakeCatalog starts a fake catalog that is closed when the test ends.
func NewFakeCatalog(t *testing.T) *FakeCatalog {
	t.Helper()

	fc := &FakeCatalog{
		cards:       make(map[string][]map[string]interface{}),
		totalCounts: make(map[string]int),
		failCards:   make(map[string]map[int]bool),
	}
	fc.Server = httptest.NewServer(http.HandlerFunc(fc.serve))
	t.Cleanup(fc.Server.Close)
	return fc
}

// Config returns catalog settings pointing at the fake server.
func (fc *FakeCatalog) Config() config.CatalogConfig {
	return config.CatalogConfig{
		BaseURL:      fc.Server.URL,
		ListTimeout:  2 * time.Second,
		CardsTimeout: 2 * time.Second,
		PageSize:     config.MaxCatalogPageSize,
	}
}

func (fc *FakeCatalog) SetExpansions(sets ...map[string]interface{}) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.sets = sets
}

func (fc *FakeCatalog) SetCards(expansionID string, cards ...map[string]interface{}) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.cards[expansionID] = cards
}

// SetTotalCount overrides the totalCount reported for an expansion.
func (fc *FakeCatalog) SetTotalCount(expansionID string, total int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.totalCounts[expansionID] = total
}

func (fc *FakeCatalog) FailExpansions() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.failSets = true
}

// FailCardsPage makes the given page of an expansion's cards answer 500.
func (fc *FakeCatalog) FailCardsPage(expansionID string, page int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.failCards[expansionID] == nil {
		fc.failCards[expansionID] = make(map[int]bool)
	}
	fc.failCards[expansionID][page] = true
}

// SetDelay makes every response wait before answering.
func (fc *FakeCatalog) SetDelay(d time.Duration) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.delay = d
}

// Requests returns the requests received so far.
func (fc *FakeCatalog) Requests() []*http.Request {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]*http.Request, len(fc.requests))
	copy(out, fc.requests)
	return out
}

// CardRequests counts card page requests for one expansion.
func (fc *FakeCatalog) CardRequests(expansionID string) int {
	n := 0
	for _, r := range fc.Requests() {
		if r.URL.Path == "/cards" && r.URL.Query().Get("q") == "set.id:"+expansionID {
			n++
		}
	}
	return n
}

func (fc *FakeCatalog) serve(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	fc.requests = append(fc.requests, r.Clone(r.Context()))
	delay := fc.delay
	fc.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	switch r.URL.Path {
	case "/sets":
		fc.serveSets(w)
	case "/cards":
		fc.serveCards(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (fc *FakeCatalog) serveSets(w http.ResponseWriter) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.failSets {
		http.Error(w, "upstream unavailable", http.StatusInternalServerError)
		return
	}
	writeCatalogJSON(w, map[string]interface{}{
		"data":       fc.sets,
		"totalCount": len(fc.sets),
	})
}

func (fc *FakeCatalog) serveCards(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	expansionID := strings.TrimPrefix(r.URL.Query().Get("q"), "set.id:")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 || pageSize > 250 {
		pageSize = 250
	}

	if fc.failCards[expansionID][page] {
		http.Error(w, fmt.Sprintf("page %d failed", page), http.StatusInternalServerError)
		return
	}

	cards := fc.cards[expansionID]
	total := len(cards)
	if override, ok := fc.totalCounts[expansionID]; ok {
		total = override
	}

	start := (page - 1) * pageSize
	if start > len(cards) {
		start = len(cards)
	}
	end := start + pageSize
	if end > len(cards) {
		end = len(cards)
	}

	data := cards[start:end]
	if data == nil {
		data = []map[string]interface{}{}
	}
	writeCatalogJSON(w, map[string]interface{}{
		"data":       data,
		"page":       page,
		"pageSize":   pageSize,
		"count":      len(data),
		"totalCount": total,
	})
}

func writeCatalogJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// SetJSON builds a catalog expansion record.
func SetJSON(id, name, releaseDate string) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"name":        name,
		"series":      "Base",
		"releaseDate": releaseDate,
		"total":       102,
		"images": map[string]interface{}{
			"symbol": "https://images.example.com/" + id + "/symbol.png",
			"logo":   "https://images.example.com/" + id + "/logo.png",
		},
	}
}

// CardJSON builds a catalog card record.
func CardJSON(id, name string) map[string]interface{} {
	return map[string]interface{}{
		"id":     id,
		"name":   name,
		"number": id[strings.LastIndex(id, "-")+1:],
		"rarity": "Rare Holo",
		"images": map[string]interface{}{
			"small": "https://images.example.com/" + id + ".png",
			"large": "https://images.example.com/" + id + "_hires.png",
		},
		"hp":    "120",
		"types": []string{"Fire"},
		"attacks": []map[string]interface{}{
			{"name": "Fire Spin", "cost": []string{"Fire", "Fire", "Fire", "Fire"}, "damage": "100"},
		},
		"weaknesses":           []map[string]interface{}{{"type": "Water", "value": "×2"}},
		"retreatCost":          []string{"Colorless", "Colorless", "Colorless"},
		"convertedRetreatCost": 3,
		"artist":               "Mitsuhiro Arita",
		"flavorText":           "Spits fire that is hot enough to melt boulders.",
	}
}

// ManyCardJSON builds n cards for an expansion with sequential ids.
func ManyCardJSON(expansionID string, n int) []map[string]interface{} {
	cards := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		cards[i] = CardJSON(fmt.Sprintf("%s-%d", expansionID, i+1), fmt.Sprintf("Card %03d", i+1))
	}
	return cards
}
