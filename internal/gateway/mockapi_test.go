// mockapi_test.go - mock companion API with failure simulation
package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// mockAPI simulates the companion REST API for tests.
type mockAPI struct {
	Server *httptest.Server
	mu     sync.Mutex

	Items     []Item
	Cart      map[string]int
	QRPayload string
	Points    int

	// Failure simulation: non-zero values force that HTTP status
	AddStatus int
	QRStatus  int

	// Counters for tracking
	QRRequests   int
	CartRequests int

	// Last seen auth/request headers, for assertion
	LastAuthorization string
	LastRequestID     string
}

func newMockAPI() *mockAPI {
	m := &mockAPI{
		Cart:      make(map[string]int),
		QRPayload: "hackillinois://cart?token=mock",
		Points:    100,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/shop/", m.handleShop)
	mux.HandleFunc("/shop/cart/", m.handleCart)
	mux.HandleFunc("/profile/", m.handleProfile)
	mux.HandleFunc("/user/qr/", m.handleUserQR)
	mux.HandleFunc("/user/scan-event/", m.handleScanEvent)
	mux.HandleFunc("/event/", m.handleEvents)

	m.Server = httptest.NewServer(mux)
	return m
}

func (m *mockAPI) Close() {
	m.Server.Close()
}

func (m *mockAPI) recordHeaders(r *http.Request) {
	m.LastAuthorization = r.Header.Get("Authorization")
	m.LastRequestID = r.Header.Get("X-Request-ID")
}

func (m *mockAPI) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}

func (m *mockAPI) writeCart(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CartContainer{Items: m.Cart, UserID: "user123"})
}

func (m *mockAPI) handleShop(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordHeaders(r)

	if r.URL.Path != "/shop/" {
		http.NotFound(w, r)
		return
	}
	json.NewEncoder(w).Encode(ItemContainer{Items: m.Items})
}

func (m *mockAPI) handleCart(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordHeaders(r)
	m.CartRequests++

	path := strings.TrimPrefix(r.URL.Path, "/shop/cart/")

	// QR issuance
	if path == "qr/" {
		m.QRRequests++
		if m.QRStatus != 0 {
			m.writeError(w, m.QRStatus, "CartInvalid", "cart can no longer be redeemed")
			return
		}
		json.NewEncoder(w).Encode(QRInfo{UserID: "user123", QRInfo: m.QRPayload})
		return
	}

	// Whole-cart read
	if path == "" {
		m.writeCart(w)
		return
	}

	itemID := strings.TrimSuffix(path, "/")
	switch r.Method {
	case http.MethodPost:
		if m.AddStatus != 0 {
			m.writeError(w, m.AddStatus, "InsufficientFunds", "not enough points")
			return
		}
		m.Cart[itemID]++
		m.writeCart(w)
	case http.MethodDelete:
		if _, ok := m.Cart[itemID]; !ok {
			m.writeError(w, http.StatusNotFound, "NotFound", "item not in cart")
			return
		}
		m.Cart[itemID]--
		if m.Cart[itemID] <= 0 {
			delete(m.Cart, itemID)
		}
		m.writeCart(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (m *mockAPI) handleProfile(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordHeaders(r)

	if strings.HasPrefix(r.URL.Path, "/profile/leaderboard/") {
		json.NewEncoder(w).Encode(LeaderboardContainer{Profiles: []LeaderboardEntry{
			{ID: "a", Discord: "alice", Points: 300},
			{ID: "b", Discord: "bob", Points: 200},
		}})
		return
	}
	json.NewEncoder(w).Encode(Profile{ID: "user123", FirstName: "Test", Points: m.Points})
}

func (m *mockAPI) handleUserQR(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordHeaders(r)
	json.NewEncoder(w).Encode(QRInfo{UserID: "user123", QRInfo: "hackillinois://user?userToken=mock"})
}

func (m *mockAPI) handleScanEvent(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordHeaders(r)

	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		EventID string `json:"eventId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.EventID == "" {
		m.writeError(w, http.StatusBadRequest, "BadRequest", "missing eventId")
		return
	}
	json.NewEncoder(w).Encode(CheckInResult{Success: true, Points: 10, TotalPoints: m.Points + 10})
}

func (m *mockAPI) handleEvents(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordHeaders(r)
	json.NewEncoder(w).Encode(EventContainer{Events: []Event{
		{EventID: "ev1", Name: "Opening Ceremony", StartTime: 1700000000, EndTime: 1700003600, EventType: "CEREMONY", Points: 10},
	}})
}
