package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func newTestClient(m *mockAPI) *Client {
	return New(m.Server.URL, "test-user-token", 5*time.Second)
}

func TestItemsDecodesCatalog(t *testing.T) {
	mock := newMockAPI()
	defer mock.Close()
	mock.Items = []Item{
		{ItemID: "mug", Name: "Mug", Price: 10, Quantity: 3},
		{ItemID: "hoodie-raffle", Name: "Hoodie Raffle", Price: 5, IsRaffle: true},
	}

	client := newTestClient(mock)
	items, err := client.Items(context.Background())
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ItemID != "mug" || items[0].Price != 10 {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if !items[1].IsRaffle {
		t.Errorf("expected second item to be a raffle item")
	}
}

func TestRequestsCarryAuthAndRequestID(t *testing.T) {
	mock := newMockAPI()
	defer mock.Close()

	client := newTestClient(mock)
	if _, err := client.Cart(context.Background()); err != nil {
		t.Fatalf("Cart failed: %v", err)
	}

	if mock.LastAuthorization != "test-user-token" {
		t.Errorf("expected user token in Authorization header, got %q", mock.LastAuthorization)
	}
	if mock.LastRequestID == "" {
		t.Errorf("expected an X-Request-ID header")
	}
}

func TestCartMutationsReturnServerMapping(t *testing.T) {
	mock := newMockAPI()
	defer mock.Close()
	client := newTestClient(mock)
	ctx := context.Background()

	items, err := client.AddToCart(ctx, "mug")
	if err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if items["mug"] != 1 {
		t.Fatalf("expected mug count 1, got %d", items["mug"])
	}

	items, err = client.AddToCart(ctx, "mug")
	if err != nil {
		t.Fatalf("second AddToCart failed: %v", err)
	}
	if items["mug"] != 2 {
		t.Fatalf("expected mug count 2, got %d", items["mug"])
	}

	// Removing down to zero drops the key entirely
	if _, err := client.RemoveFromCart(ctx, "mug"); err != nil {
		t.Fatalf("RemoveFromCart failed: %v", err)
	}
	items, err = client.RemoveFromCart(ctx, "mug")
	if err != nil {
		t.Fatalf("final RemoveFromCart failed: %v", err)
	}
	if _, ok := items["mug"]; ok {
		t.Errorf("expected mug removed from mapping, got %v", items)
	}
}

func TestAPIErrorCarriesStatusCode(t *testing.T) {
	mock := newMockAPI()
	defer mock.Close()
	mock.AddStatus = http.StatusPaymentRequired

	client := newTestClient(mock)
	_, err := client.AddToCart(context.Background(), "mug")
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusPaymentRequired {
		t.Errorf("expected status 402, got %d", apiErr.StatusCode)
	}
	if apiErr.Code != "InsufficientFunds" {
		t.Errorf("expected error code InsufficientFunds, got %q", apiErr.Code)
	}
}

func TestRemoveMissingItemIsNotFound(t *testing.T) {
	mock := newMockAPI()
	defer mock.Close()

	client := newTestClient(mock)
	_, err := client.RemoveFromCart(context.Background(), "ghost")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.StatusCode)
	}
}

func TestRedemptionQRRejectsEmptyPayload(t *testing.T) {
	mock := newMockAPI()
	defer mock.Close()
	mock.QRPayload = ""

	client := newTestClient(mock)
	if _, err := client.RedemptionQR(context.Background()); err == nil {
		t.Fatal("expected an error for empty QR payload")
	}
}

func TestRedemptionQRReturnsPayload(t *testing.T) {
	mock := newMockAPI()
	defer mock.Close()

	client := newTestClient(mock)
	payload, err := client.RedemptionQR(context.Background())
	if err != nil {
		t.Fatalf("RedemptionQR failed: %v", err)
	}
	if payload != mock.QRPayload {
		t.Errorf("expected payload %q, got %q", mock.QRPayload, payload)
	}
	if mock.QRRequests != 1 {
		t.Errorf("expected 1 QR request, got %d", mock.QRRequests)
	}
}

func TestProfileAndLeaderboard(t *testing.T) {
	mock := newMockAPI()
	defer mock.Close()
	mock.Points = 42

	client := newTestClient(mock)
	profile, err := client.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.Points != 42 {
		t.Errorf("expected 42 points, got %d", profile.Points)
	}

	entries, err := client.Leaderboard(context.Background(), 2)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Points < entries[1].Points {
		t.Errorf("unexpected leaderboard: %+v", entries)
	}
}

func TestScanEvent(t *testing.T) {
	mock := newMockAPI()
	defer mock.Close()

	client := newTestClient(mock)
	result, err := client.ScanEvent(context.Background(), "ev1")
	if err != nil {
		t.Fatalf("ScanEvent failed: %v", err)
	}
	if !result.Success || result.Points != 10 {
		t.Errorf("unexpected check-in result: %+v", result)
	}
}

func TestNetworkFailureIsNotAPIError(t *testing.T) {
	// Port from a closed mock server: connection refused
	mock := newMockAPI()
	url := mock.Server.URL
	mock.Close()

	client := New(url, "token", time.Second)
	_, err := client.Cart(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("transport failure should not be an APIError: %v", err)
	}
}
