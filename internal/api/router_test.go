package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestRouter() http.Handler {
	return NewRouter(RouterConfig{
		Store: NewSessionStore(),
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
		},
		DisableLogging: true,
	})
}

func TestCreateAndGetSession(t *testing.T) {
	ts := httptest.NewServer(newTestRouter())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/sessions/", "application/json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a non-empty session id")
	}

	getResp, err := http.Get(ts.URL + "/api/sessions/" + created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.StatusCode)
	}

	var got struct {
		ID    string `json:"id"`
		Frame uint64 `json:"frame"`
		Ended bool   `json:"ended"`
	}
	if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected id %q, got %q", created.ID, got.ID)
	}
	if got.Ended {
		t.Fatal("a freshly created session should not be ended")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	ts := httptest.NewServer(newTestRouter())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/sessions/does-not-exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteSessionRemovesIt(t *testing.T) {
	store := NewSessionStore()
	ts := httptest.NewServer(NewRouter(RouterConfig{Store: store, DisableLogging: true}))
	defer ts.Close()

	sess := store.Create(6, 3, 1)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+sess.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if _, ok := store.Get(sess.ID); ok {
		t.Fatal("expected session to be removed")
	}
}

func TestSnapshotEndpointReportsNoEntitiesForFreshSession(t *testing.T) {
	store := NewSessionStore()
	ts := httptest.NewServer(NewRouter(RouterConfig{Store: store, DisableLogging: true}))
	defer ts.Close()

	sess := store.Create(6, 3, 1)

	resp, err := http.Get(ts.URL + "/api/sessions/" + sess.ID + "/snapshot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got struct {
		Frame    uint64           `json:"frame"`
		Entities []entitySnapshot `json:"entities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(got.Entities) != 0 {
		t.Fatalf("expected no entities on a freshly created session, got %d", len(got.Entities))
	}
}
