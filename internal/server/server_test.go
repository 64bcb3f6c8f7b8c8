package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hatchwatch/internal/hub"
	"hatchwatch/internal/store"
	"hatchwatch/pkg/hatchwatch"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store, *hub.Hub) {
	t.Helper()

	records := store.New()
	fanout := hub.New()
	srv := New("127.0.0.1:0", records, fanout)

	testServer := httptest.NewServer(srv.Handler())
	t.Cleanup(testServer.Close)
	t.Cleanup(func() { _ = fanout.Close() })

	return testServer, records, fanout
}

func wsURL(testServer *httptest.Server) string {
	return strings.Replace(testServer.URL, "http", "ws", 1) + "/ws"
}

func TestRecordsEndpoint(t *testing.T) {
	t.Parallel()

	testServer, records, _ := newTestServer(t)

	records.MergeInsert(hatchwatch.Candidate{
		PetName:    "Shadow Cat",
		JobID:      "job-1",
		ServerName: "Server One",
		Count:      2,
		Value:      1500000,
		Emoji:      "🐾",
		ObservedAt: time.Now(),
	})

	resp, err := http.Get(testServer.URL + "/records")
	if err != nil {
		t.Fatalf("get records: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type = %q, want application/json", got)
	}

	var payloads []hatchwatch.RecordPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("records = %d, want 1", len(payloads))
	}
	if payloads[0].PetName != "Shadow Cat" || payloads[0].Count != 2 {
		t.Fatalf("record = %#v, want stored record", payloads[0])
	}
}

func TestRecordsEndpointEmpty(t *testing.T) {
	t.Parallel()

	testServer, _, _ := newTestServer(t)

	resp, err := http.Get(testServer.URL + "/records")
	if err != nil {
		t.Fatalf("get records: %v", err)
	}
	defer resp.Body.Close()

	var payloads []hatchwatch.RecordPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(payloads) != 0 {
		t.Fatalf("records = %d, want empty list", len(payloads))
	}
}

func TestRecordsEndpointRejectsPost(t *testing.T) {
	t.Parallel()

	testServer, _, _ := newTestServer(t)

	resp, err := http.Post(testServer.URL+"/records", "application/json", nil)
	if err != nil {
		t.Fatalf("post records: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestWebSocketReplayAndLivePush(t *testing.T) {
	t.Parallel()

	testServer, records, fanout := newTestServer(t)

	records.MergeInsert(hatchwatch.Candidate{
		PetName:    "Replayed",
		JobID:      "job-1",
		Count:      1,
		ObservedAt: time.Now(),
	})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(testServer), nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var replayed hatchwatch.PushMessage
	if err := conn.ReadJSON(&replayed); err != nil {
		t.Fatalf("read replayed push: %v", err)
	}
	if replayed.Type != hatchwatch.PushTypeNewPet || replayed.Pet.PetName != "Replayed" {
		t.Fatalf("replayed push = %#v, want snapshot record", replayed)
	}

	live := records.MergeInsert(hatchwatch.Candidate{
		PetName:    "Live",
		JobID:      "job-1",
		Count:      1,
		ObservedAt: time.Now(),
	})
	waitForSubscribers(t, fanout, 1)
	fanout.Broadcast(live)

	var pushed hatchwatch.PushMessage
	if err := conn.ReadJSON(&pushed); err != nil {
		t.Fatalf("read live push: %v", err)
	}
	if pushed.Pet.PetName != "Live" {
		t.Fatalf("live push = %#v, want broadcast record", pushed)
	}
}

func TestWebSocketDisconnectDetaches(t *testing.T) {
	t.Parallel()

	testServer, _, fanout := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(testServer), nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	waitForSubscribers(t, fanout, 1)

	conn.Close()
	waitForSubscribers(t, fanout, 0)
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	testServer, _, _ := newTestServer(t)

	resp, err := http.Get(testServer.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func waitForSubscribers(t *testing.T, fanout *hub.Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if fanout.Len() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscribers = %d, want %d", fanout.Len(), want)
}
