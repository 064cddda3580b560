package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dial connects a test client to the hub and returns the reader side
func dial(t *testing.T, hub *Hub, userID uuid.UUID) (*websocket.Conn, func()) {
	t.Helper()

	registered := make(chan *Client, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrading: %v", err)
			return
		}
		client := hub.Add(userID, conn)
		registered <- client
		go client.ReadLoop()
		client.Wait()
		hub.Remove(client)
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dialing: %v", err)
	}

	select {
	case <-registered:
	case <-time.After(time.Second):
		t.Fatal("client never registered with the hub")
	}

	cleanup := func() {
		conn.Close()
		srv.Close()
	}
	return conn, cleanup
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	return ev
}

func TestPublishReachesTargetUserOnly(t *testing.T) {
	hub := NewHub()
	alice, bob := uuid.New(), uuid.New()

	aliceConn, cleanupA := dial(t, hub, alice)
	defer cleanupA()
	bobConn, cleanupB := dial(t, hub, bob)
	defer cleanupB()

	hub.Publish([]uuid.UUID{alice}, Event{
		Table:   TableMessages,
		Action:  ActionInsert,
		Payload: map[string]string{"content": "hi"},
	})

	ev := readEvent(t, aliceConn)
	if ev.Table != TableMessages || ev.Action != ActionInsert {
		t.Fatalf("unexpected event: %+v", ev)
	}

	// Bob must see nothing
	bobConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := bobConn.ReadMessage(); err == nil {
		t.Fatal("event leaked to a user outside the audience")
	}
}

func TestPublishFansOutToAllConnectionsOfUser(t *testing.T) {
	hub := NewHub()
	alice := uuid.New()

	first, cleanup1 := dial(t, hub, alice)
	defer cleanup1()
	second, cleanup2 := dial(t, hub, alice)
	defer cleanup2()

	hub.Publish([]uuid.UUID{alice}, Event{Table: TableProfiles, Action: ActionUpdate})

	for _, conn := range []*websocket.Conn{first, second} {
		ev := readEvent(t, conn)
		if ev.Table != TableProfiles {
			t.Fatalf("unexpected event: %+v", ev)
		}
	}
}

func TestBroadcastReachesEveryone(t *testing.T) {
	hub := NewHub()

	conns := make([]*websocket.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn, cleanup := dial(t, hub, uuid.New())
		defer cleanup()
		conns = append(conns, conn)
	}

	hub.Broadcast(Event{Table: TableProfiles, Action: ActionUpdate})

	for _, conn := range conns {
		ev := readEvent(t, conn)
		if ev.Table != TableProfiles || ev.Action != ActionUpdate {
			t.Fatalf("unexpected event: %+v", ev)
		}
	}
}

func TestConnectedTracksDisconnect(t *testing.T) {
	hub := NewHub()
	alice := uuid.New()

	conn, cleanup := dial(t, hub, alice)
	defer cleanup()

	if !hub.Connected(alice) {
		t.Fatal("expected user to be connected")
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connected(alice) {
		if time.Now().After(deadline) {
			t.Fatal("user still connected after closing the socket")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSlowConsumerDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	alice := uuid.New()

	_, cleanup := dial(t, hub, alice)
	defer cleanup()

	done := make(chan struct{})
	go func() {
		// Far more events than the send queue holds; extras are dropped
		for i := 0; i < sendQueueSize*4; i++ {
			hub.Publish([]uuid.UUID{alice}, Event{Table: TableMessages, Action: ActionInsert})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow consumer")
	}
}
