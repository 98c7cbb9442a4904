package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/chatroom/internal/domain"
	badgerrepo "github.com/cwrk-planet/chatroom/internal/repository/badger"
	"github.com/cwrk-planet/chatroom/internal/service"
	"github.com/cwrk-planet/chatroom/internal/transport/ws"
	"github.com/cwrk-planet/chatroom/internal/validation"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type feed struct {
	url      string
	hub      *ws.Hub
	presence *service.PresenceService
	ledger   *service.MessageService
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFeed(t *testing.T) *feed {
	t.Helper()
	return newFeedWith(t, service.Options{}, time.Second)
}

func newFeedWith(t *testing.T, opts service.Options, pingEvery time.Duration) *feed {
	t.Helper()
	db, err := badgerrepo.Open(badgerrepo.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hub := ws.NewHub(domain.DefaultBroadcastTarget)
	participants := badgerrepo.NewParticipantRepository(db)
	ledger := service.NewMessageService(badgerrepo.NewMessageRepository(db), participants, hub, opts)
	presence := service.NewPresenceService(participants, ledger, opts)

	srv := httptest.NewServer(http.HandlerFunc(ws.NewServer(hub, presence, pingEvery, nil).HandleWS))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &feed{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		hub:      hub,
		presence: presence,
		ledger:   ledger,
	}
}

func (f *feed) dial(t *testing.T, user string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(f.url+"?user="+user, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = resp.Body.Close()
	return conn
}

func next(t *testing.T, conn *websocket.Conn) ws.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev ws.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func Test_Feed_Rejects_Unregistered_Viewer(t *testing.T) {
	f := newFeed(t)
	_, resp, err := websocket.DefaultDialer.Dial(f.url+"?user=ghost", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func Test_Feed_Filters_By_Visibility(t *testing.T) {
	req := require.New(t)
	f := newFeed(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := f.presence.Admit(ctx, name)
		req.NoError(err)
	}
	bob := f.dial(t, "bob")
	carol := f.dial(t, "carol")
	req.Eventually(func() bool { return f.hub.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	_, err := f.ledger.Post(ctx, "alice", validation.MessageInput{To: "bob", Text: "psst", Type: "private_message"})
	req.NoError(err)
	_, err = f.ledger.Post(ctx, "alice", validation.MessageInput{To: "Todos", Text: "hello all", Type: "message"})
	req.NoError(err)

	ev := next(t, bob)
	req.Equal(string(domain.EventMessageCreated), ev.Type)
	req.Equal("psst", ev.Payload.Text)
	req.Equal("hello all", next(t, bob).Payload.Text)

	// carol never sees the private message: the first frame is the broadcast
	ev = next(t, carol)
	req.Equal("hello all", ev.Payload.Text)
	req.Equal("alice", ev.Payload.From)
}

func Test_Feed_Streams_Edits_And_Deletes(t *testing.T) {
	req := require.New(t)
	f := newFeed(t)
	ctx := context.Background()

	_, err := f.presence.Admit(ctx, "alice")
	req.NoError(err)
	alice := f.dial(t, "alice")
	req.Eventually(func() bool { return f.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	m, err := f.ledger.Post(ctx, "alice", validation.MessageInput{To: "Todos", Text: "v1", Type: "message"})
	req.NoError(err)
	req.NoError(f.ledger.Edit(ctx, m.ID, "alice", validation.MessageInput{To: "Todos", Text: "v2", Type: "message"}))
	req.NoError(f.ledger.Delete(ctx, m.ID, "alice"))

	req.Equal(string(domain.EventMessageCreated), next(t, alice).Type)
	ev := next(t, alice)
	req.Equal(string(domain.EventMessageUpdated), ev.Type)
	req.Equal("v2", ev.Payload.Text)
	ev = next(t, alice)
	req.Equal(string(domain.EventMessageDeleted), ev.Type)
	req.Equal(m.ID, ev.Payload.ID)
}

func Test_Hub_Close_Drops_Subscribers(t *testing.T) {
	req := require.New(t)
	f := newFeed(t)
	_, err := f.presence.Admit(context.Background(), "alice")
	req.NoError(err)

	conn := f.dial(t, "alice")
	req.Eventually(func() bool { return f.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.hub.Close()
	req.Zero(f.hub.Len())
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err = conn.ReadMessage()
	req.Error(err)
}

func (f *feed) lastStatus(t *testing.T, name string) time.Time {
	t.Helper()
	list, err := f.presence.List(context.Background())
	require.NoError(t, err)
	for _, p := range list {
		if p.Name == name {
			return p.LastStatus
		}
	}
	return time.Time{}
}

func Test_Connect_And_Pong_Count_As_Heartbeats(t *testing.T) {
	req := require.New(t)
	c := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	f := newFeedWith(t, service.Options{Now: c.Now}, 50*time.Millisecond)
	ctx := context.Background()

	_, err := f.presence.Admit(ctx, "bob")
	req.NoError(err)
	_, err = f.presence.Admit(ctx, "carol")
	req.NoError(err)
	start := c.Now()

	c.Advance(5 * time.Second)
	conn := f.dial(t, "bob")
	req.True(f.lastStatus(t, "bob").Equal(start.Add(5*time.Second)), "connecting is a heartbeat")

	// reading lets the client answer server pings with pongs
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	c.Advance(6 * time.Second)
	req.Eventually(func() bool {
		return f.lastStatus(t, "bob").Equal(start.Add(11 * time.Second))
	}, 2*time.Second, 10*time.Millisecond, "pong moves lastStatus forward")

	n, err := f.presence.Sweep(ctx)
	req.NoError(err)
	req.Equal(1, n)

	list, err := f.presence.List(ctx)
	req.NoError(err)
	req.Len(list, 1)
	req.Equal("bob", list[0].Name, "a subscriber answering pings survives the sweep")
}
