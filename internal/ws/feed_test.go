package ws_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/steadypath/steadypath/internal/ws"
	"github.com/steadypath/steadypath/pkg/models"
)

func dialFeed(t *testing.T, feed *ws.Feed) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(feed.Handle))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ws.FeedMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.FeedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func sampleRecords(n int) []*models.EscalationRecord {
	out := make([]*models.EscalationRecord, n)
	for i := range out {
		out[i] = &models.EscalationRecord{
			ID:          uuid.New(),
			SubjectID:   "u1",
			SubjectName: "Test User",
			RiskLevel:   models.RiskLevelHigh,
			Status:      models.EscalationSent,
		}
	}
	return out
}

func TestFeedSendsSnapshotOnConnect(t *testing.T) {
	feed := ws.NewFeed(zap.NewNop())
	feed.Prime(sampleRecords(2))

	conn := dialFeed(t, feed)
	msg := readFrame(t, conn)

	assert.Equal(t, "snapshot", msg.Type)
	assert.Len(t, msg.Records, 2)
}

func TestFeedConcurrentConnectsAndPublishes(t *testing.T) {
	feed := ws.NewFeed(zap.NewNop())
	feed.Prime(sampleRecords(1))

	srv := httptest.NewServer(http.HandlerFunc(feed.Handle))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	// Publish in a tight loop while clients connect and receive their
	// snapshots, so snapshot and update writes overlap on fresh conns.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			feed.Publish(sampleRecords(1))
		}
	}()

	conns := make([]*websocket.Conn, 0, 20)
	for i := 0; i < 20; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		conns = append(conns, conn)
	}
	<-done

	for _, conn := range conns {
		msg := readFrame(t, conn)
		assert.NotEmpty(t, msg.Type)
		assert.NotEmpty(t, msg.Records)
	}
}

func TestFeedPushesUpdates(t *testing.T) {
	feed := ws.NewFeed(zap.NewNop())
	conn := dialFeed(t, feed)

	snapshot := readFrame(t, conn)
	assert.Equal(t, "snapshot", snapshot.Type)
	assert.Empty(t, snapshot.Records)

	feed.Publish(sampleRecords(1))
	update := readFrame(t, conn)
	assert.Equal(t, "update", update.Type)
	assert.Len(t, update.Records, 1)
}
