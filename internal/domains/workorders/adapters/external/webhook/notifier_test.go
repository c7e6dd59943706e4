package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	webhookclient "github.com/Apurer/go-gin-workorders/internal/clients/http/webhook"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
)

func TestNotifierPostsTransition(t *testing.T) {
	var (
		received Payload
		key      string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get(webhookclient.HeaderIdempotencyKey)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client, err := webhookclient.NewClient(server.URL, server.Client())
	require.NoError(t, err)
	notifier := NewNotifier(client)

	event := domain.TransitionCommitted{
		WorkOrderID: "wo-7",
		Event:       domain.EventRefer,
		From:        domain.StatusInProgress,
		To:          domain.StatusReferredConsultant,
		ActorID:     "bob",
		ActorRole:   domain.RoleTechnician,
		Version:     3,
		Timestamp:   time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, notifier.Notify(context.Background(), event))

	require.Equal(t, "wo-7-v3", key)
	require.Equal(t, domain.TransitionCommittedEventName, received.Type)
	require.Equal(t, "refer", received.Event)
	require.Equal(t, "referred_consultant", received.To)
	require.Equal(t, int64(3), received.Version)
}

func TestNotifierWithoutClient(t *testing.T) {
	var n *Notifier
	require.Error(t, n.Notify(context.Background(), domain.TransitionCommitted{}))
}
