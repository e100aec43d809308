package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/mantty/host-api/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, unitID uuid.UUID, frames ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/units/"+unitID.String()+"/events", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			_, _ = io.WriteString(w, f)
		}
	}))
}

func eventFrame(t *testing.T, evt dto.Event) string {
	t.Helper()
	data, err := json.Marshal(evt)
	require.NoError(t, err)
	return fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n", evt.ID, evt.Type, data)
}

func TestEventStream_SkipsSystemFramesAndDecodesEvents(t *testing.T) {
	unitID := uuid.New()
	ticketID := uuid.New()
	srv := sseServer(t, unitID,
		"event: system\ndata: {\"type\":\"connected\",\"client_id\":\"c-1\"}\n\n",
		": keepalive\n\n",
		eventFrame(t, dto.Event{ID: "1", Type: dto.EventTicketCreated, UnitID: unitID, EntityID: ticketID, Version: 1}),
		eventFrame(t, dto.Event{ID: "2", Type: dto.EventTicketUpdated, UnitID: unitID, EntityID: ticketID, Version: 2}),
	)
	defer srv.Close()

	stream, err := New(srv.URL, "tok").Events(context.Background(), unitID)
	require.NoError(t, err)
	defer stream.Close()

	evt, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", evt.ID)
	assert.Equal(t, dto.EventTicketCreated, evt.Type)
	assert.Equal(t, "c-1", stream.ClientID)

	evt, err = stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, evt.Version)

	_, err = stream.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestEventStream_FeedsProjection(t *testing.T) {
	unitID := uuid.New()
	ticket := dto.TicketResponse{ID: uuid.New(), UnitID: unitID, Title: "Fuga", Version: 1}
	data, err := json.Marshal(ticket)
	require.NoError(t, err)
	created := dto.Event{ID: "1", Type: dto.EventTicketCreated, UnitID: unitID, EntityID: ticket.ID, Version: 1, Data: data}

	srv := sseServer(t, unitID, eventFrame(t, created), eventFrame(t, created))
	defer srv.Close()

	stream, err := New(srv.URL, "tok").Events(context.Background(), unitID)
	require.NoError(t, err)
	defer stream.Close()

	proj := session.NewProjection()
	applied := 0
	err = proj.Run(context.Background(), stream, func(dto.Event) { applied++ })

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, applied)
	assert.Len(t, proj.Tickets(unitID), 1)
}

func TestEventStream_OpenFailureCarriesKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "no access to unit", Kind: string(apperror.KindNotAuthorized)})
	}))
	defer srv.Close()

	_, err := New(srv.URL, "tok").Events(context.Background(), uuid.New())
	assert.Equal(t, apperror.KindNotAuthorized, apperror.KindOf(err))
}
