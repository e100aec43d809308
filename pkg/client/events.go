package client

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/dto"
	"github.com/mantty/host-api/pkg/session"
)

// EventStream reads one unit's server-sent events. It is not safe for
// concurrent use.
type EventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	// ClientID is the hub client id announced by the server, used to
	// subscribe the same stream to more units.
	ClientID string
}

var _ session.EventStream = (*EventStream)(nil)

// Events opens the event stream of unitID. The stream lives until ctx is
// cancelled or Close is called.
func (c *Client) Events(ctx context.Context, unitID uuid.UUID) (*EventStream, error) {
	resp, err := c.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(apiPrefix + "/units/" + unitID.String() + "/events")
	if err != nil {
		return nil, apperror.RemoteFailure("failed to open event stream", err)
	}

	body := resp.RawBody()
	if resp.StatusCode() >= 400 {
		defer body.Close()
		var errBody dto.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&errBody)
		kind := apperror.Kind(errBody.Kind)
		if kind == "" {
			kind = kindForStatus(resp.StatusCode())
		}
		return nil, &apperror.Error{Kind: kind, Message: errBody.Error}
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	return &EventStream{body: body, scanner: scanner}, nil
}

type frame struct {
	id    string
	event string
	data  strings.Builder
}

// Next blocks until the next unit event. System frames are consumed
// silently. It returns io.EOF when the server closes the stream.
func (s *EventStream) Next(ctx context.Context) (dto.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return dto.Event{}, err
		}
		f, err := s.readFrame()
		if err != nil {
			return dto.Event{}, err
		}
		if f.event == "system" {
			var hello struct {
				ClientID string `json:"client_id"`
			}
			if json.Unmarshal([]byte(f.data.String()), &hello) == nil && hello.ClientID != "" {
				s.ClientID = hello.ClientID
			}
			continue
		}

		var evt dto.Event
		if err := json.Unmarshal([]byte(f.data.String()), &evt); err != nil {
			continue
		}
		if evt.ID == "" {
			evt.ID = f.id
		}
		if evt.Type == "" {
			evt.Type = f.event
		}
		return evt, nil
	}
}

func (s *EventStream) readFrame() (*frame, error) {
	f := &frame{}
	seen := false
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			if seen {
				return f, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		seen = true
		switch field {
		case "id":
			f.id = value
		case "event":
			f.event = value
		case "data":
			if f.data.Len() > 0 {
				f.data.WriteByte('\n')
			}
			f.data.WriteString(value)
		}
	}
	if err := s.scanner.Err(); err != nil {
		return nil, apperror.RemoteFailure("event stream interrupted", err)
	}
	if seen {
		return f, nil
	}
	return nil, io.EOF
}

func (s *EventStream) Close() error {
	return s.body.Close()
}
