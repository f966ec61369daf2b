package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/community-hub/internal/logger"
	"github.com/iliyamo/community-hub/internal/model"
	"github.com/iliyamo/community-hub/internal/repository"
	"github.com/iliyamo/community-hub/internal/service"
)

type stubUsers map[string]model.User

func (s stubUsers) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := s[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type recordingNotifier struct{ sent []service.EmailMessage }

func (r *recordingNotifier) Dispatch(_ context.Context, m service.EmailMessage) error {
	r.sent = append(r.sent, m)
	return nil
}

func envelope(t *testing.T, topic string, payload any) []byte {
	t.Helper()
	raw, _ := json.Marshal(payload)
	body, err := json.Marshal(Envelope{ID: "1", Topic: topic, OccurredAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), Payload: raw})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestHandleWritesAuditAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.log")
	notifier := &recordingNotifier{}
	users := stubUsers{"u1": {ID: "u1", Name: "Ada", Email: "ada@x.io"}}
	c := NewConsumer("", path, logger.Discard(), users, notifier)

	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	b := model.Booking{ID: "b1", Title: "Standup", Start: start, End: start.Add(time.Hour), UserID: "u1", UserName: "Ada"}
	if err := c.Handle(context.Background(), envelope(t, service.TopicBookingCreated, b)); err != nil {
		t.Fatal(err)
	}
	reg := model.Registration{ID: "r1", EventID: "e1", EventName: "Quiz", UserID: "u1", UserName: "Ada"}
	if err := c.Handle(context.Background(), envelope(t, service.TopicRegistrationCreated, reg)); err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(context.Background(), envelope(t, "presence.beat", map[string]string{"userId": "u1"})); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("audit lines = %d: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], "booking_id=b1") || !strings.Contains(lines[0], `title="Standup"`) {
		t.Errorf("unexpected booking line %q", lines[0])
	}
	if !strings.Contains(lines[1], "event_id=e1") {
		t.Errorf("unexpected registration line %q", lines[1])
	}
	if !strings.Contains(lines[2], `payload={"userId":"u1"}`) {
		t.Errorf("unexpected generic line %q", lines[2])
	}

	if len(notifier.sent) != 1 || notifier.sent[0].To[0] != "ada@x.io" {
		t.Fatalf("expected one notification to ada, got %+v", notifier.sent)
	}
}

func TestHandleRejectsGarbage(t *testing.T) {
	c := NewConsumer("", filepath.Join(t.TempDir(), "audit.log"), logger.Discard(), nil, nil)
	if err := c.Handle(context.Background(), []byte("not json")); err == nil {
		t.Error("expected unmarshal error")
	}
	if err := c.Handle(context.Background(), []byte(`{"id":"x"}`)); err == nil {
		t.Error("expected missing topic error")
	}
}
