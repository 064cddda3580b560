package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/domain/direct/entity"
)

type fakeMessageRepo struct {
	messages []*entity.Message
}

func (r *fakeMessageRepo) Insert(_ context.Context, msg *entity.Message) error {
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeMessageRepo) ListBetween(_ context.Context, a, b uuid.UUID) ([]entity.Message, error) {
	var out []entity.Message
	for _, m := range r.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkAllRead(_ context.Context, readerID, peerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, m := range r.messages {
		if m.SenderID == peerID && m.ReceiverID == readerID && !m.IsRead {
			m.IsRead = true
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

type recordingEvents struct {
	inserted int
	read     [][]uuid.UUID
}

func (e *recordingEvents) DirectMessageInserted(recipients []uuid.UUID, msg *entity.Message) {
	e.inserted++
}

func (e *recordingEvents) DirectMessagesRead(recipients []uuid.UUID, readerID, peerID uuid.UUID, ids []uuid.UUID) {
	e.read = append(e.read, ids)
}

func TestSendRejectsEmptyContent(t *testing.T) {
	svc := New(&fakeMessageRepo{}, &recordingEvents{})

	_, err := svc.Send(context.Background(), uuid.New(), uuid.New(), "  ")
	if !errors.Is(err, entity.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSendRejectsSelf(t *testing.T) {
	svc := New(&fakeMessageRepo{}, &recordingEvents{})
	id := uuid.New()

	_, err := svc.Send(context.Background(), id, id, "hi")
	if !errors.Is(err, entity.ErrSelfMessage) {
		t.Fatalf("expected ErrSelfMessage, got %v", err)
	}
}

func TestSendCreatesUnreadMessage(t *testing.T) {
	events := &recordingEvents{}
	svc := New(&fakeMessageRepo{}, events)
	a, b := uuid.New(), uuid.New()

	msg, err := svc.Send(context.Background(), a, b, "  hello  ")
	if err != nil {
		t.Fatalf("sending: %v", err)
	}
	if msg.Content != "hello" {
		t.Fatalf("expected trimmed content, got %q", msg.Content)
	}
	if msg.IsRead {
		t.Fatal("new messages must start unread")
	}
	if events.inserted != 1 {
		t.Fatalf("expected 1 insert event, got %d", events.inserted)
	}
}

func TestListSeesBothDirections(t *testing.T) {
	svc := New(&fakeMessageRepo{}, &recordingEvents{})
	a, b := uuid.New(), uuid.New()

	if _, err := svc.Send(context.Background(), a, b, "from a"); err != nil {
		t.Fatalf("sending: %v", err)
	}
	if _, err := svc.Send(context.Background(), b, a, "from b"); err != nil {
		t.Fatalf("sending: %v", err)
	}

	msgs, err := svc.List(context.Background(), a, b)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}

func TestMarkAllReadOnlyTouchesIncoming(t *testing.T) {
	repo := &fakeMessageRepo{}
	events := &recordingEvents{}
	svc := New(repo, events)
	a, b := uuid.New(), uuid.New()

	if _, err := svc.Send(context.Background(), a, b, "out"); err != nil {
		t.Fatalf("sending: %v", err)
	}
	if _, err := svc.Send(context.Background(), b, a, "in"); err != nil {
		t.Fatalf("sending: %v", err)
	}

	ids, err := svc.MarkAllRead(context.Background(), a, b)
	if err != nil {
		t.Fatalf("marking read: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 message marked, got %d", len(ids))
	}
	for _, m := range repo.messages {
		if m.SenderID == a && m.IsRead {
			t.Fatal("caller's own outgoing message must stay untouched")
		}
	}
	if len(events.read) != 1 {
		t.Fatalf("expected 1 read event, got %d", len(events.read))
	}
}

func TestMarkAllReadPublishesNothingWhenEmpty(t *testing.T) {
	events := &recordingEvents{}
	svc := New(&fakeMessageRepo{}, events)

	ids, err := svc.MarkAllRead(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("marking read: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no ids, got %d", len(ids))
	}
	if len(events.read) != 0 {
		t.Fatal("no event should be published for an empty batch")
	}
}
