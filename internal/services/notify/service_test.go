package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/ivankudzin/frameup/internal/domain/model"
)

type storeStub struct {
	created []model.Notification
	err     error
}

func (s *storeStub) Create(_ context.Context, n model.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}

type senderStub struct {
	sent []string
	err  error
}

func (s *senderStub) Send(_ context.Context, to, _, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func TestPushStoresNotification(t *testing.T) {
	store := &storeStub{}
	svc := NewService(store, &senderStub{}, nil)

	svc.Push(context.Background(), model.Notification{UserID: 7, Type: "appeal_received"})

	if len(store.created) != 1 {
		t.Fatalf("created = %d, want 1", len(store.created))
	}
	if store.created[0].UserID != 7 {
		t.Fatalf("user id = %d, want 7", store.created[0].UserID)
	}
}

func TestPushSwallowsStoreError(t *testing.T) {
	store := &storeStub{err: errors.New("connection refused")}
	svc := NewService(store, &senderStub{}, nil)

	// Must not panic or surface the error to the caller.
	svc.Push(context.Background(), model.Notification{UserID: 7})
}

func TestPushWithoutStoreDrops(t *testing.T) {
	svc := NewService(nil, &senderStub{}, nil)

	svc.Push(context.Background(), model.Notification{UserID: 7})
}

func TestEmailSends(t *testing.T) {
	sender := &senderStub{}
	svc := NewService(&storeStub{}, sender, nil)

	svc.Email(context.Background(), "user@example.com", "Account banned", "<p>hi</p>")

	if len(sender.sent) != 1 || sender.sent[0] != "user@example.com" {
		t.Fatalf("sent = %v, want one mail to user@example.com", sender.sent)
	}
}

func TestEmailDropsEmptyRecipient(t *testing.T) {
	sender := &senderStub{}
	svc := NewService(&storeStub{}, sender, nil)

	svc.Email(context.Background(), "   ", "Account banned", "<p>hi</p>")

	if len(sender.sent) != 0 {
		t.Fatalf("sent = %v, want none", sender.sent)
	}
}

func TestEmailSwallowsSendError(t *testing.T) {
	sender := &senderStub{err: errors.New("smtp timeout")}
	svc := NewService(&storeStub{}, sender, nil)

	svc.Email(context.Background(), "user@example.com", "Account banned", "<p>hi</p>")
}

func TestModerationActionURL(t *testing.T) {
	got := ModerationActionURL("campaign", "c-17")
	if got != "/moderation/campaign/c-17" {
		t.Fatalf("url = %q", got)
	}
}
