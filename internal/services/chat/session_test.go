package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanneswrnr/glasschadenmelden/internal/models"
	modelChat "github.com/hanneswrnr/glasschadenmelden/internal/models/chat"
	"github.com/hanneswrnr/glasschadenmelden/internal/realtime"
	"github.com/hanneswrnr/glasschadenmelden/pkg/apperrors"
)

type sessionFixture struct {
	messages *fakeMessageStore
	users    *fakeIdentityStore
	records  *fakeAttachmentStore
	blobs    *fakeBlobStore
	hub      *realtime.Hub
	notifier *recordingNotifier
	now      time.Time
}

func newSessionFixture() *sessionFixture {
	return &sessionFixture{
		messages: &fakeMessageStore{},
		users: newFakeIdentityStore(
			testUser("user-a", "Anna Berger", "Allianz Versicherung", models.UserRoleVersicherung),
			testUser("user-b", "", "Glas Müller GmbH", models.UserRoleWerkstatt),
		),
		records:  &fakeAttachmentStore{},
		blobs:    newFakeBlobStore(),
		hub:      realtime.NewHub(),
		notifier: &recordingNotifier{},
		now:      time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func (f *sessionFixture) open(t *testing.T, params SessionParams) *Session {
	t.Helper()
	session, err := OpenSession(params, SessionDeps{
		Messages:    f.messages,
		Users:       f.users,
		Attachments: NewAttachmentService(f.records, f.blobs),
		Feed:        f.hub,
		Notifier:    f.notifier,
		Now:         func() time.Time { return f.now },
	})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func textFile(name string) FileInput {
	return FileInput{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        1024,
		Reader:      strings.NewReader("fake jpeg bytes"),
	}
}

func TestSendMessage_ReconcilesOptimisticEntry(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})

	sent, err := session.SendMessage(context.Background(), "Die Scheibe ist bestellt.", nil)
	require.NoError(t, err)
	require.NotNil(t, sent)

	assert.False(t, strings.HasPrefix(sent.ID, "temp-"), "persisted message must not keep the temporary id")
	assert.Equal(t, "Die Scheibe ist bestellt.", sent.Body)
	assert.Equal(t, "Anna Berger", sent.SenderName)

	messages := session.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, sent.ID, messages[0].ID)
	assert.Equal(t, 1, f.messages.count())
	assert.Equal(t, StateReady, session.State())
	assert.False(t, session.IsSending())
}

func TestSendMessage_BlankIsNoOp(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})

	sent, err := session.SendMessage(context.Background(), "   \n\t ", nil)
	require.NoError(t, err)
	assert.Nil(t, sent)

	assert.Empty(t, session.Messages())
	assert.Equal(t, 0, f.messages.count())
}

func TestSendMessage_RejectedWhenReadOnly(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	completed := f.now.AddDate(0, 0, -2)
	session := f.open(t, SessionParams{
		ClaimID:     "claim-1",
		UserID:      "user-a",
		Role:        models.UserRoleVersicherung,
		ReadOnly:    true,
		CompletedAt: &completed,
	})

	sent, err := session.SendMessage(context.Background(), "Zu spät?", nil)
	assert.Nil(t, sent)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeChatClosed, apperrors.CodeOf(err))
	assert.Empty(t, session.Messages())
}

func TestSendMessage_RollsBackOnStoreFailure(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.messages.failCreate = errors.New("connection reset")
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})

	sent, err := session.SendMessage(context.Background(), "Hallo", nil)
	assert.Nil(t, sent)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSendFailed, apperrors.CodeOf(err))

	// The optimistic entry must be gone again.
	assert.Empty(t, session.Messages())
	assert.Equal(t, StateReady, session.State())

	failed := f.notifier.sendFailedCalls()
	require.Len(t, failed, 1)
	assert.Equal(t, "claim-1", failed[0].claimID)
	assert.Equal(t, "user-a", failed[0].recipientID)
}

func TestSendMessage_SecondSendWhileInFlightIsDropped(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	block := make(chan struct{})
	f.messages.blockCreate = block
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sent, err := session.SendMessage(context.Background(), "erste Nachricht", nil)
		assert.NoError(t, err)
		assert.NotNil(t, sent)
	}()

	require.Eventually(t, session.IsSending, time.Second, time.Millisecond)

	// Dropped, not queued: no error, no result, nothing persisted later.
	sent, err := session.SendMessage(context.Background(), "zweite Nachricht", nil)
	require.NoError(t, err)
	assert.Nil(t, sent)

	close(block)
	wg.Wait()

	require.Len(t, session.Messages(), 1)
	assert.Equal(t, "erste Nachricht", session.Messages()[0].Body)
	assert.Equal(t, 1, f.messages.count())
}

func TestSendMessage_AttachmentsAreBestEffortPerFile(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.blobs.failNames = map[string]bool{"riss_detail.jpg": true}
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})

	sent, err := session.SendMessage(context.Background(), "Fotos anbei", []FileInput{
		textFile("frontscheibe.jpg"),
		textFile("riss_detail.jpg"),
		textFile("kostenvoranschlag.jpg"),
	})
	require.NoError(t, err)
	require.NotNil(t, sent)

	// The failed upload is skipped; the message and the other files survive.
	require.Len(t, sent.Attachments, 2)
	assert.Equal(t, "frontscheibe.jpg", sent.Attachments[0].FileName)
	assert.Equal(t, "kostenvoranschlag.jpg", sent.Attachments[1].FileName)
	assert.Equal(t, 1, f.messages.count())
}

func TestSendMessage_TruncatesFilesBeyondCap(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})

	var files []FileInput
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg", "f.jpg", "g.jpg"} {
		files = append(files, textFile(name))
	}

	sent, err := session.SendMessage(context.Background(), "", files)
	require.NoError(t, err)
	require.NotNil(t, sent)

	// First five in selection order win.
	require.Len(t, sent.Attachments, 5)
	assert.Equal(t, "a.jpg", sent.Attachments[0].FileName)
	assert.Equal(t, "e.jpg", sent.Attachments[4].FileName)
}

func TestFeedEvent_PeerMessageAppendsExactlyOnce(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})

	event := realtime.MessageEvent{
		ID:        "msg-100",
		ClaimID:   "claim-1",
		SenderID:  "user-b",
		Body:      "Wir haben die Scheibe auf Lager.",
		CreatedAt: f.now,
	}
	require.NoError(t, f.hub.Publish(context.Background(), event))
	require.NoError(t, f.hub.Publish(context.Background(), event))

	require.Eventually(t, func() bool {
		return len(session.Messages()) == 1
	}, time.Second, time.Millisecond)

	// Give the duplicate time to arrive; it must be discarded.
	time.Sleep(50 * time.Millisecond)
	messages := session.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "msg-100", messages[0].ID)
	assert.Equal(t, "Glas Müller GmbH", messages[0].SenderCompany)

	notices := f.notifier.newMessageCalls()
	require.Len(t, notices, 1)
	assert.Equal(t, "user-a", notices[0].recipientID)
}

func TestFeedEvent_OwnMessageIsDiscarded(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})

	// The send publishes its own event to the feed; the optimistic path is
	// the only source for own messages.
	sent, err := session.SendMessage(context.Background(), "Hallo zusammen", nil)
	require.NoError(t, err)
	require.NotNil(t, sent)

	time.Sleep(50 * time.Millisecond)
	require.Len(t, session.Messages(), 1)
	assert.Empty(t, f.notifier.newMessageCalls())
}

func TestFeedEvent_OtherClaimIsIgnored(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})

	require.NoError(t, f.hub.Publish(context.Background(), realtime.MessageEvent{
		ID:       "msg-200",
		ClaimID:  "claim-2",
		SenderID: "user-b",
		Body:     "falscher Vorgang",
	}))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, session.Messages())
}

func TestReload_RestoresRepositoryOrder(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	f.messages.messages = []modelChat.Message{
		{ID: "m3", ClaimID: "claim-1", SenderID: "user-a", Body: "dritte", CreatedAt: f.now.Add(2 * time.Minute)},
		{ID: "m1", ClaimID: "claim-1", SenderID: "user-b", Body: "erste", CreatedAt: f.now},
		{ID: "m2", ClaimID: "claim-1", SenderID: "user-a", Body: "zweite", CreatedAt: f.now.Add(time.Minute)},
	}
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})

	messages := session.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
	assert.Equal(t, "m3", messages[2].ID)
	assert.Equal(t, "Glas Müller GmbH", messages[0].SenderCompany)
}

func TestDaysUntilDeletion(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()

	completedAt := func(daysAgo int) *time.Time {
		ts := f.now.AddDate(0, 0, -daysAgo)
		return &ts
	}

	tests := []struct {
		name   string
		params SessionParams
		want   *int
	}{
		{
			name:   "active claim has no countdown",
			params: SessionParams{ClaimID: "claim-1", UserID: "user-a"},
			want:   nil,
		},
		{
			name: "freshly completed",
			params: SessionParams{
				ClaimID: "claim-1", UserID: "user-a",
				ReadOnly: true, CompletedAt: completedAt(0),
			},
			want: intPtr(14),
		},
		{
			name: "five days in",
			params: SessionParams{
				ClaimID: "claim-1", UserID: "user-a",
				ReadOnly: true, CompletedAt: completedAt(5),
			},
			want: intPtr(9),
		},
		{
			name: "window just elapsed",
			params: SessionParams{
				ClaimID: "claim-1", UserID: "user-a",
				ReadOnly: true, CompletedAt: completedAt(14),
			},
			want: intPtr(0),
		},
		{
			name: "long past the window clamps at zero",
			params: SessionParams{
				ClaimID: "claim-1", UserID: "user-a",
				ReadOnly: true, CompletedAt: completedAt(20),
			},
			want: intPtr(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := f.open(t, tt.params)
			got := session.DaysUntilDeletion()
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestInfo_CarriesRetentionState(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	completed := f.now.AddDate(0, 0, -3)
	session := f.open(t, SessionParams{
		ClaimID: "claim-1", UserID: "user-a",
		ReadOnly: true, CompletedAt: &completed,
	})

	info := session.Info()
	assert.Equal(t, "claim-1", info.ClaimID)
	assert.True(t, info.ReadOnly)
	require.NotNil(t, info.DaysUntilDeletion)
	assert.Equal(t, 11, *info.DaysUntilDeletion)
}

func TestClose_IsIdempotent(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	session := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a"})

	session.Close()
	session.Close()

	assert.Equal(t, StateClosed, session.State())
	assert.Equal(t, 0, f.hub.SubscriberCount("claim-1"))
}

func TestTwoViewers_LiveDelivery(t *testing.T) {
	t.Parallel()

	f := newSessionFixture()
	insurer := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-a", Role: models.UserRoleVersicherung})
	workshop := f.open(t, SessionParams{ClaimID: "claim-1", UserID: "user-b", Role: models.UserRoleWerkstatt})

	sent, err := insurer.SendMessage(context.Background(), "Wann können wir den Termin machen?", nil)
	require.NoError(t, err)
	require.NotNil(t, sent)

	// The workshop viewer receives the message over the feed.
	require.Eventually(t, func() bool {
		return len(workshop.Messages()) == 1
	}, time.Second, time.Millisecond)

	got := workshop.Messages()[0]
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, "Anna Berger", got.SenderName)

	// The sender keeps exactly the optimistic-then-reconciled entry.
	time.Sleep(50 * time.Millisecond)
	require.Len(t, insurer.Messages(), 1)

	// Only the workshop viewer is notified.
	notices := f.notifier.newMessageCalls()
	require.Len(t, notices, 1)
	assert.Equal(t, "user-b", notices[0].recipientID)
}

func intPtr(v int) *int { return &v }
