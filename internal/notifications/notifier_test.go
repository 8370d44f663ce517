package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/9ssi7/exponent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type sentMail struct {
	template, name, email string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(templateFile, username, email string, _ any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{templateFile, username, email})
	return 200, f.err
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakePush struct {
	mu   sync.Mutex
	msgs []*exponent.Message
}

func (f *fakePush) Publish(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil, nil
}

type fakeTokens struct {
	byUser map[int64][]string
}

func (f *fakeTokens) Register(context.Context, int64, string, string) error { return nil }
func (f *fakeTokens) Remove(context.Context, int64, string) error           { return nil }
func (f *fakeTokens) RemoveTokens(context.Context, []string) error          { return nil }
func (f *fakeTokens) PruneStale(context.Context, time.Duration) (int64, error) {
	return 0, nil
}
func (f *fakeTokens) TokensFor(_ context.Context, ids []int64) (map[int64][]string, error) {
	out := make(map[int64][]string)
	for _, id := range ids {
		out[id] = f.byUser[id]
	}
	return out, nil
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNotifierDeliversMailAndPush(t *testing.T) {
	mail := &fakeMailer{}
	push := &fakePush{}
	tokens := &fakeTokens{byUser: map[int64][]string{7: {"ExponentPushToken[a]", "ExponentPushToken[b]"}}}

	n := New(Config{RatePerSecond: 1000, Burst: 10}, mail, push, tokens, zap.NewNop().Sugar())
	n.Start()

	ev := MembershipDecision(Recipient{UserID: 7, Email: "juan@example.com", Name: "Juan"}, 3, "San Isidro", "approved", "")
	require.True(t, n.Notify(ev))
	require.NoError(t, n.Close(context.Background()))

	require.Equal(t, 1, mail.count())
	assert.Equal(t, sentMail{"membership_decision.tmpl", "Juan", "juan@example.com"}, mail.sent[0])

	require.Len(t, push.msgs, 2)
	assert.Equal(t, "Barangay membership approved", push.msgs[0].Title)
	assert.Equal(t, "3", push.msgs[0].Data["requestId"])
}

func TestNotifierKeepsGoingAfterFailure(t *testing.T) {
	mail := &fakeMailer{err: errors.New("smtp down")}
	n := New(Config{RatePerSecond: 1000, Burst: 10}, mail, nil, nil, zap.NewNop().Sugar())
	n.Start()

	for i := int64(1); i <= 3; i++ {
		require.True(t, n.Notify(Welcome(Recipient{UserID: i, Email: "a@example.com", Name: "A"})))
	}
	require.NoError(t, n.Close(context.Background()))
	assert.Equal(t, 3, mail.count())
}

func TestNotifyDropsWhenFullOrClosed(t *testing.T) {
	n := New(Config{QueueSize: 1}, &fakeMailer{}, nil, nil, zap.NewNop().Sugar())

	assert.True(t, n.Notify(Event{UserID: 1}))
	assert.False(t, n.Notify(Event{UserID: 2}))

	require.NoError(t, n.Close(context.Background()))
	assert.False(t, n.Notify(Event{UserID: 3}))
	require.NoError(t, n.Close(context.Background()))
}

func TestCloseHonoursDeadline(t *testing.T) {
	mail := &fakeMailer{}
	n := New(Config{RatePerSecond: 0.001, Burst: 1}, mail, nil, nil, zap.NewNop().Sugar())
	n.Start()

	ev := Welcome(Recipient{UserID: 1, Email: "a@example.com", Name: "A"})
	require.True(t, n.Notify(ev))
	require.True(t, n.Notify(ev))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := n.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, mail.count(), 1)
}

func TestDocumentUpdateEvent(t *testing.T) {
	ev := DocumentUpdate(Recipient{UserID: 2, Email: "m@example.com", Name: "Maria"},
		"BRGY-ABCD2345", "barangay_clearance", "completed", "Ready for pickup")
	assert.Equal(t, "document_update.tmpl", ev.Template)
	assert.Equal(t, "barangay clearance", ev.Data["DocumentType"])
	assert.Contains(t, ev.Body, "BRGY-ABCD2345")
	assert.Equal(t, "my-requests", ev.PushData["screen"])
}
