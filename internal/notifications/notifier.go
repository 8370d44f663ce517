package notifications

import (
	"context"
	"sync"

	"barangay/internal/domain/pushtokens"
	"barangay/internal/mailer"
	"barangay/internal/metrics"

	"github.com/9ssi7/exponent"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Event is one message to a single user. An empty Template skips e-mail and
// an empty Title skips push.
type Event struct {
	UserID   int64
	Email    string
	Name     string
	Template string
	Data     map[string]any
	Title    string
	Body     string
	PushData map[string]string
}

type Config struct {
	QueueSize     int
	RatePerSecond float64
	Burst         int
}

// Notifier delivers events on a single background worker, throttled so a
// burst of approvals does not hammer the SMTP relay or Expo.
type Notifier struct {
	mail    mailer.Client
	push    PushSender
	tokens  pushtokens.Store
	logger  *zap.SugaredLogger
	limiter *rate.Limiter

	queue  chan Event
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.RWMutex
	started bool
	closed  bool
}

func New(cfg Config, mail mailer.Client, push PushSender, tokens pushtokens.Store, logger *zap.SugaredLogger) *Notifier {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Notifier{
		mail:    mail,
		push:    push,
		tokens:  tokens,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		queue:   make(chan Event, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start launches the worker. Calling it twice is a no-op.
func (n *Notifier) Start() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started || n.closed {
		return
	}
	n.started = true
	go n.run()
}

// Notify enqueues ev without blocking. It reports false when the queue is
// full or the notifier is closed.
func (n *Notifier) Notify(ev Event) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return false
	}
	select {
	case n.queue <- ev:
		return true
	default:
		n.logger.Warnw("notification queue full, dropping event", "user_id", ev.UserID, "template", ev.Template)
		return false
	}
}

// Close stops accepting events and waits for the queue to drain. When ctx
// expires first, pending events are abandoned.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.queue)
	started := n.started
	n.mu.Unlock()

	if !started {
		n.cancel()
		return nil
	}

	select {
	case <-n.done:
		n.cancel()
		return nil
	case <-ctx.Done():
		n.cancel()
		<-n.done
		return ctx.Err()
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for ev := range n.queue {
		if err := n.limiter.Wait(n.ctx); err != nil {
			continue
		}
		n.deliver(n.ctx, ev)
	}
}

func (n *Notifier) deliver(ctx context.Context, ev Event) {
	if ev.Template != "" && ev.Email != "" && n.mail != nil {
		_, err := n.mail.Send(ev.Template, ev.Name, ev.Email, ev.Data)
		metrics.NotificationSent("email", err)
		if err != nil {
			n.logger.Errorw("failed to send email", "user_id", ev.UserID, "template", ev.Template, "error", err)
		}
	}
	if ev.Title != "" && n.push != nil && n.tokens != nil {
		err := n.sendPush(ctx, ev)
		metrics.NotificationSent("push", err)
		if err != nil {
			n.logger.Errorw("failed to send push", "user_id", ev.UserID, "error", err)
		}
	}
}

func (n *Notifier) sendPush(ctx context.Context, ev Event) error {
	byUser, err := n.tokens.TokensFor(ctx, []int64{ev.UserID})
	if err != nil {
		return err
	}
	tokens := byUser[ev.UserID]
	if len(tokens) == 0 {
		return nil
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: ev.Title,
			Body:  ev.Body,
			Data:  ev.PushData,
		})
	}
	_, err = n.push.Publish(ctx, msgs)
	return err
}
