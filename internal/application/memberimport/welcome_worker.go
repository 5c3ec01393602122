package memberimport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/member-import/internal/domain/member"
)

type WelcomePublisher interface {
	PublishWelcome(ctx context.Context, msg domain.WelcomeMessage) error
}

type welcomeOutbox interface {
	ClaimNext(ctx context.Context, leaseDuration time.Duration) (*domain.WelcomeNotification, error)
	MarkSent(ctx context.Context, notificationID string) error
	Requeue(ctx context.Context, notificationID string, reason string) error
	Fail(ctx context.Context, notificationID string, reason string) error
	FailExpiredLeases(ctx context.Context, reason string) (int64, error)
}

const expiredLeaseReason = "lease expired on final attempt"

type WelcomeWorkerConfig struct {
	Workers       int
	PollInterval  time.Duration
	LeaseDuration time.Duration
}

// WelcomeWorker drains the welcome notification outbox that commit fills.
type WelcomeWorker struct {
	outbox    welcomeOutbox
	publisher WelcomePublisher
	cfg       WelcomeWorkerConfig
	log       *logrus.Entry

	once sync.Once
	wg   sync.WaitGroup
}

func NewWelcomeWorker(outbox welcomeOutbox, publisher WelcomePublisher, cfg WelcomeWorkerConfig, log *logrus.Entry) *WelcomeWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = 60 * time.Second
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &WelcomeWorker{
		outbox:    outbox,
		publisher: publisher,
		cfg:       cfg,
		log:       log.WithField("component", "welcome_worker"),
	}
}

func (w *WelcomeWorker) Start(ctx context.Context) {
	w.once.Do(func() {
		for i := 0; i < w.cfg.Workers; i++ {
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.workerLoop(ctx)
			}()
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.sweepLoop(ctx)
		}()
	})
}

// Run starts the pool and blocks until ctx is done and every loop returned.
func (w *WelcomeWorker) Run(ctx context.Context) error {
	w.Start(ctx)
	w.wg.Wait()
	return nil
}

func (w *WelcomeWorker) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		notification, err := w.outbox.ClaimNext(ctx, w.cfg.LeaseDuration)
		if err != nil {
			if ctx.Err() == nil {
				w.log.WithError(err).Warn("claim next welcome notification failed")
			}
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		if notification == nil {
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		if err := w.Dispatch(ctx, *notification); err != nil {
			w.log.WithError(err).WithField("notification_id", notification.ID).Warn("dispatch welcome notification failed")
		}
	}
}

func (w *WelcomeWorker) sweepLoop(ctx context.Context) {
	for {
		if _, err := w.SweepExpiredLeases(ctx); err != nil && ctx.Err() == nil {
			w.log.WithError(err).Warn("sweep expired welcome leases failed")
		}
		if !sleepWithContext(ctx, w.cfg.LeaseDuration) {
			return
		}
	}
}

// SweepExpiredLeases fails notifications left running by a worker that died
// during their last attempt.
func (w *WelcomeWorker) SweepExpiredLeases(ctx context.Context) (int64, error) {
	n, err := w.outbox.FailExpiredLeases(ctx, expiredLeaseReason)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		welcomeDispatch.WithLabelValues("expired").Add(float64(n))
		w.log.WithField("count", n).Warn("failed welcome notifications with expired final lease")
	}
	return n, nil
}

// Dispatch publishes one claimed notification and settles its outbox row.
func (w *WelcomeWorker) Dispatch(ctx context.Context, n domain.WelcomeNotification) error {
	err := w.publisher.PublishWelcome(ctx, domain.WelcomeMessage{
		NotificationID: n.ID,
		MemberID:       n.MemberID,
		ClubID:         n.ClubID,
		Email:          n.Email,
		Name:           n.Name,
	})
	if err != nil {
		return w.onDispatchError(ctx, n, fmt.Errorf("publish welcome: %w", err))
	}

	if err := w.outbox.MarkSent(ctx, n.ID); err != nil {
		recordWelcomeDispatch("error")
		return fmt.Errorf("mark sent: %w", err)
	}

	recordWelcomeDispatch("sent")
	return nil
}

func (w *WelcomeWorker) onDispatchError(ctx context.Context, n domain.WelcomeNotification, err error) error {
	reason := truncateReason(err.Error())
	if n.Attempts < n.MaxAttempts {
		recordWelcomeDispatch("requeued")
		if requeueErr := w.outbox.Requeue(ctx, n.ID, reason); requeueErr != nil {
			return fmt.Errorf("%v; requeue failed: %w", err, requeueErr)
		}
		return err
	}

	recordWelcomeDispatch("failed")
	if failErr := w.outbox.Fail(ctx, n.ID, reason); failErr != nil {
		return fmt.Errorf("%v; fail update failed: %w", err, failErr)
	}
	return err
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
