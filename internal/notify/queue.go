package notify

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// MailQueue sends mail on a fixed worker pool. Enqueue never blocks longer
// than the handoff timeout; mail that does not fit is dropped.
type MailQueue struct {
	mailer         Mailer
	jobs           chan Mail
	handoffTimeout time.Duration
	sendTimeout    time.Duration
	logger         log.FieldLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewMailQueue(mailer Mailer, workers, buffer int, logger log.FieldLogger) *MailQueue {
	if workers < 1 {
		workers = 1
	}
	q := &MailQueue{
		mailer:         mailer,
		jobs:           make(chan Mail, buffer),
		handoffTimeout: 15 * time.Millisecond,
		sendTimeout:    30 * time.Second,
		logger:         logger,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	logger.Infof("mail queue started, workers: %d, buffer: %d", workers, buffer)
	return q
}

func (q *MailQueue) worker(id int) {
	defer q.wg.Done()
	for m := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.sendTimeout)
		err := q.mailer.Send(ctx, m)
		cancel()
		if err != nil {
			q.logger.WithError(err).WithFields(log.Fields{
				"to":      m.To,
				"subject": m.Subject,
				"worker":  id,
			}).Error("send mail failed")
		}
	}
}

// Enqueue reports whether the mail was accepted.
func (q *MailQueue) Enqueue(m Mail) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.jobs <- m:
		return true
	default:
	}
	if q.handoffTimeout <= 0 {
		q.dropped(m)
		return false
	}
	timer := time.NewTimer(q.handoffTimeout)
	defer timer.Stop()
	select {
	case q.jobs <- m:
		return true
	case <-timer.C:
		q.dropped(m)
		return false
	}
}

func (q *MailQueue) dropped(m Mail) {
	q.logger.WithFields(log.Fields{"to": m.To, "subject": m.Subject}).Warn("mail queue full, mail dropped")
}

// Close stops accepting mail and waits for queued mail to be sent.
func (q *MailQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}
