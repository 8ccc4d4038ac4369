package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Notifier is the admin notification sink. Calls are fire-and-forget from the
// core's perspective: failures are logged by the caller and never fail the
// operation that triggered them.
type Notifier interface {
	NotifyAdmins(ctx context.Context, event string, payload map[string]interface{}) error
}

type logNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier returns a Notifier that writes notifications to the log.
// Production deployments swap in the messaging collaborator.
func NewLogNotifier(log *logrus.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) NotifyAdmins(ctx context.Context, event string, payload map[string]interface{}) error {
	n.log.WithField("event", event).WithFields(logrus.Fields(payload)).Info("admin notification")
	return nil
}

// accountLocks serializes mutations per account. Different accounts proceed
// concurrently; two writers on the same account queue behind one mutex.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *accountLocks) get(accountID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[accountID] = lock
	}
	return lock
}
