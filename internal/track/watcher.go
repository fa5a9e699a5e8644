// Package track watches a user's reports for admin status changes and
// publishes them to in-process subscribers, e.g. the notification
// surface of the API.
package track

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/YnTheNerd/cleanspot/internal/events"
	"github.com/YnTheNerd/cleanspot/internal/models"
	"github.com/YnTheNerd/cleanspot/internal/storage"
)

// StatusChange is one observed report transition.
type StatusChange struct {
	ReportID string              `json:"report_id"`
	UserID   string              `json:"user_id"`
	From     models.ReportStatus `json:"from"`
	To       models.ReportStatus `json:"to"`
}

// Watcher polls the report collection for a set of users and emits a
// StatusChange whenever a stored status differs from the last one seen.
// The first poll only seeds the baseline; it never emits.
type Watcher struct {
	docs     storage.DocumentStore
	interval time.Duration

	mu    sync.Mutex
	users map[string]struct{}
	seen  map[string]models.ReportStatus

	broadcaster *events.Broadcaster[StatusChange]
	wg          sync.WaitGroup
	cancel      context.CancelFunc
}

func NewWatcher(docs storage.DocumentStore, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		docs:        docs,
		interval:    interval,
		users:       make(map[string]struct{}),
		seen:        make(map[string]models.ReportStatus),
		broadcaster: events.NewBroadcaster[StatusChange](16),
	}
}

// Watch adds a user whose reports should be polled.
func (w *Watcher) Watch(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.users[userID] = struct{}{}
}

// Unwatch stops polling a user's reports.
func (w *Watcher) Unwatch(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.users, userID)
}

// Subscribe returns a channel of status changes and an unsubscribe
// function. Slow subscribers miss events rather than stall the watcher.
func (w *Watcher) Subscribe() (<-chan StatusChange, func()) {
	return w.broadcaster.Subscribe()
}

func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	slog.Info("starting status watcher", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("status watcher shutting down")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	w.mu.Lock()
	users := make([]string, 0, len(w.users))
	for u := range w.users {
		users = append(users, u)
	}
	w.mu.Unlock()

	for _, userID := range users {
		if err := w.pollUser(ctx, userID); err != nil {
			slog.Error("status poll failed", "user_id", userID, "error", err)
		}
	}
}

func (w *Watcher) pollUser(ctx context.Context, userID string) error {
	cursor := ""
	for {
		page, err := w.docs.QueryByOwner(ctx, "signals", storage.Query{
			OwnerID:  userID,
			PageSize: 100,
			Cursor:   cursor,
		})
		if err != nil {
			return err
		}

		for i := range page.Items {
			var rep models.Report
			if err := page.Items[i].Decode(&rep); err != nil {
				slog.Warn("skipping undecodable report", "id", page.Items[i].ID, "error", err)
				continue
			}
			w.observe(page.Items[i].ID, userID, rep.Status)
		}

		if !page.HasMore {
			return nil
		}
		cursor = page.Cursor
	}
}

func (w *Watcher) observe(reportID, userID string, status models.ReportStatus) {
	w.mu.Lock()
	prev, known := w.seen[reportID]
	w.seen[reportID] = status
	w.mu.Unlock()

	if known && prev != status {
		w.broadcaster.Publish(StatusChange{
			ReportID: reportID,
			UserID:   userID,
			From:     prev,
			To:       status,
		})
	}
}

func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.broadcaster.Close()
	slog.Info("status watcher stopped")
}
