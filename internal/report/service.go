// Package report implements the submission pipeline: validate the
// draft, compress and store the photo, persist the report, then update
// the owner's stats in the background.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/YnTheNerd/cleanspot/internal/auth"
	"github.com/YnTheNerd/cleanspot/internal/draft"
	"github.com/YnTheNerd/cleanspot/internal/models"
	"github.com/YnTheNerd/cleanspot/internal/photo"
	"github.com/YnTheNerd/cleanspot/internal/storage"
	"github.com/YnTheNerd/cleanspot/internal/worker"
)

// MsgSubmitFailed is shown when a submission fails after validation;
// the draft keeps its fields so the user can retry.
const MsgSubmitFailed = "Impossible de créer le signalement. Veuillez réessayer."

const (
	reportCollection = "signals"
	statsCollection  = "userStats"
)

// DefaultImageBudget is the maximum stored (encoded) size of a report
// photo in bytes.
const DefaultImageBudget = 750000

// Page is one page of a user's reports, newest first.
type Page struct {
	Reports []models.Report
	Cursor  string
	HasMore bool
}

type statsJob struct {
	userID string
}

// Service runs the report workflow against its storage collaborators.
type Service struct {
	docs       storage.DocumentStore
	blobs      storage.BlobStore
	compressor *photo.Compressor
	budget     int
	pool       *worker.Pool
	loadImage  func(ref string) ([]byte, error)
	now        func() time.Time
}

type Option func(*Service)

// WithImageBudget overrides the stored-size budget for report photos.
func WithImageBudget(bytes int) Option {
	return func(s *Service) { s.budget = bytes }
}

// WithImageLoader overrides how a draft's image reference is read.
func WithImageLoader(load func(ref string) ([]byte, error)) Option {
	return func(s *Service) { s.loadImage = load }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(docs storage.DocumentStore, blobs storage.BlobStore, opts ...Option) *Service {
	s := &Service{
		docs:       docs,
		blobs:      blobs,
		compressor: photo.NewCompressor(),
		budget:     DefaultImageBudget,
		loadImage:  os.ReadFile,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pool = worker.NewPool(2, 64, s.processStats)
	return s
}

// Start launches the background stats workers.
func (s *Service) Start(ctx context.Context) {
	s.pool.Start(ctx)
}

// Close drains and stops the background workers.
func (s *Service) Close() {
	s.pool.Stop()
}

// Submit runs the full pipeline for a validated draft. On any failure
// after validation the draft returns to editing with its fields intact;
// on success it is marked submitted and a best-effort stats increment
// is queued. The stored report is returned with its assigned ID.
func (s *Service) Submit(ctx context.Context, identity *auth.Identity, d *draft.Draft) (*models.Report, error) {
	if identity == nil {
		return nil, auth.ErrAuthenticationRequired
	}

	if errs := d.Validate(); len(errs) > 0 {
		return nil, &draft.ValidationError{Fields: errs}
	}

	raw, err := s.loadImage(d.ImageRef())
	if err != nil {
		d.MarkFailed()
		return nil, fmt.Errorf("error reading report image: %w", err)
	}

	compressed, err := s.compressor.Compress(raw, s.budget)
	if err != nil {
		d.MarkFailed()
		return nil, err
	}

	now := s.now()
	hint := fmt.Sprintf("reports/%s/%d.jpg", identity.UID, now.UnixMilli())
	ref, err := s.blobs.Upload(ctx, compressed.Data, hint)
	if err != nil {
		d.MarkFailed()
		return nil, fmt.Errorf("error storing report image: %w", err)
	}

	rep := models.Report{
		Description: d.Description(),
		ImageRef:    ref,
		Location:    *d.Location(),
		UserID:      identity.UID,
		Status:      models.StatusPending,
	}

	id, err := s.docs.CreateRecord(ctx, reportCollection, identity.UID, rep)
	if err != nil {
		d.MarkFailed()
		return nil, fmt.Errorf("error storing report: %w", err)
	}
	rep.ID = id
	rep.CreatedAt = now
	rep.UpdatedAt = now

	d.MarkSubmitted()

	if !s.pool.TrySubmit(statsJob{userID: identity.UID}) {
		slog.Warn("stats queue full, skipping increment", "user_id", identity.UID)
	}

	return &rep, nil
}

// Get fetches one report by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Report, error) {
	doc, err := s.docs.GetRecord(ctx, reportCollection, id)
	if err != nil {
		return nil, err
	}
	rep, err := decodeReport(doc)
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// ListByOwner returns one page of a user's reports, newest first.
func (s *Service) ListByOwner(ctx context.Context, userID string, pageSize int, cursor string) (*Page, error) {
	page, err := s.docs.QueryByOwner(ctx, reportCollection, storage.Query{
		OwnerID:  userID,
		PageSize: pageSize,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}

	out := &Page{Cursor: page.Cursor, HasMore: page.HasMore}
	for i := range page.Items {
		rep, err := decodeReport(&page.Items[i])
		if err != nil {
			return nil, err
		}
		out.Reports = append(out.Reports, *rep)
	}
	return out, nil
}

// Stats returns the user's aggregate counters, creating a zeroed record
// on first read.
func (s *Service) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	doc, err := s.docs.GetRecord(ctx, statsCollection, userID)
	if errors.Is(err, storage.ErrNotFound) {
		zero := models.UserStats{}
		if err := s.docs.PutRecord(ctx, statsCollection, userID, userID, zero); err != nil {
			return nil, fmt.Errorf("error initializing stats: %w", err)
		}
		return &zero, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading stats: %w", err)
	}

	var stats models.UserStats
	if err := doc.Decode(&stats); err != nil {
		return nil, fmt.Errorf("error decoding stats: %w", err)
	}
	return &stats, nil
}

// processStats applies one submission to the owner's counters. A new
// report is always pending. Failures are logged by the pool and never
// reach the submitting user.
func (s *Service) processStats(ctx context.Context, job worker.Job) error {
	j, ok := job.(statsJob)
	if !ok {
		return fmt.Errorf("unexpected job type %T", job)
	}

	var stats models.UserStats
	doc, err := s.docs.GetRecord(ctx, statsCollection, j.userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// First submission for this user.
	case err != nil:
		return fmt.Errorf("error reading stats for %s: %w", j.userID, err)
	default:
		if err := doc.Decode(&stats); err != nil {
			return fmt.Errorf("error decoding stats for %s: %w", j.userID, err)
		}
	}

	stats.TotalReports++
	stats.PendingReports++

	if err := s.docs.PutRecord(ctx, statsCollection, j.userID, j.userID, stats); err != nil {
		return fmt.Errorf("error writing stats for %s: %w", j.userID, err)
	}
	return nil
}

func decodeReport(doc *storage.Document) (*models.Report, error) {
	var rep models.Report
	if err := doc.Decode(&rep); err != nil {
		return nil, fmt.Errorf("error decoding report: %w", err)
	}
	rep.ID = doc.ID
	rep.CreatedAt = doc.CreatedAt
	rep.UpdatedAt = doc.UpdatedAt
	return &rep, nil
}
