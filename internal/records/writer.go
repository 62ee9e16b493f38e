// Package records persists collection records against their owning
// principal in Firestore, and exposes the collaborator operations (list,
// favorite toggle, delete, view count) on top of the same collection.
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"cloudcollector/internal/models"
)

var (
	// ErrUnauthorized is returned when no resolved principal accompanies
	// the operation.
	ErrUnauthorized = errors.New("missing or invalid principal")
	// ErrNotFound is returned when a record does not exist or belongs to a
	// different principal.
	ErrNotFound = errors.New("collection record not found")
)

const defaultPageSize = 20

// ListQuery narrows and pages a principal's collection listing.
type ListQuery struct {
	Page     int
	PageSize int
	ToolID   string
	Favorite *bool
}

// ListPage is one page of records plus paging metadata.
type ListPage struct {
	Records  []models.CollectionRecord `json:"collections"`
	Total    int64                     `json:"total"`
	Page     int                       `json:"page"`
	PageSize int                       `json:"page_size"`
}

// Writer performs all Firestore access for collection records.
type Writer struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
	log        *zap.Logger
}

func NewWriter(client *firestore.Client, collection string, log *zap.Logger) *Writer {
	return &Writer{
		client:     client,
		collection: collection,
		now:        time.Now,
		log:        log,
	}
}

// SetClock fixes creation timestamps in tests.
func (w *Writer) SetClock(now func() time.Time) { w.now = now }

// Write inserts the record as a single atomic document create and returns it
// with its assigned id and creation time. It is never invoked without a
// published asset reference; that precondition is enforced here as a guard
// against future callers.
func (w *Writer) Write(ctx context.Context, rec models.CollectionRecord) (models.CollectionRecord, error) {
	if rec.OwnerID == "" {
		return models.CollectionRecord{}, ErrUnauthorized
	}
	if rec.Asset.URL == "" {
		return models.CollectionRecord{}, fmt.Errorf("record rejected: no published asset reference")
	}
	rec.CreatedAt = w.now().UTC()

	docRef, _, err := w.client.Collection(w.collection).Add(ctx, rec)
	if err != nil {
		return models.CollectionRecord{}, fmt.Errorf("failed to create collection record: %w", err)
	}
	rec.ID = docRef.ID
	w.log.Info("collection record created",
		zap.String("recordId", rec.ID),
		zap.String("ownerId", rec.OwnerID),
		zap.String("toolId", rec.ToolID))
	return rec, nil
}

// List returns one page of the principal's records, newest capture first.
func (w *Writer) List(ctx context.Context, principal string, q ListQuery) (ListPage, error) {
	if principal == "" {
		return ListPage{}, ErrUnauthorized
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}

	query := w.client.Collection(w.collection).Where("ownerId", "==", principal)
	if q.ToolID != "" {
		query = query.Where("toolId", "==", q.ToolID)
	}
	if q.Favorite != nil {
		query = query.Where("favorite", "==", *q.Favorite)
	}

	total, err := w.count(ctx, query)
	if err != nil {
		return ListPage{}, err
	}

	iter := query.OrderBy("captureTime", firestore.Desc).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Documents(ctx)
	defer iter.Stop()

	page := ListPage{Records: []models.CollectionRecord{}, Total: total, Page: q.Page, PageSize: q.PageSize}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return ListPage{}, fmt.Errorf("failed to iterate collection records: %w", err)
		}
		var rec models.CollectionRecord
		if err := doc.DataTo(&rec); err != nil {
			return ListPage{}, fmt.Errorf("failed to decode record %s: %w", doc.Ref.ID, err)
		}
		rec.ID = doc.Ref.ID
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

// Get fetches one record owned by the principal.
func (w *Writer) Get(ctx context.Context, principal, id string) (models.CollectionRecord, error) {
	if principal == "" {
		return models.CollectionRecord{}, ErrUnauthorized
	}
	doc, err := w.client.Collection(w.collection).Doc(id).Get(ctx)
	if err != nil {
		if doc != nil && !doc.Exists() {
			return models.CollectionRecord{}, ErrNotFound
		}
		return models.CollectionRecord{}, fmt.Errorf("failed to fetch record %s: %w", id, err)
	}
	var rec models.CollectionRecord
	if err := doc.DataTo(&rec); err != nil {
		return models.CollectionRecord{}, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	if rec.OwnerID != principal {
		return models.CollectionRecord{}, ErrNotFound
	}
	rec.ID = doc.Ref.ID
	return rec, nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (w *Writer) ToggleFavorite(ctx context.Context, principal, id string) (bool, error) {
	rec, err := w.Get(ctx, principal, id)
	if err != nil {
		return false, err
	}
	flag := !rec.Favorite
	_, err = w.client.Collection(w.collection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "favorite", Value: flag},
	})
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite on %s: %w", id, err)
	}
	return flag, nil
}

// Delete removes the record. The caller is responsible for best-effort
// removal of the published asset.
func (w *Writer) Delete(ctx context.Context, principal, id string) (models.CollectionRecord, error) {
	rec, err := w.Get(ctx, principal, id)
	if err != nil {
		return models.CollectionRecord{}, err
	}
	if _, err := w.client.Collection(w.collection).Doc(id).Delete(ctx); err != nil {
		return models.CollectionRecord{}, fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return rec, nil
}

// IncrementViews bumps the view counter atomically.
func (w *Writer) IncrementViews(ctx context.Context, principal, id string) error {
	if _, err := w.Get(ctx, principal, id); err != nil {
		return err
	}
	_, err := w.client.Collection(w.collection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "viewCount", Value: firestore.Increment(1)},
	})
	if err != nil {
		return fmt.Errorf("failed to increment views on %s: %w", id, err)
	}
	return nil
}

// count walks the keys of the filtered query for the listing total. The
// Select() projection keeps field payloads off the wire.
func (w *Writer) count(ctx context.Context, query firestore.Query) (int64, error) {
	iter := query.Select().Documents(ctx)
	defer iter.Stop()

	var total int64
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to count collection records: %w", err)
		}
		total++
	}
	return total, nil
}
