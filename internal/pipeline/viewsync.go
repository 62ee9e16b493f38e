package pipeline

import (
	"sync"

	"cloudcollector/internal/models"
)

// CollectionView is an in-memory projection of a principal's records, kept
// in step with pipeline runs and collaborator mutations. Readers get
// snapshots; the view is never handed out by reference.
type CollectionView struct {
	mu      sync.Mutex
	records map[string][]models.CollectionRecord
}

func NewCollectionView() *CollectionView {
	return &CollectionView{records: make(map[string][]models.CollectionRecord)}
}

// OnRecordCreated prepends the new record so the newest capture lists first.
func (v *CollectionView) OnRecordCreated(rec models.CollectionRecord) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records[rec.OwnerID] = append([]models.CollectionRecord{rec}, v.records[rec.OwnerID]...)
}

// OnRecordDeleted drops the record from the principal's view.
func (v *CollectionView) OnRecordDeleted(principal, id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	recs := v.records[principal]
	for i, r := range recs {
		if r.ID == id {
			v.records[principal] = append(recs[:i:i], recs[i+1:]...)
			return
		}
	}
}

// OnFavoriteToggled updates the favorite flag in place.
func (v *CollectionView) OnFavoriteToggled(principal, id string, favorite bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	recs := v.records[principal]
	for i := range recs {
		if recs[i].ID == id {
			recs[i].Favorite = favorite
			return
		}
	}
}

// Replace swaps in an authoritative listing, e.g. after a fresh fetch.
func (v *CollectionView) Replace(principal string, recs []models.CollectionRecord) {
	v.mu.Lock()
	defer v.mu.Unlock()
	copied := make([]models.CollectionRecord, len(recs))
	copy(copied, recs)
	v.records[principal] = copied
}

// Snapshot returns a copy of the principal's current view.
func (v *CollectionView) Snapshot(principal string) []models.CollectionRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	recs := v.records[principal]
	copied := make([]models.CollectionRecord, len(recs))
	copy(copied, recs)
	return copied
}
