// Package searchindex provides the embedded, bbolt-backed implementation of
// the geo-search projection. Documents are stored as JSON keyed by the
// aggregate surrogate id; queries scan the bucket with a bounding-box
// prefilter before computing exact distances.
package searchindex

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/pkg/geo"
	"github.com/spotsync/backend/repository"
)

var documentsBucket = []byte("documents")

// BoltIndex implements repository.SearchIndex on a local bbolt file.
type BoltIndex struct {
	db *bolt.DB
}

// Open initializes the index file and ensures the bucket exists.
func Open(path string) (*BoltIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltIndex{db: db}, nil
}

func (i *BoltIndex) Save(ctx context.Context, doc domain.SearchDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return i.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).Put(idKey(doc.ID), payload)
	})
}

func (i *BoltIndex) UpdateAvailability(ctx context.Context, id int64, available int, updatedAt time.Time) error {
	return i.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(documentsBucket)
		raw := bucket.Get(idKey(id))
		if raw == nil {
			return domain.ErrFacilityNotFound
		}

		var doc domain.SearchDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}

		avail := domain.NewAvailability(doc.TotalCount, available)
		doc.AvailableCount = avail.Available
		doc.OccupancyRate = avail.OccupancyRate()
		doc.UpdatedAt = updatedAt

		payload, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		return bucket.Put(idKey(id), payload)
	})
}

func (i *BoltIndex) Delete(ctx context.Context, id int64) error {
	return i.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).Delete(idKey(id))
	})
}

func (i *BoltIndex) Search(ctx context.Context, q repository.SearchQuery) ([]repository.SearchHit, error) {
	size := q.Size
	if size <= 0 || size > 100 {
		size = 20
	}
	page := q.Page
	if page < 0 {
		page = 0
	}

	var box geo.Box
	if q.HasCenter {
		box = geo.BoundingBox(q.Lat, q.Lng, q.RadiusKm)
	}

	var hits []repository.SearchHit
	err := i.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(documentsBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var doc domain.SearchDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				continue
			}
			if q.Kind != "" && doc.Kind != q.Kind {
				continue
			}
			if q.AvailableOnly && doc.AvailableCount <= 0 {
				continue
			}
			if q.FreeOnly && !doc.Free {
				continue
			}

			hit := repository.SearchHit{Document: doc}
			if q.HasCenter {
				if !box.Contains(doc.Latitude, doc.Longitude) {
					continue
				}
				distance := geo.DistanceKm(q.Lat, q.Lng, doc.Latitude, doc.Longitude)
				if distance > q.RadiusKm {
					continue
				}
				hit.DistanceKm = distance
				hit.HasDistance = true
			}
			hits = append(hits, hit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if q.HasCenter {
		// Stable keeps the bucket iteration order for equal distances.
		sort.SliceStable(hits, func(a, b int) bool {
			return hits[a].DistanceKm < hits[b].DistanceKm
		})
	}

	start := page * size
	if start >= len(hits) {
		return nil, nil
	}
	end := start + size
	if end > len(hits) {
		end = len(hits)
	}
	return hits[start:end], nil
}

// Size returns the number of indexed documents.
func (i *BoltIndex) Size() (int, error) {
	var count int
	err := i.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(documentsBucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the underlying database.
func (i *BoltIndex) Close() error {
	return i.db.Close()
}

func idKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

var _ repository.SearchIndex = (*BoltIndex)(nil)
