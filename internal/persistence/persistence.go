// Package persistence implements the persistence collaborator: durable
// storage of tournament manager snapshots in MongoDB, written through a
// single bulk call per coalescing interval rather than one write per
// tournament.
package persistence

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tournament-core/internal/ids"
)

// Snapshot is the durable form of a tournament manager: a seed plus its
// full operation log (inactive entries included), encoded as whatever the caller's
// marshaling layer produces. The store treats Encoded as opaque bytes;
// it is the gathering hall's job to encode/decode it.
type Snapshot struct {
	TournamentID ids.TournamentID
	Encoded      []byte
	UpdatedAt    time.Time
}

type document struct {
	ID        string    `bson:"_id"`
	Encoded   []byte    `bson:"encoded"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store is the MongoDB-backed snapshot collection.
type Store struct {
	collection *mongo.Collection
}

// NewStore builds a store against an existing database handle.
func NewStore(db *mongo.Database) *Store {
	return &Store{collection: db.Collection("tournament_snapshots")}
}

// Get retrieves the current snapshot for a tournament id.
func (s *Store) Get(ctx context.Context, id ids.TournamentID) (*Snapshot, error) {
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: get %s: %w", id, err)
	}
	return &Snapshot{TournamentID: id, Encoded: doc.Encoded, UpdatedAt: doc.UpdatedAt}, nil
}

// BulkPut upserts every snapshot in one call, the hall's coalesced-write
// path: rather than one round trip per pending tournament, every
// snapshot collected since the last interval lands in a single bulk
// write.
func (s *Store) BulkPut(ctx context.Context, snapshots []Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(snapshots))
	for _, snap := range snapshots {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": snap.TournamentID.String()}).
			SetUpdate(bson.M{"$set": document{
				ID:        snap.TournamentID.String(),
				Encoded:   snap.Encoded,
				UpdatedAt: snap.UpdatedAt,
			}}).
			SetUpsert(true))
	}
	opts := options.BulkWrite().SetOrdered(false)
	if _, err := s.collection.BulkWrite(ctx, models, opts); err != nil {
		return fmt.Errorf("persistence: bulk put: %w", err)
	}
	return nil
}
