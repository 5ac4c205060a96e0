package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modhaven/modhaven/internal/api/metrics"
	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
	"github.com/modhaven/modhaven/internal/core/query"
)

const collectionPackages = "packages"

// PackageRepository implements the package storage contract. List queries
// are translated by ToFilter; the filtering semantics are defined by the
// in-memory engine.
type PackageRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewPackageRepository(db *mongo.Database) *PackageRepository {
	return &PackageRepository{col: db.Collection(collectionPackages), now: time.Now}
}

// idFilter matches a package by current or past id.
func idFilter(ids []string) bson.M {
	in := make(bson.A, len(ids))
	for i, id := range ids {
		in[i] = id
	}
	return bson.M{"$or": bson.A{
		bson.M{"package.id": bson.M{"$in": in}},
		bson.M{"package.past_ids": bson.M{"$in": in}},
	}}
}

func (r *PackageRepository) FindPackage(ctx context.Context, id string) (*domain.PackageMeta, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var meta domain.PackageMeta
	err := r.col.FindOne(ctx, idFilter([]string{id})).Decode(&meta)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, err
	}
	return &meta, nil
}

func (r *PackageRepository) FindPackagesByIDs(ctx context.Context, ids []string) ([]domain.PackageMeta, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, idFilter(ids))
	if err != nil {
		return nil, err
	}

	var metas []domain.PackageMeta
	if err := cursor.All(ctx, &metas); err != nil {
		return nil, err
	}
	return metas, nil
}

func (r *PackageRepository) UpsertPackage(ctx context.Context, meta *domain.PackageMeta) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"package.id": meta.Package.ID}

	var existing domain.PackageMeta
	err := r.col.FindOne(ctx, filter).Decode(&existing)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}

		now := r.now().UTC()
		meta.CreationDate = now
		meta.UpdatedDate = now
		_, err := r.col.InsertOne(ctx, meta)
		return err
	}

	now := r.now().UTC()
	_, err = r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"package":      meta.Package,
		"defines":      meta.Defines,
		"dependencies": meta.Dependencies,
		"updated_date": now,
	}})
	if err != nil {
		return err
	}

	// reflect storage-managed fields back to the caller
	meta.Creator = existing.Creator
	meta.CreationDate = existing.CreationDate
	meta.UpdatedDate = now
	meta.Hidden = existing.Hidden
	meta.Hash = existing.Hash
	return nil
}

func (r *PackageRepository) PatchPackage(ctx context.Context, id string, patch map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{}
	for key, value := range patch {
		set[key] = value
	}

	result, err := r.col.UpdateOne(ctx, bson.M{"package.id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

func (r *PackageRepository) DeletePackages(ctx context.Context, ids []string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	in := make(bson.A, len(ids))
	for i, id := range ids {
		in[i] = id
	}
	_, err := r.col.DeleteMany(ctx, bson.M{"package.id": bson.M{"$in": in}})
	return err
}

func (r *PackageRepository) ListPackages(ctx context.Context, q query.Query, sort ports.SortMethod, skip, limit int) ([]domain.PackageMeta, error) {
	timer := prometheus.NewTimer(metrics.PackageListDuration.WithLabelValues("mongo"))
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSkip(int64(skip)).
		SetSort(sortParam(sort))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.col.Find(ctx, ToFilter(q), opts)
	if err != nil {
		return nil, err
	}

	var metas []domain.PackageMeta
	if err := cursor.All(ctx, &metas); err != nil {
		return nil, err
	}
	return metas, nil
}

func (r *PackageRepository) ListPackageHashes(ctx context.Context, ids []string) ([]ports.PackageHash, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	projection := bson.M{"package.id": 1, "hash": 1}
	cursor, err := r.col.Find(ctx, idFilter(ids), options.Find().SetProjection(projection))
	if err != nil {
		return nil, err
	}

	var metas []domain.PackageMeta
	if err := cursor.All(ctx, &metas); err != nil {
		return nil, err
	}

	hashes := make([]ports.PackageHash, 0, len(metas))
	for i := range metas {
		hashes = append(hashes, ports.PackageHash{ID: metas[i].Package.ID, Hash: metas[i].Hash})
	}
	return hashes, nil
}

func (r *PackageRepository) CountPackagesByCreatorSince(ctx context.Context, creator domain.AccountID, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{
		"creator":       string(creator),
		"creation_date": bson.M{"$gte": since.UTC()},
	})
}

// EnsureIndexes creates the packages indexes.
func (r *PackageRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "package.id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "package.past_ids", Value: 1}}},
		{Keys: bson.D{{Key: "creator", Value: 1}, {Key: "creation_date", Value: -1}}},
		{Keys: bson.D{{Key: "creation_date", Value: -1}}},
		{Keys: bson.D{{Key: "updated_date", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func sortParam(sort ports.SortMethod) bson.D {
	switch sort {
	case ports.SortRecentlyUpdated:
		return bson.D{{Key: "updated_date", Value: -1}}
	case ports.SortPackageID:
		return bson.D{{Key: "package.id", Value: 1}}
	default:
		return bson.D{{Key: "creation_date", Value: -1}}
	}
}
