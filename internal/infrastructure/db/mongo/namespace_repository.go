package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modhaven/modhaven/internal/core/domain"
)

const collectionNamespaces = "namespaces"

// NamespaceRepository implements the namespace storage contract with
// index-friendly pattern queries. It only translates lookups and writes;
// the authority decisions stay in the domain package.
type NamespaceRepository struct {
	col *mongo.Collection
}

func NewNamespaceRepository(db *mongo.Database) *NamespaceRepository {
	return &NamespaceRepository{col: db.Collection(collectionNamespaces)}
}

func (r *NamespaceRepository) FindNamespace(ctx context.Context, prefix string) (*domain.Namespace, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ns domain.Namespace
	err := r.col.FindOne(ctx, bson.M{"prefix": prefix}).Decode(&ns)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNamespaceNotFound
		}
		return nil, err
	}
	return &ns, nil
}

// ListRelatedNamespaces materializes the substring relation in both
// directions: an anchored case-insensitive regex finds namespaces the
// candidate is a prefix of, and $indexOfCP over the lowercased strings finds
// namespaces that are a prefix of the candidate.
func (r *NamespaceRepository) ListRelatedNamespaces(ctx context.Context, prefix string) ([]domain.Namespace, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"prefix": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix), "$options": "i"}},
		bson.M{"$expr": bson.M{"$eq": bson.A{
			bson.M{"$indexOfCP": bson.A{strings.ToLower(prefix), bson.M{"$toLower": "$prefix"}}},
			0,
		}}},
	}}

	return r.list(ctx, filter)
}

func (r *NamespaceRepository) ListGoverningNamespaces(ctx context.Context, packageID string) ([]domain.Namespace, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"registered": true,
		"$expr": bson.M{"$eq": bson.A{
			bson.M{"$indexOfCP": bson.A{strings.ToLower(packageID), bson.M{"$toLower": "$prefix"}}},
			0,
		}},
	}

	return r.list(ctx, filter)
}

func (r *NamespaceRepository) ListAccountNamespaces(ctx context.Context, accountID domain.AccountID) ([]domain.Namespace, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.list(ctx, bson.M{"members.id": string(accountID)})
}

func (r *NamespaceRepository) InsertNamespace(ctx context.Context, ns *domain.Namespace) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, ns)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrNamespaceConflict
	}
	return err
}

// UpdateNamespaceMembers applies the batch as sequential writes against the
// namespace document: removals, then invites, then role changes. Invites
// only push when the id is not already a member, matching
// domain.ApplyMemberUpdates.
func (r *NamespaceRepository) UpdateNamespaceMembers(ctx context.Context, prefix string, updates domain.MemberUpdates) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if len(updates.Removed) > 0 {
		removed := make(bson.A, len(updates.Removed))
		for i, id := range updates.Removed {
			removed[i] = string(id)
		}
		_, err := r.col.UpdateOne(ctx,
			bson.M{"prefix": prefix},
			bson.M{"$pull": bson.M{"members": bson.M{"id": bson.M{"$in": removed}}}},
		)
		if err != nil {
			return err
		}
	}

	for _, id := range updates.Invited {
		_, err := r.col.UpdateOne(ctx,
			bson.M{"prefix": prefix, "members.id": bson.M{"$ne": string(id)}},
			bson.M{"$push": bson.M{"members": domain.Member{ID: id, Role: domain.RoleInvited}}},
		)
		if err != nil {
			return err
		}
	}

	for id, role := range updates.RoleChanges {
		_, err := r.col.UpdateOne(ctx,
			bson.M{"prefix": prefix},
			bson.M{"$set": bson.M{"members.$[m].role": string(role)}},
			options.Update().SetArrayFilters(options.ArrayFilters{
				Filters: []any{bson.M{"m.id": string(id)}},
			}),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *NamespaceRepository) SetNamespaceRegistered(ctx context.Context, prefix string, registered bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := r.col.UpdateOne(ctx,
		bson.M{"prefix": prefix},
		bson.M{"$set": bson.M{"registered": registered}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNamespaceNotFound
	}
	return nil
}

func (r *NamespaceRepository) DeleteNamespace(ctx context.Context, prefix string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.DeleteOne(ctx, bson.M{"prefix": prefix})
	return err
}

// EnsureIndexes creates the namespaces indexes: prefix uniqueness backs the
// one-namespace-per-prefix invariant.
func (r *NamespaceRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "prefix", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "members.id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *NamespaceRepository) list(ctx context.Context, filter bson.M) ([]domain.Namespace, error) {
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var namespaces []domain.Namespace
	if err := cursor.All(ctx, &namespaces); err != nil {
		return nil, err
	}
	return namespaces, nil
}
