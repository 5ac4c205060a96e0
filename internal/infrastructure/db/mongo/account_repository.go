package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
)

const collectionAccounts = "users"

// AccountRepository implements the account storage contract. ObjectIDs stay
// internal to this package; the rest of the system sees opaque hex ids.
type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts)}
}

type accountDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Username           string             `bson:"username"`
	NormalizedUsername string             `bson:"normalized_username"`
	DiscordID          string             `bson:"discord_id,omitempty"`
	Avatar             string             `bson:"avatar"`
	Admin              bool               `bson:"admin,omitempty"`
	Banned             bool               `bson:"banned,omitempty"`
}

func (d *accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:                 domain.AccountID(d.ID.Hex()),
		Username:           d.Username,
		NormalizedUsername: d.NormalizedUsername,
		DiscordID:          d.DiscordID,
		Avatar:             d.Avatar,
		Admin:              d.Admin,
		Banned:             d.Banned,
	}
}

func (r *AccountRepository) CreateAccount(ctx context.Context, account *domain.Account) (domain.AccountID, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := accountDoc{
		Username:           account.Username,
		NormalizedUsername: account.NormalizedUsername,
		DiscordID:          account.DiscordID,
		Avatar:             account.Avatar,
		Admin:              account.Admin,
		Banned:             account.Banned,
	}

	result, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", domain.ErrAccountExists
		}
		return "", fmt.Errorf("insert account: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert account: unexpected id type %T", result.InsertedID)
	}
	return domain.AccountID(oid.Hex()), nil
}

func (r *AccountRepository) FindAccount(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindAccountByDiscordID(ctx context.Context, discordID string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"discord_id": discordID})
}

func (r *AccountRepository) FindAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"normalized_username": name})
}

func (r *AccountRepository) PatchAccount(ctx context.Context, id domain.AccountID, patch ports.AccountPatch) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return domain.ErrAccountNotFound
	}

	set := bson.M{}
	if patch.Username != nil {
		set["username"] = *patch.Username
		set["normalized_username"] = domain.NormalizeUsername(*patch.Username)
	}
	if patch.Banned != nil {
		set["banned"] = *patch.Banned
	}
	if len(set) == 0 {
		return nil
	}

	result, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAccountExists
		}
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) AccountNameMap(ctx context.Context, ids []domain.AccountID) (map[domain.AccountID]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oids := make(bson.A, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(string(id)); err == nil {
			oids = append(oids, oid)
		}
	}

	projection := bson.M{"username": 1}
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, err
	}

	var docs []accountDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	names := make(map[domain.AccountID]string, len(docs))
	for i := range docs {
		names[domain.AccountID(docs[i].ID.Hex())] = docs[i].Username
	}
	return names, nil
}

// EnsureIndexes creates the accounts indexes: normalized_username backs
// username uniqueness.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "normalized_username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "discord_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}
