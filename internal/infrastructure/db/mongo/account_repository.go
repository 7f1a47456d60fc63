package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

const collectionAccounts = "accounts"

// AccountRepository implements ports.AccountRepository. Email uniqueness is
// enforced by a unique index on the normalized email, so concurrent
// registrations are serialized by the server.
type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts)}
}

type accountDoc struct {
	ID               string    `bson:"_id"`
	Email            string    `bson:"email"`
	EmailKey         string    `bson:"email_key"`
	DisplayName      string    `bson:"display_name"`
	PasswordHash     string    `bson:"password_hash"`
	IsActive         bool      `bson:"is_active"`
	IsEmailConfirmed bool      `bson:"is_email_confirmed"`
	Roles            []string  `bson:"roles"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toAccountDoc(a *domain.Account) accountDoc {
	return accountDoc{
		ID:               a.ID,
		Email:            a.Email,
		EmailKey:         domain.NormalizeEmail(a.Email),
		DisplayName:      a.DisplayName,
		PasswordHash:     a.PasswordHash,
		IsActive:         a.IsActive,
		IsEmailConfirmed: a.IsEmailConfirmed,
		Roles:            a.Roles,
		CreatedAt:        a.CreatedAt.UTC(),
		UpdatedAt:        a.UpdatedAt.UTC(),
	}
}

func (d accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:               d.ID,
		Email:            d.Email,
		DisplayName:      d.DisplayName,
		PasswordHash:     d.PasswordHash,
		IsActive:         d.IsActive,
		IsEmailConfirmed: d.IsEmailConfirmed,
		Roles:            d.Roles,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toAccountDoc(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return domain.NewStoreError("insert account", err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email_key": domain.NormalizeEmail(email)})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, domain.NewStoreError("find account", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"email_key": domain.NormalizeEmail(email)}, options.Count().SetLimit(1))
	if err != nil {
		return false, domain.NewStoreError("count accounts", err)
	}
	return n > 0, nil
}

// Update rewrites every mutable field; id and created_at are left untouched.
func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc := toAccountDoc(a)
	update := bson.M{"$set": bson.M{
		"email":              doc.Email,
		"email_key":          doc.EmailKey,
		"display_name":       doc.DisplayName,
		"password_hash":      doc.PasswordHash,
		"is_active":          doc.IsActive,
		"is_email_confirmed": doc.IsEmailConfirmed,
		"roles":              doc.Roles,
		"updated_at":         doc.UpdatedAt,
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": a.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return domain.NewStoreError("update account", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) Remove(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return domain.NewStoreError("remove account", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, f ports.AccountFilter) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "email_key", Value: 1}})
	cur, err := r.col.Find(ctx, accountFilter(f), opts)
	if err != nil {
		return nil, domain.NewStoreError("list accounts", err)
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.NewStoreError("list accounts", err)
	}
	accounts := make([]*domain.Account, 0, len(docs))
	for _, d := range docs {
		accounts = append(accounts, d.toDomain())
	}
	return accounts, nil
}

func accountFilter(f ports.AccountFilter) bson.M {
	search := strings.TrimSpace(f.Search)
	if search == "" {
		return bson.M{}
	}
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"display_name": rx},
		bson.M{"email": rx},
	}}
}

// EnsureIndexes creates the unique email index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email_key"),
	})
	return err
}
