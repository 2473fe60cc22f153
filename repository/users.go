package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	padlock "github.com/goliatone/go-padlock"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var _ padlock.UserStore = (*Users)(nil)

// Users implements padlock.UserStore on top of a go-repository-bun
// repository.
type Users struct {
	repository.Repository[*padlock.User]
	db bun.IDB
}

// NewUsers creates a new repository.
func NewUsers(db *bun.DB) *Users {
	repo := repository.NewRepository[*padlock.User](db, repository.ModelHandlers[*padlock.User]{
		NewRecord: func() *padlock.User { return &padlock.User{} },
		GetID: func(u *padlock.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *padlock.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &Users{Repository: repo, db: db}
}

// WithTx returns a repository bound to tx.
func (r *Users) WithTx(tx bun.Tx) *Users {
	return &Users{Repository: r.Repository, db: tx}
}

// ByToken selects the user holding token.
func ByToken(token string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.token = ?", token)
	}
}

// ByEmail selects the user with the given email.
func ByEmail(email string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.email = ?", strings.TrimSpace(email))
	}
}

// NotActivated limits the selection to users pending activation.
func NotActivated() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.activated = ?", false)
	}
}

// ByID selects the user with the given id.
func ByID(id uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id = ?", id)
	}
}

// FindByToken implements padlock.UserStore.
func (r *Users) FindByToken(ctx context.Context, token string) (*padlock.User, error) {
	if token == "" {
		return nil, padlock.ErrUserNotFound
	}
	return r.first(ctx, ByToken(token))
}

// FindByEmail implements padlock.UserStore. Refinements are applied after
// the email condition.
func (r *Users) FindByEmail(ctx context.Context, email string, refine ...padlock.Refinement) (*padlock.User, error) {
	for _, fn := range refine {
		if fn == nil {
			return nil, padlock.ErrInvalidRefinement
		}
	}
	return r.first(ctx, ByEmail(email), refinements(refine...))
}

// FindByTokenWhereNotActivated implements padlock.UserStore.
func (r *Users) FindByTokenWhereNotActivated(ctx context.Context, token string) (*padlock.User, error) {
	if token == "" {
		return nil, padlock.ErrUserNotFound
	}
	return r.first(ctx, ByToken(token), NotActivated())
}

// Create inserts a new user, assigning an ID when missing.
func (r *Users) Create(ctx context.Context, user *padlock.User, criteria ...repository.InsertCriteria) (*padlock.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now()
	user.CreatedAt = &now
	user.UpdatedAt = &now

	return r.Repository.CreateTx(ctx, r.db, user, criteria...)
}

// Save implements padlock.UserStore. Users without an ID are inserted,
// unknown IDs fail with padlock.ErrUserNotFound.
func (r *Users) Save(ctx context.Context, user *padlock.User) error {
	if user.ID == uuid.Nil {
		_, err := r.Create(ctx, user)
		return err
	}

	if _, err := r.first(ctx, ByID(user.ID)); err != nil {
		return err
	}

	now := time.Now()
	user.UpdatedAt = &now

	_, err := r.Repository.UpdateTx(ctx, r.db, user,
		repository.UpdateByID(user.ID.String()),
		func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.ExcludeColumn("created_at")
		},
	)
	return err
}

func (r *Users) first(ctx context.Context, criteria ...repository.SelectCriteria) (*padlock.User, error) {
	user := &padlock.User{}
	q := r.db.NewSelect().Model(user)
	for _, c := range criteria {
		q = q.Apply(c)
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, padlock.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
