package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vigil-health/vigil/pkg/repository"
)

type repo struct {
	db     *sql.DB
	tokens *Tokens
	logger *slog.Logger
}

// New creates an auth repository implementing the System interface.
func New(db *sql.DB, tokens *Tokens, logger *slog.Logger) System {
	return &repo{
		db:     db,
		tokens: tokens,
		logger: logger.With("system", "auth"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

// Login checks the identifier against org admins first, then members.
// Password mismatches and unknown identifiers collapse into the same error so
// the response does not reveal which accounts exist.
func (r *repo) Login(ctx context.Context, cmd LoginCommand) (*Session, error) {
	if admin, hash, err := r.findAdmin(ctx, cmd.Identifier); err == nil {
		if verifyPassword(hash, cmd.Password) {
			return r.startSession(admin)
		}
		return nil, ErrInvalidCredentials
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query org admin: %w", err)
	}

	member, hash, active, err := r.findMember(ctx, cmd.Identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("query member: %w", err)
	}

	if !verifyPassword(hash, cmd.Password) {
		return nil, ErrInvalidCredentials
	}
	if !active {
		return nil, ErrInactive
	}

	return r.startSession(member)
}

func (r *repo) Register(ctx context.Context, cmd RegisterCommand) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	q := `
		INSERT INTO members(id, username, email, password_hash, active)
		VALUES ($1, $2, $3, $4, FALSE)`

	_, err = r.db.ExecContext(ctx, q, uuid.New(), cmd.Username, cmd.Email, string(hash))
	if err != nil {
		return repository.MapError(err, ErrInvalidCredentials, ErrDuplicate)
	}

	r.logger.Info("member registered", "username", cmd.Username)
	return nil
}

func (r *repo) Verify(token string) (Principal, error) {
	return r.tokens.Verify(token)
}

func (r *repo) startSession(p Principal) (*Session, error) {
	token, err := r.tokens.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	r.logger.Info("session started", "role", p.Role(), "subject", p.Subject())

	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		Role:        p.Role(),
	}, nil
}

func (r *repo) findAdmin(ctx context.Context, email string) (OrgAdmin, string, error) {
	var (
		admin OrgAdmin
		hash  string
	)

	err := r.db.QueryRowContext(
		ctx,
		"SELECT id, org_id, email, password_hash FROM org_admins WHERE email = $1",
		email,
	).Scan(&admin.ID, &admin.OrgID, &admin.Email, &hash)

	return admin, hash, err
}

func (r *repo) findMember(ctx context.Context, identifier string) (Member, string, bool, error) {
	var (
		member Member
		hash   string
		active bool
	)

	err := r.db.QueryRowContext(
		ctx,
		"SELECT id, username, password_hash, active FROM members WHERE username = $1 OR email = $1",
		identifier,
	).Scan(&member.ID, &member.Username, &hash, &active)

	return member, hash, active, err
}

func verifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
