package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cyphera/cyphera-agent/internal/db"
	"github.com/cyphera/cyphera-agent/internal/helpers"
	"github.com/cyphera/cyphera-agent/internal/interfaces"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/cyphera/cyphera-agent/internal/registry"
	"github.com/cyphera/cyphera-agent/internal/types/api/params"
	"github.com/cyphera/cyphera-agent/internal/types/business"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// GrantService handles the permission grant lifecycle
type GrantService struct {
	store  db.Store
	scopes interfaces.ScopeResolver
	tokens *registry.NetworkTokenRegistry
	now    func() time.Time
	logger *zap.Logger
}

// GrantServiceOption configures a GrantService
type GrantServiceOption func(*GrantService)

func WithGrantClock(now func() time.Time) GrantServiceOption {
	return func(s *GrantService) {
		s.now = now
	}
}

// NewGrantService creates a new grant service
func NewGrantService(store db.Store, scopes interfaces.ScopeResolver, tokens *registry.NetworkTokenRegistry, opts ...GrantServiceOption) *GrantService {
	s := &GrantService{
		store:  store,
		scopes: scopes,
		tokens: tokens,
		now:    time.Now,
		logger: logger.Log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGrant records a PENDING grant.
func (s *GrantService) CreateGrant(ctx context.Context, p params.CreateGrantParams) (*business.PermissionGrant, error) {
	now := s.now()
	if err := s.validateCreate(p, now); err != nil {
		return nil, err
	}

	row, err := s.store.CreateGrant(ctx, db.CreateGrantParams{
		ID:                    uuid.New(),
		OwnerAddress:          p.Owner.Hex(),
		DelegateAddress:       p.Delegate.Hex(),
		PermissionType:        string(p.PermissionType),
		NetworkID:             int64(p.NetworkID),
		TokenAddress:          p.Token.Hex(),
		PeriodAmount:          p.PeriodAmount.String(),
		PeriodDurationSeconds: int64(p.PeriodDuration / time.Second),
		ExpiresAt:             p.Expiry.UTC(),
		Adjustable:            p.Adjustable,
		CreatedAt:             now.UTC(),
	})
	if err != nil {
		s.logger.Error("Failed to create grant", zap.Error(err))
		return nil, fmt.Errorf("failed to create grant: %w", err)
	}

	s.logger.Info("Grant created",
		zap.String("grant_id", row.ID.String()),
		zap.String("owner", row.OwnerAddress),
		zap.String("delegate", row.DelegateAddress),
		zap.String("permission_type", row.PermissionType),
		zap.Int64("network_id", row.NetworkID))
	return toBusinessGrant(row)
}

func (s *GrantService) validateCreate(p params.CreateGrantParams, now time.Time) error {
	zero := common.Address{}
	if p.Owner == zero || p.Delegate == zero {
		return business.InvalidRequestf("owner and delegate are required")
	}
	if p.Owner == p.Delegate {
		return business.InvalidRequestf("owner cannot delegate to itself")
	}
	if p.PeriodAmount == nil || p.PeriodAmount.Sign() <= 0 {
		return business.InvalidRequestf("period amount must be positive")
	}
	if p.PeriodDuration < time.Second || p.PeriodDuration%time.Second != 0 {
		return business.InvalidRequestf("period duration must be a whole number of seconds")
	}
	if !p.Expiry.After(now) {
		return business.InvalidRequestf("expiry must be in the future")
	}
	// Resolving checks the permission type is enabled and the network is known.
	if _, err := s.scopes.ResolveScope(p.PermissionType, p.NetworkID); err != nil {
		return err
	}
	if _, ok := s.tokens.Token(p.NetworkID, p.Token); !ok {
		return fmt.Errorf("%w: token %s is not registered on network %d", business.ErrScopeViolation, p.Token.Hex(), p.NetworkID)
	}
	return nil
}

// ActivateGrant durably records the owner's authorization proof and moves the grant to ACTIVE.
func (s *GrantService) ActivateGrant(ctx context.Context, p params.ActivateGrantParams) (*business.PermissionGrant, error) {
	if len(p.Proof.Data) == 0 {
		return nil, business.InvalidRequestf("authorization proof is required")
	}
	encoded, err := encodeProof(p.Proof)
	if err != nil {
		return nil, err
	}

	var activated db.PermissionGrant
	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		grant, err := s.loadForUpdate(ctx, q, p.GrantID)
		if err != nil {
			return err
		}
		if err := requireOwner(grant, p.Caller); err != nil {
			return err
		}
		now := s.now()
		if grant.IsExpired(now) {
			return fmt.Errorf("%w: grant expired at %s", business.ErrGrantNotActive, grant.Expiry.Format(time.RFC3339))
		}
		if grant.Status != business.GrantStatusPending {
			return fmt.Errorf("%w: cannot activate a %s grant", business.ErrInvalidGrantTransition, grant.Status)
		}

		ok, err := s.scopes.ValidateScope(p.Proof.Scope, grant.NetworkID, grant.PermissionType)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: signed scope exceeds the %s scope", business.ErrScopeViolation, grant.PermissionType)
		}
		if !p.Proof.Scope.ContainsTarget(grant.Token) {
			return fmt.Errorf("%w: signed scope does not cover the grant token", business.ErrScopeViolation)
		}

		activated, err = q.ActivateGrant(ctx, db.ActivateGrantParams{
			ID:                 grant.ID,
			AuthorizationProof: encoded,
			ActivatedAt:        now.UTC(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Grant activated", zap.String("grant_id", activated.ID.String()))
	return toBusinessGrant(activated)
}

// RevokeGrant moves a grant to REVOKED. Revoking a revoked grant returns it unchanged.
func (s *GrantService) RevokeGrant(ctx context.Context, grantID uuid.UUID, caller common.Address) (*business.PermissionGrant, error) {
	var revoked *business.PermissionGrant
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		grant, err := s.loadForUpdate(ctx, q, grantID)
		if err != nil {
			return err
		}
		if err := requireOwner(grant, caller); err != nil {
			return err
		}
		switch grant.EffectiveStatus(s.now()) {
		case business.GrantStatusRevoked:
			revoked = grant
			return nil
		case business.GrantStatusExpired:
			return fmt.Errorf("%w: grant already expired", business.ErrInvalidGrantTransition)
		}

		row, err := q.UpdateGrantStatus(ctx, db.UpdateGrantStatusParams{
			ID:        grantID,
			Status:    string(business.GrantStatusRevoked),
			UpdatedAt: s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to revoke grant: %w", err)
		}
		revoked, err = toBusinessGrant(row)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Grant revoked", zap.String("grant_id", grantID.String()))
	return revoked, nil
}

// AdjustGrant changes the period amount of an adjustable grant. The new
// amount applies to the current window; consumption above it leaves nothing
// remaining until the window rolls.
func (s *GrantService) AdjustGrant(ctx context.Context, p params.AdjustGrantParams) (*business.PermissionGrant, error) {
	if p.NewPeriodAmount == nil || p.NewPeriodAmount.Sign() <= 0 {
		return nil, business.InvalidRequestf("period amount must be positive")
	}

	var adjusted *business.PermissionGrant
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		grant, err := s.loadForUpdate(ctx, q, p.GrantID)
		if err != nil {
			return err
		}
		if err := requireOwner(grant, p.Caller); err != nil {
			return err
		}
		if !grant.Adjustable {
			return business.ErrGrantNotAdjustable
		}
		if status := grant.EffectiveStatus(s.now()); status.IsTerminal() {
			return fmt.Errorf("%w: grant is %s", business.ErrGrantNotActive, status)
		}

		row, err := q.UpdateGrantPeriodAmount(ctx, db.UpdateGrantPeriodAmountParams{
			ID:           p.GrantID,
			PeriodAmount: p.NewPeriodAmount.String(),
			UpdatedAt:    s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to adjust grant: %w", err)
		}
		adjusted, err = toBusinessGrant(row)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Grant period amount adjusted",
		zap.String("grant_id", p.GrantID.String()),
		zap.String("period_amount", p.NewPeriodAmount.String()))
	return adjusted, nil
}

// GetGrant loads a grant, persisting the EXPIRED transition if it is past expiry.
func (s *GrantService) GetGrant(ctx context.Context, grantID uuid.UUID) (*business.PermissionGrant, error) {
	row, err := s.store.GetGrant(ctx, grantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", business.ErrGrantNotFound, grantID)
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}
	grant, err := toBusinessGrant(row)
	if err != nil {
		return nil, err
	}
	return s.applyExpiry(ctx, grant), nil
}

// ListGrants returns grants by owner, or by delegate when no owner is given.
func (s *GrantService) ListGrants(ctx context.Context, p params.ListGrantsParams) ([]business.PermissionGrant, error) {
	var (
		rows []db.PermissionGrant
		err  error
	)
	switch {
	case p.Owner != nil:
		rows, err = s.store.ListGrantsByOwner(ctx, p.Owner.Hex())
	case p.Delegate != nil:
		rows, err = s.store.ListGrantsByDelegate(ctx, p.Delegate.Hex())
	default:
		return nil, business.InvalidRequestf("owner or delegate is required")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}

	grants := make([]business.PermissionGrant, 0, len(rows))
	for _, row := range rows {
		if p.Owner != nil && p.Delegate != nil && !helpers.SameAddress(row.DelegateAddress, p.Delegate.Hex()) {
			continue
		}
		grant, err := toBusinessGrant(row)
		if err != nil {
			return nil, err
		}
		grants = append(grants, *s.applyExpiry(ctx, grant))
	}
	return grants, nil
}

func (s *GrantService) loadForUpdate(ctx context.Context, q db.Querier, grantID uuid.UUID) (*business.PermissionGrant, error) {
	row, err := q.GetGrantForUpdate(ctx, grantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", business.ErrGrantNotFound, grantID)
		}
		return nil, fmt.Errorf("failed to load grant: %w", err)
	}
	return toBusinessGrant(row)
}

// applyExpiry persists EXPIRED for a grant found past expiry. A failed write
// is logged; the returned grant reports EXPIRED either way.
func (s *GrantService) applyExpiry(ctx context.Context, grant *business.PermissionGrant) *business.PermissionGrant {
	now := s.now()
	if grant.Status.IsTerminal() || !grant.IsExpired(now) {
		return grant
	}

	_, err := s.store.UpdateGrantStatus(ctx, db.UpdateGrantStatusParams{
		ID:        grant.ID,
		Status:    string(business.GrantStatusExpired),
		UpdatedAt: now.UTC(),
	})
	if err != nil {
		s.logger.Warn("Failed to persist grant expiry",
			zap.String("grant_id", grant.ID.String()),
			zap.Error(err))
	}
	grant.Status = business.GrantStatusExpired
	grant.UpdatedAt = now
	return grant
}

func requireOwner(grant *business.PermissionGrant, caller common.Address) error {
	if caller != grant.Owner {
		return fmt.Errorf("%w: only the grant owner may change it", business.ErrForbidden)
	}
	return nil
}

func encodeProof(proof business.AuthorizationProof) ([]byte, error) {
	raw, err := json.Marshal(proof)
	if err != nil {
		return nil, fmt.Errorf("failed to encode authorization proof: %w", err)
	}
	return raw, nil
}

func decodeProof(raw []byte) (*business.AuthorizationProof, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var proof business.AuthorizationProof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return nil, fmt.Errorf("failed to decode authorization proof: %w", err)
	}
	return &proof, nil
}

func toBusinessGrant(row db.PermissionGrant) (*business.PermissionGrant, error) {
	periodAmount, ok := new(big.Int).SetString(row.PeriodAmount, 10)
	if !ok {
		return nil, fmt.Errorf("grant %s has invalid period amount %q", row.ID, row.PeriodAmount)
	}
	proof, err := decodeProof(row.AuthorizationProof)
	if err != nil {
		return nil, err
	}
	return &business.PermissionGrant{
		ID:             row.ID,
		Owner:          common.HexToAddress(row.OwnerAddress),
		Delegate:       common.HexToAddress(row.DelegateAddress),
		PermissionType: business.PermissionType(row.PermissionType),
		NetworkID:      business.NetworkID(row.NetworkID),
		Token:          common.HexToAddress(row.TokenAddress),
		PeriodAmount:   periodAmount,
		PeriodDuration: time.Duration(row.PeriodDurationSeconds) * time.Second,
		Expiry:         row.ExpiresAt,
		Adjustable:     row.Adjustable,
		Status:         business.GrantStatus(row.Status),
		Authorization:  proof,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		ActivatedAt:    row.ActivatedAt,
		RevokedAt:      row.RevokedAt,
	}, nil
}
