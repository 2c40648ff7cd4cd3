package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const grantColumns = `id, owner_address, delegate_address, permission_type, network_id, token_address,
    period_amount::text, period_duration_seconds, expires_at, adjustable, status,
    authorization_proof, created_at, updated_at, activated_at, revoked_at`

func scanGrant(row interface{ Scan(dest ...interface{}) error }) (PermissionGrant, error) {
	var i PermissionGrant
	err := row.Scan(
		&i.ID,
		&i.OwnerAddress,
		&i.DelegateAddress,
		&i.PermissionType,
		&i.NetworkID,
		&i.TokenAddress,
		&i.PeriodAmount,
		&i.PeriodDurationSeconds,
		&i.ExpiresAt,
		&i.Adjustable,
		&i.Status,
		&i.AuthorizationProof,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ActivatedAt,
		&i.RevokedAt,
	)
	return i, err
}

const createGrant = `-- name: CreateGrant :one
INSERT INTO permission_grants (
    id, owner_address, delegate_address, permission_type, network_id, token_address,
    period_amount, period_duration_seconds, expires_at, adjustable, status, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7::text::numeric, $8, $9, $10, 'pending', $11, $11
)
RETURNING ` + grantColumns

type CreateGrantParams struct {
	ID                    uuid.UUID `json:"id"`
	OwnerAddress          string    `json:"owner_address"`
	DelegateAddress       string    `json:"delegate_address"`
	PermissionType        string    `json:"permission_type"`
	NetworkID             int64     `json:"network_id"`
	TokenAddress          string    `json:"token_address"`
	PeriodAmount          string    `json:"period_amount"`
	PeriodDurationSeconds int64     `json:"period_duration_seconds"`
	ExpiresAt             time.Time `json:"expires_at"`
	Adjustable            bool      `json:"adjustable"`
	CreatedAt             time.Time `json:"created_at"`
}

func (q *Queries) CreateGrant(ctx context.Context, arg CreateGrantParams) (PermissionGrant, error) {
	row := q.db.QueryRow(ctx, createGrant,
		arg.ID,
		arg.OwnerAddress,
		arg.DelegateAddress,
		arg.PermissionType,
		arg.NetworkID,
		arg.TokenAddress,
		arg.PeriodAmount,
		arg.PeriodDurationSeconds,
		arg.ExpiresAt,
		arg.Adjustable,
		arg.CreatedAt,
	)
	return scanGrant(row)
}

const getGrant = `-- name: GetGrant :one
SELECT ` + grantColumns + `
FROM permission_grants
WHERE id = $1`

func (q *Queries) GetGrant(ctx context.Context, id uuid.UUID) (PermissionGrant, error) {
	return scanGrant(q.db.QueryRow(ctx, getGrant, id))
}

const getGrantForUpdate = `-- name: GetGrantForUpdate :one
SELECT ` + grantColumns + `
FROM permission_grants
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetGrantForUpdate(ctx context.Context, id uuid.UUID) (PermissionGrant, error) {
	return scanGrant(q.db.QueryRow(ctx, getGrantForUpdate, id))
}

const listGrantsByOwner = `-- name: ListGrantsByOwner :many
SELECT ` + grantColumns + `
FROM permission_grants
WHERE owner_address = $1
ORDER BY created_at DESC`

func (q *Queries) ListGrantsByOwner(ctx context.Context, ownerAddress string) ([]PermissionGrant, error) {
	return q.listGrants(ctx, listGrantsByOwner, ownerAddress)
}

const listGrantsByDelegate = `-- name: ListGrantsByDelegate :many
SELECT ` + grantColumns + `
FROM permission_grants
WHERE delegate_address = $1
ORDER BY created_at DESC`

func (q *Queries) ListGrantsByDelegate(ctx context.Context, delegateAddress string) ([]PermissionGrant, error) {
	return q.listGrants(ctx, listGrantsByDelegate, delegateAddress)
}

func (q *Queries) listGrants(ctx context.Context, query string, arg string) ([]PermissionGrant, error) {
	rows, err := q.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PermissionGrant{}
	for rows.Next() {
		i, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const activateGrant = `-- name: ActivateGrant :one
UPDATE permission_grants
SET status = 'active',
    authorization_proof = $2,
    activated_at = $3,
    updated_at = $3
WHERE id = $1
RETURNING ` + grantColumns

type ActivateGrantParams struct {
	ID                 uuid.UUID `json:"id"`
	AuthorizationProof []byte    `json:"authorization_proof"`
	ActivatedAt        time.Time `json:"activated_at"`
}

func (q *Queries) ActivateGrant(ctx context.Context, arg ActivateGrantParams) (PermissionGrant, error) {
	return scanGrant(q.db.QueryRow(ctx, activateGrant, arg.ID, arg.AuthorizationProof, arg.ActivatedAt))
}

const updateGrantStatus = `-- name: UpdateGrantStatus :one
UPDATE permission_grants
SET status = $2,
    revoked_at = CASE WHEN $2 = 'revoked' THEN $3 ELSE revoked_at END,
    updated_at = $3
WHERE id = $1
RETURNING ` + grantColumns

type UpdateGrantStatusParams struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Queries) UpdateGrantStatus(ctx context.Context, arg UpdateGrantStatusParams) (PermissionGrant, error) {
	return scanGrant(q.db.QueryRow(ctx, updateGrantStatus, arg.ID, arg.Status, arg.UpdatedAt))
}

const updateGrantPeriodAmount = `-- name: UpdateGrantPeriodAmount :one
UPDATE permission_grants
SET period_amount = $2::text::numeric,
    updated_at = $3
WHERE id = $1
RETURNING ` + grantColumns

type UpdateGrantPeriodAmountParams struct {
	ID           uuid.UUID `json:"id"`
	PeriodAmount string    `json:"period_amount"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (q *Queries) UpdateGrantPeriodAmount(ctx context.Context, arg UpdateGrantPeriodAmountParams) (PermissionGrant, error) {
	return scanGrant(q.db.QueryRow(ctx, updateGrantPeriodAmount, arg.ID, arg.PeriodAmount, arg.UpdatedAt))
}
