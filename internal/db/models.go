package db

import (
	"time"

	"github.com/google/uuid"
)

type PermissionGrant struct {
	ID                    uuid.UUID  `json:"id"`
	OwnerAddress          string     `json:"owner_address"`
	DelegateAddress       string     `json:"delegate_address"`
	PermissionType        string     `json:"permission_type"`
	NetworkID             int64      `json:"network_id"`
	TokenAddress          string     `json:"token_address"`
	PeriodAmount          string     `json:"period_amount"`
	PeriodDurationSeconds int64      `json:"period_duration_seconds"`
	ExpiresAt             time.Time  `json:"expires_at"`
	Adjustable            bool       `json:"adjustable"`
	Status                string     `json:"status"`
	AuthorizationProof    []byte     `json:"authorization_proof"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	ActivatedAt           *time.Time `json:"activated_at"`
	RevokedAt             *time.Time `json:"revoked_at"`
}
