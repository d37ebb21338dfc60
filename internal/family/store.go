package family

import (
	"context"

	id "bayanihan/pkg/domain"
)

// Store persists families. CreateIfHeadAvailable must resolve concurrent
// creates by the same head to exactly one winner; losers get
// sentinel.ErrAlreadyUsed (a resident heads at most one family).
type Store interface {
	CreateIfHeadAvailable(ctx context.Context, f *Family) error
	FindByID(ctx context.Context, familyID id.FamilyID) (*Family, error)
	FindByHead(ctx context.Context, headID id.UserID) (*Family, error)
	ListByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*Family, error)
	Update(ctx context.Context, f *Family) error
}

// MemberStore persists family members together with their verifiable
// attributes.
type MemberStore interface {
	Create(ctx context.Context, m *Member) error
	FindByID(ctx context.Context, memberID id.MemberID) (*Member, error)
	ListByFamily(ctx context.Context, familyID id.FamilyID) ([]*Member, error)
	Update(ctx context.Context, m *Member) error
}
