package barangay

import (
	"context"

	id "bayanihan/pkg/domain"
)

// Store persists barangays. CreateIfCodeAvailable must resolve concurrent
// creates with the same code to exactly one winner; losers get
// sentinel.ErrAlreadyUsed.
type Store interface {
	CreateIfCodeAvailable(ctx context.Context, b *Barangay) error
	FindByID(ctx context.Context, barangayID id.BarangayID) (*Barangay, error)
	FindByCode(ctx context.Context, code string) (*Barangay, error)
	Update(ctx context.Context, b *Barangay) error
	List(ctx context.Context) ([]*Barangay, error)
}
