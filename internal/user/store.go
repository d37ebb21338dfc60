package user

import (
	"context"

	id "bayanihan/pkg/domain"
)

// Store persists accounts.
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	Update(ctx context.Context, u *User) error
	ListPending(ctx context.Context) ([]*User, error)
	ListByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*User, error)
}
