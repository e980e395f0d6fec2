package unitofwork

import (
	"context"

	"friendlist-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ItemRepository() contract.ItemRepository
}
