package unitofwork

import "context"

// RepositoryFactory hands out a fresh UnitOfWork per request or job.
// Services depend on this instead of *gorm.DB so persistence stays
// behind the contract interfaces.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
