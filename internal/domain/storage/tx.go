package storage

import "context"

// Transactor runs a function inside a single database transaction.
// Repository calls made with the context passed to fn share that
// transaction; fn returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
