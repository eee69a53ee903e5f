// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `go generate ./test/mocks` from the root directory.
package mocks

//go:generate mockgen -source=../../internal/core/ports/item_repository.go -destination=item_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/inventory_service.go -destination=inventory_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/events.go -destination=events_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/idempotency.go -destination=idempotency_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/snapshot.go -destination=snapshot_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/database.go -destination=database_mock.go -package=mocks
