// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `go generate ./test/mocks/...` from the root directory.
package mocks

//go:generate mockgen -source=../../internal/core/ports/product_repository.go -destination=product_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/count_repository.go -destination=count_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/count_service.go -destination=count_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/database.go -destination=database_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/events.go -destination=events_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/evidence.go -destination=evidence_mock.go -package=mocks
//go:generate mockgen -destination=offline_mock.go -package=mocks github.com/ammerola/countsync/internal/offline Dispatcher,Prober
