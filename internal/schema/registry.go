package schema

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/authguard/authguard-api/pkg/logger"
)

// ErrConnection marks resolution failures caused by the database being
// unreachable. Failed attempts are never cached, so the next call retries.
var ErrConnection = errors.New("schema connection failed")

// Opener opens a pooled connection whose search_path is bound to the given
// schema. config.NewSchemaDatabase satisfies it in production.
type Opener func(schemaName string) (*gorm.DB, error)

// Provisioner creates and migrates a schema so a connection to it is usable.
type Provisioner interface {
	Provision(ctx context.Context, schemaName string) error
}

// Registry caches one pooled connection per schema name. First resolution of
// a schema provisions it (when a Provisioner is configured), opens the pool
// and stores it; later calls reuse the cached handle. Get-or-create is
// single-flight per key, so N concurrent first resolutions of the same schema
// run exactly one provisioning/open sequence.
//
// Entries live until Shutdown or Invalidate; there is no eviction policy.
type Registry struct {
	name        string
	open        Opener
	provisioner Provisioner
	logger      *logger.Logger

	mu    sync.RWMutex
	conns map[string]*gorm.DB
	group singleflight.Group
}

// NewRegistry creates a registry. provisioner may be nil for registries that
// only attach to schemas created elsewhere.
func NewRegistry(name string, open Opener, provisioner Provisioner, logger *logger.Logger) *Registry {
	return &Registry{
		name:        name,
		open:        open,
		provisioner: provisioner,
		logger:      logger,
		conns:       make(map[string]*gorm.DB),
	}
}

// Resolve returns the connection bound to schemaName, creating it on first
// use. Failures are not cached.
func (r *Registry) Resolve(ctx context.Context, schemaName string) (*gorm.DB, error) {
	if !ValidIdentifier(schemaName) {
		return nil, fmt.Errorf("invalid schema name %q", schemaName)
	}

	r.mu.RLock()
	db, ok := r.conns[schemaName]
	r.mu.RUnlock()
	if ok {
		return db, nil
	}

	v, err, _ := r.group.Do(schemaName, func() (any, error) {
		// The flight's result is shared with every waiting caller, so it
		// must not die with whichever caller happened to start it.
		ctx := context.WithoutCancel(ctx)

		// A concurrent caller may have populated the entry while we waited
		// for the flight slot.
		r.mu.RLock()
		db, ok := r.conns[schemaName]
		r.mu.RUnlock()
		if ok {
			return db, nil
		}

		if r.provisioner != nil {
			if err := r.provisioner.Provision(ctx, schemaName); err != nil {
				return nil, err
			}
		}

		// gorm.Open pings on initialize, so an unreachable database surfaces
		// here and nothing gets cached.
		db, err := r.open(schemaName)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrConnection, schemaName, err)
		}

		r.mu.Lock()
		r.conns[schemaName] = db
		r.mu.Unlock()

		r.logger.Info("Schema connection established",
			zap.String("registry", r.name),
			zap.String("schema", schemaName))

		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB), nil
}

// Invalidate closes and forgets the entry for schemaName, if present. Used
// after DROP SCHEMA so the registry never hands out a connection pointed at
// a schema that no longer exists.
func (r *Registry) Invalidate(schemaName string) {
	r.mu.Lock()
	db, ok := r.conns[schemaName]
	if ok {
		delete(r.conns, schemaName)
	}
	r.mu.Unlock()

	if ok {
		if err := closeDB(db); err != nil {
			r.logger.Warn("Failed to close invalidated schema connection",
				zap.String("registry", r.name),
				zap.String("schema", schemaName),
				zap.Error(err))
		}
	}
}

// Size returns the number of live cached connections.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Shutdown closes every cached connection. The registry is unusable after.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*gorm.DB)
	r.mu.Unlock()

	var errs []error
	for schemaName, db := range conns {
		if err := closeDB(db); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", schemaName, err))
		}
	}
	return errors.Join(errs...)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
