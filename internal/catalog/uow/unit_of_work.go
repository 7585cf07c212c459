// Package uow provides a unit of work with compensating actions.
//
// Each successful step of a multi-step write registers a compensation. If a
// later step fails, the compensations run in reverse registration order so
// that no orphaned or half-updated record is left behind. On success they
// are discarded.
package uow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zjrosen/fedrepo/internal/log"
)

// Compensation undoes one completed step.
type Compensation struct {
	Name string
	Fn   func(ctx context.Context) error
}

// UnitOfWork collects compensations for the steps of one write operation.
type UnitOfWork struct {
	mu            sync.Mutex
	compensations []Compensation
}

// Compensate registers fn to undo a step that has just succeeded.
func (u *UnitOfWork) Compensate(name string, fn func(ctx context.Context) error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.compensations = append(u.compensations, Compensation{Name: name, Fn: fn})
}

// Len returns the number of registered compensations.
func (u *UnitOfWork) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.compensations)
}

// rollback runs the compensations in reverse order. Every compensation is
// attempted even if an earlier one fails.
func (u *UnitOfWork) rollback(ctx context.Context) error {
	u.mu.Lock()
	compensations := u.compensations
	u.compensations = nil
	u.mu.Unlock()

	var errs []error
	for i := len(compensations) - 1; i >= 0; i-- {
		c := compensations[i]
		if err := c.Fn(ctx); err != nil {
			log.ErrorErr(log.CatUOW, "compensation failed", err, "step", c.Name)
			errs = append(errs, fmt.Errorf("compensate %s: %w", c.Name, err))
			continue
		}
		log.Debug(log.CatUOW, "compensation applied", "step", c.Name)
	}
	return errors.Join(errs...)
}

func (u *UnitOfWork) commit() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.compensations = nil
}

// Run executes fn within a new unit of work. If fn returns an error, every
// registered compensation runs in reverse order and fn's error is returned.
// Compensations run on a context detached from cancellation so that an
// aborted request still rolls back.
func Run(ctx context.Context, fn func(ctx context.Context, u *UnitOfWork) error) error {
	u := &UnitOfWork{}
	if err := fn(ctx, u); err != nil {
		if rbErr := u.rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	u.commit()
	return nil
}
