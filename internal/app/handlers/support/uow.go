package support

import (
	"context"

	"gearshare/internal/app/uow"
)

func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	return beginUnit(ctx, factory, uow.TxOptions{ReadOnly: true})
}

// BeginUnit returns the ambient unit of work or starts a writable one. The
// returned commit func is nil when the unit is managed by a caller further up.
func BeginUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(context.Context) error, func(), error) {
	unit, execCtx, cleanup, err := beginUnit(ctx, factory, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, nil, err
	}
	if cleanup == nil {
		return unit, execCtx, nil, nil, nil
	}
	return unit, execCtx, unit.Commit, cleanup, nil
}

func beginUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := ctx
	if injector, ok := newUnit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}
