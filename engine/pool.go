package engine

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// HintLevel is the level used for the hint engine.
const HintLevel = MaxLevel

// Pool holds the two engines of a session: one that plays against the human
// and a full-strength one that gives hints. They never share a process.
type Pool struct {
	Play Engine
	Hint Engine
}

// NewPool creates a pool from two independent engines.
func NewPool(play, hint Engine) *Pool {
	return &Pool{Play: play, Hint: hint}
}

// Start starts both engines. If either fails, both are stopped.
func (p *Pool) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Play.Start(gctx) })
	g.Go(func() error { return p.Hint.Start(gctx) })
	if err := g.Wait(); err != nil {
		p.Stop()
		return err
	}
	return nil
}

// Stop stops both engines and returns every error encountered.
func (p *Pool) Stop() error {
	var errs error
	for _, e := range []Engine{p.Play, p.Hint} {
		if e == nil {
			continue
		}
		if err := e.Stop(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

// Run starts the pool, calls fn, and stops the pool however fn returns.
func (p *Pool) Run(ctx context.Context, fn func(ctx context.Context, p *Pool) error) (err error) {
	if err := p.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if stopErr := p.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}()
	return fn(ctx, p)
}
