// Package engine orchestrates animation runs: it owns the configuration and
// parameters, builds the nested base, drives the frame worker pool and
// verifies that every frame was produced.
package engine

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Bruno02468/gifception/internal/anchored"
	"github.com/Bruno02468/gifception/internal/config"
	"github.com/Bruno02468/gifception/internal/logger"
	"github.com/Bruno02468/gifception/internal/nest"
	"github.com/Bruno02468/gifception/internal/storage"
)

var (
	// ErrInProgress is returned when a run is started while the previous one
	// has not been waited on yet.
	ErrInProgress = errors.New("frame generation still in progress")

	// ErrNotStarted is returned when waiting without ever starting a run.
	ErrNotStarted = errors.New("no frame generation was ever started")
)

// Gifception turns a base image into the frames of a looping zoom animation.
//
// The lifecycle is start, wait, collect: StartFrames launches the worker
// pool and hands back the frame directory, WaitFrames joins the pool and
// verifies completeness, and MakeFrames bundles the two for callers that
// just want the frames. Starting, waiting and anchor changes belong to one
// controlling goroutine; Generating and Progress may be called from any
// goroutine, so a progress display can poll while another goroutine blocks
// in WaitFrames.
type Gifception struct {
	base   *anchored.Image
	cfg    config.Config
	params config.Params

	nested      *anchored.Image
	pool        atomic.Pointer[Pool] // in-flight run, nil when idle
	everStarted bool
}

// NewGifception validates the configuration and wraps img as the animation's
// base image with a centered anchor.
func NewGifception(img image.Image, cfg config.Config, params config.Params) (*Gifception, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	acfg, err := cfg.Anchored()
	if err != nil {
		return nil, err
	}
	return &Gifception{
		base:   anchored.New(img, acfg),
		cfg:    cfg,
		params: params,
	}, nil
}

// AnchorRelative returns the base image anchor as fractions of its size.
func (g *Gifception) AnchorRelative() (x, y float64) {
	return g.base.AnchorRelative()
}

// AnchorAbsolute returns the base image anchor in pixel coordinates.
func (g *Gifception) AnchorAbsolute() (x, y float64) {
	return g.base.AnchorAbsolute()
}

// SetAnchorRelative moves the zoom target, invalidating any nested base
// built for the previous anchor. Takes effect on the next run.
func (g *Gifception) SetAnchorRelative(x, y float64) error {
	if err := g.base.SetAnchorRelative(x, y); err != nil {
		return err
	}
	g.nested = nil
	return nil
}

// SetAnchorAbsolute moves the zoom target by pixel coordinate, invalidating
// any nested base built for the previous anchor. Takes effect on the next
// run.
func (g *Gifception) SetAnchorAbsolute(x, y float64) error {
	if err := g.base.SetAnchorAbsolute(x, y); err != nil {
		return err
	}
	g.nested = nil
	return nil
}

// PrepareNestedBase builds the self-similar composite all frames derive
// from and caches it for subsequent runs. StartFrames calls it on demand,
// so calling it directly is only needed to control when the cost is paid,
// or to inspect the composite afterwards.
func (g *Gifception) PrepareNestedBase() error {
	nested, copies, err := nest.Build(g.base, g.params.Preup, g.params.InnerScale)
	if err != nil {
		return fmt.Errorf("preparing nested base: %w", err)
	}
	w, h := nested.Size()
	logger.Log.WithFields(logrus.Fields{
		"size":   fmt.Sprintf("%dx%d", w, h),
		"copies": copies,
	}).Debug("nested base ready")
	g.nested = nested
	return nil
}

// NestedBase returns the cached composite, or nil before PrepareNestedBase
// (or the first run) has built one.
func (g *Gifception) NestedBase() *anchored.Image {
	return g.nested
}

// StartFrames creates the frame directory and launches the worker pool,
// returning immediately. Ownership of the directory passes to the caller,
// who disposes of it once the frames have been consumed. A second start
// without an intervening WaitFrames fails with ErrInProgress.
func (g *Gifception) StartFrames() (*storage.FrameDir, error) {
	if g.pool.Load() != nil {
		return nil, ErrInProgress
	}
	if g.nested == nil {
		if err := g.PrepareNestedBase(); err != nil {
			return nil, err
		}
	}
	dir, err := storage.NewFrameDir(g.params.NumFrames)
	if err != nil {
		return nil, err
	}

	nested := g.nested
	params := g.params
	pool := NewPool(g.cfg.Workers, params.NumFrames, func(n int) error {
		return renderFrame(nested, params, dir, n)
	})
	pool.Start()

	logger.Log.WithFields(logrus.Fields{
		"frames":  params.NumFrames,
		"workers": g.cfg.Workers,
		"dir":     dir.Path(),
	}).Debug("frame generation started")

	g.pool.Store(pool)
	g.everStarted = true
	return dir, nil
}

// WaitFrames blocks until the current run finishes, then verifies it was
// complete. A timeout of zero or less waits forever. On ErrWaitTimeout the
// run stays joinable and WaitFrames may be called again; any other outcome
// ends the run. Waiting again after a finished run is a no-op, waiting
// without ever starting one fails with ErrNotStarted.
func (g *Gifception) WaitFrames(timeout time.Duration) error {
	pool := g.pool.Load()
	if pool == nil {
		if !g.everStarted {
			return ErrNotStarted
		}
		return nil
	}
	if err := pool.Wait(timeout); err != nil {
		if errors.Is(err, ErrWaitTimeout) {
			return err
		}
		g.pool.Store(nil)
		return err
	}
	g.pool.Store(nil)
	return nil
}

// Generating reports whether a started run still has frames outstanding.
func (g *Gifception) Generating() bool {
	pool := g.pool.Load()
	return pool != nil && pool.Generating()
}

// Progress returns how many frames the current run has completed and the
// total it will produce.
func (g *Gifception) Progress() (done, total int) {
	if pool := g.pool.Load(); pool != nil {
		return pool.Completed(), g.params.NumFrames
	}
	return 0, g.params.NumFrames
}

// MakeFrames generates all frames and blocks until they are done, returning
// the directory holding them. On failure the directory is cleaned up.
func (g *Gifception) MakeFrames() (*storage.FrameDir, error) {
	dir, err := g.StartFrames()
	if err != nil {
		return nil, err
	}
	if err := g.WaitFrames(0); err != nil {
		dir.Remove()
		return nil, err
	}
	return dir, nil
}
