package resolve

import (
	"github.com/walteh/verifycp/pkg/archive"
	"github.com/walteh/verifycp/pkg/unit"
	"gitlab.com/tozd/go/errors"
)

// 📋 Plan is the ordered work list produced by Resolve.
// It owns the archive handles its units read from; Close releases them.
type Plan struct {
	Origin      string
	Destination string
	Units       []unit.TransferUnit
	Dirs        []string // directories to create before any unit runs
	Collisions  []*unit.NameCollisionError

	handles map[string]archive.Handle
	order   []string
}

func newPlan(origin, dest string) *Plan {
	return &Plan{
		Origin:      origin,
		Destination: dest,
		handles:     make(map[string]archive.Handle),
	}
}

func (p *Plan) addHandle(h archive.Handle) {
	if _, ok := p.handles[h.Path()]; ok {
		// units look handles up by path, one open copy serves them all
		_ = h.Close()
		return
	}
	p.handles[h.Path()] = h
	p.order = append(p.order, h.Path())
}

// Handle returns the open archive a unit reads from
func (p *Plan) Handle(archivePath string) (archive.Handle, bool) {
	h, ok := p.handles[archivePath]
	return h, ok
}

// Handles returns the open archives in the order they were opened
func (p *Plan) Handles() []archive.Handle {
	out := make([]archive.Handle, 0, len(p.order))
	for _, path := range p.order {
		out = append(out, p.handles[path])
	}
	return out
}

// HasArchives reports whether any unit reads from an archive
func (p *Plan) HasArchives() bool {
	return len(p.handles) > 0
}

// Merge appends other to p and takes ownership of its handles
func (p *Plan) Merge(other *Plan) {
	p.Units = append(p.Units, other.Units...)
	if other.Destination != p.Destination {
		p.Dirs = append(p.Dirs, other.Destination)
	}
	p.Dirs = append(p.Dirs, other.Dirs...)
	p.Collisions = append(p.Collisions, other.Collisions...)
	for _, path := range other.order {
		p.addHandle(other.handles[path])
	}
	other.handles = make(map[string]archive.Handle)
	other.order = nil
}

// Close releases every archive handle held by the plan
func (p *Plan) Close() error {
	var errs []error
	for _, path := range p.order {
		if err := p.handles[path].Close(); err != nil {
			errs = append(errs, errors.Errorf("closing %s: %w", path, err))
		}
	}
	p.handles = make(map[string]archive.Handle)
	p.order = nil
	return errors.Join(errs...)
}
