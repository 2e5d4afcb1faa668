package recordmodel

// ResolveRefFunc looks up a reference target by oid out-of-band (e.g. in
// an already-populated destination graph during a sync-mode decode). A
// false second return means "no opinion, fall back to known_objects";
// returning (nil, true) explicitly leaves the reference unresolved.
type ResolveRefFunc func(oid any) (Trackable, bool)

// DecodeContext tracks cross-reference bookkeeping across a single
// decode pass: every record that carries an oid field registers itself
// here as it's decoded (known_objects), and every reference field
// (scalar, array element, or map/id-map entry) that can't be resolved
// immediately registers a deferred apply instead of failing outright.
// Resolve runs once the whole payload has been decoded, after every
// potential target has had a chance to register.
type DecodeContext struct {
	Mode       DecodeMode
	MarkChange bool

	known    map[any]Trackable
	deferred []deferredRef
	unsolved []any
}

// DecodeMode selects the decoder's policy for nested records and
// map/id-map entries: Override replaces target state wholesale, Sync
// patches it in place (and supports map/id-map deletion via null
// tombstones).
type DecodeMode uint8

const (
	ModeOverride DecodeMode = iota
	ModeSync
)

// deferredRef is one reference field waiting for its target to show up
// in known, recorded at one of the sites the decoders distinguish: a
// plain scalar field, an array element, or a map/id-map entry.
type deferredRef struct {
	oid   any
	apply func(resolved Trackable)
}

// NewDecodeContext returns an empty DecodeContext ready for one decode
// pass.
func NewDecodeContext(mode DecodeMode, markChange bool) *DecodeContext {
	return &DecodeContext{Mode: mode, MarkChange: markChange, known: make(map[any]Trackable)}
}

// AddKnownObject registers t under oid so later reference fields
// pointing at oid can resolve to it. Called for every decoded record
// that carries an oid field, regardless of whether anything ends up
// referencing it.
func (c *DecodeContext) AddKnownObject(oid any, t Trackable) {
	if oid == nil {
		return
	}
	c.known[oid] = t
}

// AddUnsolvedRef defers apply until Resolve runs.
func (c *DecodeContext) AddUnsolvedRef(oid any, apply func(resolved Trackable)) {
	if oid == nil {
		return
	}
	c.deferred = append(c.deferred, deferredRef{oid: oid, apply: apply})
}

// Resolve runs every deferred reference: resolveRef (if non-nil) gets
// first refusal, falling back to the known_objects table populated
// during this decode. Oids that still don't resolve are collected into
// Unsolved rather than raised as an error.
func (c *DecodeContext) Resolve(resolveRef ResolveRefFunc) {
	for _, d := range c.deferred {
		if resolveRef != nil {
			if t, ok := resolveRef(d.oid); ok {
				if t != nil {
					d.apply(t)
				} else {
					c.unsolved = append(c.unsolved, d.oid)
				}
				continue
			}
		}
		if t, ok := c.known[d.oid]; ok {
			d.apply(t)
			continue
		}
		c.unsolved = append(c.unsolved, d.oid)
	}
	c.deferred = nil
}

// Unsolved returns the oids that never resolved to a known object.
func (c *DecodeContext) Unsolved() []any { return c.unsolved }
