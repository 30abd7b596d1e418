package internal

import "sort"

// KnownPragmas returns the pragma names recognised out of the box
func KnownPragmas() []string {
	return []string{PragmaDotNotation, PragmaUnescaped}
}

// PragmaSet is the set of pragmas active in one render pass. Each
// active pragma may carry key/value options.
type PragmaSet struct {
	known  map[string]struct{}
	active map[string]map[string]string
}

// NewPragmaSet creates an empty set that accepts the built-in pragma
// names plus any extra names given.
func NewPragmaSet(extra ...string) *PragmaSet {
	s := &PragmaSet{
		known:  make(map[string]struct{}, len(extra)+2),
		active: make(map[string]map[string]string),
	}
	for _, name := range KnownPragmas() {
		s.known[name] = struct{}{}
	}
	for _, name := range extra {
		s.known[name] = struct{}{}
	}
	return s
}

// Activate turns a pragma on. Unknown names fail with ErrUnknownPragma
// and leave the set unchanged.
func (s *PragmaSet) Activate(name string, options map[string]string) error {
	if !s.IsKnown(name) {
		return ErrUnknownPragma
	}
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[k] = v
	}
	s.active[name] = opts
	return nil
}

// IsKnown reports whether name may be activated
func (s *PragmaSet) IsKnown(name string) bool {
	_, ok := s.known[name]
	return ok
}

// IsActive reports whether name has been activated
func (s *PragmaSet) IsActive(name string) bool {
	_, ok := s.active[name]
	return ok
}

// Options returns the options of an active pragma, or nil
func (s *PragmaSet) Options(name string) map[string]string {
	opts, ok := s.active[name]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(opts))
	for k, v := range opts {
		out[k] = v
	}
	return out
}

// Active returns the active pragma names in sorted order
func (s *PragmaSet) Active() []string {
	names := make([]string, 0, len(s.active))
	for name := range s.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fresh returns an empty set accepting the same names
func (s *PragmaSet) Fresh() *PragmaSet {
	out := &PragmaSet{
		known:  make(map[string]struct{}, len(s.known)),
		active: make(map[string]map[string]string),
	}
	for name := range s.known {
		out.known[name] = struct{}{}
	}
	return out
}
