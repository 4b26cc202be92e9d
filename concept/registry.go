package concept

import "github.com/google/uuid"

// Library is a registrable bundle of concepts exposing (name, id, version,
// parent-library-id), per the external concept-library ABI (spec §6).
// Libraries form a forest by declared parent URI, mirroring the original's
// module(i_concept_library& aParent) constructor.
type Library struct {
	URI        string
	ID         uuid.UUID
	Name       string
	Version    string
	ParentURI  string // empty for a root library
	Concepts   map[string]Concept
}

// NewLibrary creates an empty library ready to have concepts registered
// into its Concepts map. ID is freshly generated, giving each library a
// stable per-process identity (grounded on the original's per-library
// neolib::uuid library_id()).
func NewLibrary(uri, name, version, parentURI string) *Library {
	return &Library{
		URI:       uri,
		ID:        uuid.New(),
		Name:      name,
		Version:   version,
		ParentURI: parentURI,
		Concepts:  make(map[string]Concept),
	}
}

// Registry is the union of loaded concept libraries. Lookup is by exact
// dotted name; there are no wildcards. If two libraries export the same
// name, the first registered wins — registration order is observable.
type Registry struct {
	libraries []*Library
	byURI     map[string]*Library
	byName    map[string]Concept
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byURI: make(map[string]*Library), byName: make(map[string]Concept)}
}

// Register adds lib to the registry. Concepts already present under the
// same dotted name (from an earlier-registered library) are not replaced.
func (r *Registry) Register(lib *Library) {
	r.libraries = append(r.libraries, lib)
	r.byURI[lib.URI] = lib
	for name, c := range lib.Concepts {
		if _, exists := r.byName[name]; !exists {
			r.byName[name] = c
		}
	}
}

// Libraries returns the libraries in registration order.
func (r *Registry) Libraries() []*Library {
	return r.libraries
}

// HasLibrary reports whether a library with the given URI was registered,
// used to validate a schema's top-level "libraries" assertion (spec §4.2).
func (r *Registry) HasLibrary(uri string) bool {
	_, ok := r.byURI[uri]
	return ok
}

// Find looks up a concept by its exact dotted name.
func (r *Registry) Find(name string) (Concept, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// IsAncestorOf reports whether the concept named a transitively contains
// the concept named b. Returns false if either name is unregistered.
func (r *Registry) IsAncestorOf(a, b string) bool {
	ca, ok := r.Find(a)
	if !ok {
		return false
	}
	cb, ok := r.Find(b)
	if !ok {
		return false
	}
	return IsAncestorOf(ca, cb)
}

// Unimplemented is a placeholder concept: a legal classification marker
// that is registered under a name but never consumes bytes. Libraries use
// it for concepts whose semantics are deferred (e.g. math.universal.number
// in the original's math.universal.cpp, a pure grouping concept with no
// consumption of its own).
type Unimplemented struct {
	base
}

// NewUnimplemented constructs an Unimplemented placeholder concept.
func NewUnimplemented(name string, parent Concept, emitAs EmitAs) *Unimplemented {
	return &Unimplemented{base: newBase(name, parent, emitAs)}
}

func (*Unimplemented) ConsumeToken(Pass, []byte, []byte) Result {
	return Result{Consumed: false}
}

func (*Unimplemented) ConsumeAtom(Pass, interface{}, []byte, []byte) Result {
	return Result{Consumed: false}
}
