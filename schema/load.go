package schema

import "github.com/glyphlang/glyph/concept"

// Schema is a loaded, fully-resolved schema tree (spec §3).
type Schema struct {
	Root     *Atom
	Meta     Meta
	Registry *concept.Registry
}

// FindConcept looks up a concept by dotted name in the schema's registry.
func (s *Schema) FindConcept(name string) (concept.Concept, bool) {
	return s.Registry.Find(name)
}

type pendingRef struct {
	leafName string
	fqName   string
	assign   func(*Atom)

	// define, when set, is used in place of an unresolved-reference error: a
	// token rule's LHS names a new symbol if it doesn't already name an
	// existing atom or concept (the original's add_lhs_atom_reference creates
	// a fresh schema_atom in exactly this fallback case), whereas an "expect"
	// or token RHS reference must resolve to something that already exists.
	define func() *Atom
}

type loader struct {
	registry     *concept.Registry
	meta         Meta
	sawMeta      bool
	byFQName     map[string]*Atom
	conceptAtoms map[concept.Concept]*Atom
	pending      []pendingRef
}

// Load walks doc — the in-memory schema-document shape (spec §6) — building
// a resolved Schema. registry supplies the concept libraries the schema's
// atoms may reference.
func Load(doc Value, registry *concept.Registry) (*Schema, error) {
	if doc.Kind != KindObject {
		return nil, newLoadError("schema document root must be an object")
	}

	ld := &loader{
		registry:     registry,
		meta:         newMeta(),
		byFQName:     make(map[string]*Atom),
		conceptAtoms: make(map[concept.Concept]*Atom),
	}

	root := NewNode("", nil)
	ld.byFQName[""] = root

	for _, kv := range doc.Object {
		switch kv.Key {
		case "meta":
			ld.sawMeta = true
			if err := ld.parseMeta(kv.Val); err != nil {
				return nil, err
			}
		case "libraries":
			if err := ld.checkLibraries(kv.Val); err != nil {
				return nil, err
			}
		// "is"/"expect"/"tokens" are recognized at the root exactly as they
		// are under any other node (only "meta"/"libraries" get special
		// root-only treatment) — the root atom is itself a schema_atom the
		// engine parses directly (spec §4.6: "parse(Emit, root, cursor)"),
		// so a document needs no wrapper node to declare root-level rules.
		case "is":
			if err := ld.parseIs(kv.Val, root); err != nil {
				return nil, err
			}
		case "expect":
			ld.parseExpect(kv.Val, root, "")
		case "tokens":
			if err := ld.parseTokens(kv.Val, root, ""); err != nil {
				return nil, err
			}
		default:
			child := NewNode(kv.Key, root)
			root.AddChild(kv.Key, child)
			ld.byFQName[kv.Key] = child
			if err := ld.parseNode(kv.Val, child, kv.Key); err != nil {
				return nil, err
			}
		}
	}

	if !ld.sawMeta {
		ld.meta.ParserRecursionLimit = HardRecursionCeiling
	}

	if err := ld.resolve(); err != nil {
		return nil, err
	}

	return &Schema{Root: root, Meta: ld.meta, Registry: registry}, nil
}

func (ld *loader) checkLibraries(v Value) error {
	names := v.Array
	if v.Kind != KindArray {
		names = []Value{v}
	}
	for _, n := range names {
		uri := n.Keyword
		if n.Kind == KindString {
			uri = n.Str
		}
		if !ld.registry.HasLibrary(uri) {
			return newLoadErrorf("concept library %q not found", uri)
		}
	}
	return nil
}

func (ld *loader) parseMeta(v Value) error {
	for _, kv := range v.Object {
		switch kv.Key {
		case "name":
			ld.meta.Name = stringOf(kv.Val)
		case "description":
			ld.meta.Description = stringOf(kv.Val)
		case "copyright":
			ld.meta.Copyright = stringOf(kv.Val)
		case "version":
			ld.meta.Version = stringOf(kv.Val)
		case "sourcecode.file.extension":
			ld.meta.SourceFileExtensions = stringsOf(kv.Val)
		case "parser_recursion_limit":
			if kv.Val.Kind == KindInt {
				ld.meta.ParserRecursionLimit = kv.Val.Int
			}
		}
	}
	return nil
}

func stringOf(v Value) string {
	if v.Kind == KindKeyword {
		return v.Keyword
	}
	return v.Str
}

func stringsOf(v Value) []string {
	if v.Kind != KindArray {
		return []string{stringOf(v)}
	}
	out := make([]string, 0, len(v.Array))
	for _, e := range v.Array {
		out = append(out, stringOf(e))
	}
	return out
}

// parseNode walks the object body of a node atom. stem is the atom's own
// fully-qualified dotted symbol, used to qualify reference names recorded
// under it.
func (ld *loader) parseNode(v Value, atom *Atom, stem string) error {
	if v.Kind != KindObject {
		return nil
	}
	for _, kv := range v.Object {
		switch kv.Key {
		case "is":
			if err := ld.parseIs(kv.Val, atom); err != nil {
				return err
			}
		case "expect":
			ld.parseExpect(kv.Val, atom, stem)
		case "tokens":
			if err := ld.parseTokens(kv.Val, atom, stem); err != nil {
				return err
			}
		default:
			child := NewNode(kv.Key, atom)
			atom.AddChild(kv.Key, child)
			childFQ := qualify(stem, kv.Key)
			ld.byFQName[childFQ] = child
			if err := ld.parseNode(kv.Val, child, childFQ); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ld *loader) parseIs(v Value, atom *Atom) error {
	names := v.Array
	if v.Kind != KindArray {
		names = []Value{v}
	}
	for _, n := range names {
		name := stringOf(n)
		c, ok := ld.registry.Find(name)
		if !ok {
			return newLoadErrorf("concept %q referenced by 'is' is not registered in any loaded library", name)
		}
		atom.IsA = append(atom.IsA, c)
	}
	return nil
}

func (ld *loader) parseExpect(v Value, atom *Atom, stem string) {
	alts := v.Array
	if v.Kind != KindArray {
		alts = []Value{v}
	}
	for _, alt := range alts {
		idx := len(atom.Expects)
		atom.Expects = append(atom.Expects, nil)
		name := stringOf(alt)
		ld.addPendingRef(name, qualify(stem, name), func(resolved *Atom) {
			atom.Expects[idx] = resolved
		})
	}
}

// parseTokens walks a "tokens" object, appending (lhs, rhs) entries to atom
// in document order (spec §4.2, §4.4.6).
func (ld *loader) parseTokens(v Value, atom *Atom, stem string) error {
	if v.Kind != KindObject {
		return newLoadError("'tokens' must be an object of match rules")
	}
	for _, kv := range v.Object {
		if kv.Key == "expect" {
			ld.parseExpect(kv.Val, atom, stem)
			continue
		}

		idx := len(atom.Tokens)
		atom.Tokens = append(atom.Tokens, TokenEntry{})
		lhsName := kv.Key
		ld.addLHSRef(lhsName, qualify(stem, lhsName), atom, func(resolved *Atom) {
			atom.Tokens[idx].LHS = resolved
		})

		switch kv.Val.Kind {
		case KindKeyword:
			if kind, ok := terminalKeyword(kv.Val.Keyword); ok {
				atom.Tokens[idx].RHS = NewTerminal(kind, nil)
			} else {
				rhsName := kv.Val.Keyword
				ld.addPendingRef(rhsName, qualify(stem, rhsName), func(resolved *Atom) {
					atom.Tokens[idx].RHS = resolved
				})
			}
		case KindString:
			atom.Tokens[idx].RHS = NewTerminal(TerminalString, []byte(kv.Val.Str))
		case KindObject:
			childStem := qualify(stem, lhsName)
			child := NewNode(lhsName, atom)
			child.IsTokensNode = true
			atom.AddChild(lhsName, child)
			ld.byFQName[childStem] = child
			atom.Tokens[idx].RHS = child
			if err := ld.parseTokens(kv.Val, child, childStem); err != nil {
				return err
			}
		default:
			return newLoadErrorf("unexpected value for token rule %q", lhsName)
		}
	}
	return nil
}

func terminalKeyword(kw string) (TerminalKind, bool) {
	switch kw {
	case "done":
		return TerminalDone, true
	case "next":
		return TerminalNext, true
	case "continue":
		return TerminalContinue, true
	case "ignore":
		return TerminalIgnore, true
	case "error":
		return TerminalError, true
	case "default":
		return TerminalDefault, true
	}
	return 0, false
}

func qualify(stem, leaf string) string {
	if stem == "" {
		return leaf
	}
	return stem + "." + leaf
}

func (ld *loader) addPendingRef(leafName, fqName string, assign func(*Atom)) {
	ld.pending = append(ld.pending, pendingRef{leafName: leafName, fqName: fqName, assign: assign})
}

// addLHSRef records a token rule's LHS reference: like addPendingRef, but
// falls back to defining a fresh node atom named leafName under parent if
// nothing already registered answers to leafName/fqName.
func (ld *loader) addLHSRef(leafName, fqName string, parent *Atom, assign func(*Atom)) {
	ld.pending = append(ld.pending, pendingRef{
		leafName: leafName,
		fqName:   fqName,
		assign:   assign,
		define:   func() *Atom { return NewNode(leafName, parent) },
	})
}

// resolve implements spec §4.2's reference-resolution pass: each recorded
// (leaf-name, fully-qualified-name) pair prefers an existing schema atom,
// falling back to a concept atom created on demand (and canonicalized).
// Any residual unresolved reference fails loading with the complete list.
func (ld *loader) resolve() error {
	var unresolved []UnresolvedReference
	for _, p := range ld.pending {
		if atom, ok := ld.byFQName[p.fqName]; ok {
			p.assign(atom)
			continue
		}
		if c, ok := ld.registry.Find(p.leafName); ok {
			p.assign(ld.canonicalConceptAtom(c))
			continue
		}
		if c, ok := ld.registry.Find(p.fqName); ok {
			p.assign(ld.canonicalConceptAtom(c))
			continue
		}
		if p.define != nil {
			p.assign(p.define())
			continue
		}
		unresolved = append(unresolved, UnresolvedReference{LeafName: p.leafName, FullyQualifiedName: p.fqName})
	}
	if len(unresolved) > 0 {
		return newUnresolvedReferencesError(unresolved)
	}
	return nil
}

func (ld *loader) canonicalConceptAtom(c concept.Concept) *Atom {
	if a, ok := ld.conceptAtoms[c]; ok {
		return a
	}
	a := NewConceptAtom(c)
	ld.conceptAtoms[c] = a
	return a
}
