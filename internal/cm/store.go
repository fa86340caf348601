package cm

import (
	"fmt"
	"reflect"
)

type entry struct {
	token   Token
	id      ObjectID
	records []any
}

// Store is the configuration manager object repository. Parsers add
// typed records; generators retrieve them as descriptors or typed
// slices, by type or by token.
type Store struct {
	entries   map[ObjectID][]*entry
	byToken   map[Token]*entry
	order     []ObjectID
	nextToken Token
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries:   make(map[ObjectID][]*entry),
		byToken:   make(map[Token]*entry),
		nextToken: 1,
	}
}

func newRecord(t reflect.Type) any {
	return reflect.New(t).Interface()
}

// Add inserts one group of records under a fresh token and returns it.
// Records may be values or pointers of the type registered for id;
// they are stored as pointers so later linkage phases can patch them
// in place. Token fixers for self referencing types run before
// insertion.
func (s *Store) Add(id ObjectID, records ...any) (Token, error) {
	t, ok := RecordType(id)
	if !ok {
		return NullToken, fmt.Errorf("cm: add %s: unknown object type: %w", id, ErrInvalidArgument)
	}
	if len(records) == 0 {
		return NullToken, fmt.Errorf("cm: add %s: empty record group: %w", id, ErrInvalidArgument)
	}

	ptrs := make([]any, len(records))
	for i, record := range records {
		v := reflect.ValueOf(record)
		if v.Kind() != reflect.Pointer {
			p := reflect.New(v.Type())
			p.Elem().Set(v)
			v = p
		}
		if v.Elem().Type() != t {
			return NullToken, fmt.Errorf("cm: add %s: record %d is %T: %w", id, i, record, ErrInvalidArgument)
		}
		ptrs[i] = v.Interface()
	}

	token := s.nextToken
	s.nextToken++

	if fixer, ok := tokenFixers[id]; ok {
		if err := fixer(token, ptrs); err != nil {
			return NullToken, fmt.Errorf("cm: add %s: %w", id, err)
		}
	}

	e := &entry{token: token, id: id, records: ptrs}
	if _, seen := s.entries[id]; !seen {
		s.order = append(s.order, id)
	}
	s.entries[id] = append(s.entries[id], e)
	s.byToken[token] = e
	return token, nil
}

// Get returns a descriptor for the object type. With NullToken it
// packs every record of the type in insertion order; with a token it
// packs only that record group.
func (s *Store) Get(id ObjectID, token Token) (Descriptor, error) {
	records, err := s.GetRecords(id, token)
	if err != nil {
		return Descriptor{}, err
	}
	return NewDescriptor(id, records)
}

// GetRecords is the typed access path. The returned values are the
// stored record pointers.
func (s *Store) GetRecords(id ObjectID, token Token) ([]any, error) {
	if _, ok := RecordType(id); !ok {
		return nil, fmt.Errorf("cm: get %s: unknown object type: %w", id, ErrInvalidArgument)
	}
	if token != NullToken {
		e, ok := s.byToken[token]
		if !ok || e.id != id {
			return nil, fmt.Errorf("cm: %s token %d: %w", id, token, ErrNotFound)
		}
		return e.records, nil
	}

	groups, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("cm: %s: %w", id, ErrNotFound)
	}
	var out []any
	for _, e := range groups {
		out = append(out, e.records...)
	}
	return out, nil
}

// Count returns the number of records of a type, zero when absent.
func (s *Store) Count(id ObjectID) int {
	n := 0
	for _, e := range s.entries[id] {
		n += len(e.records)
	}
	return n
}

// ObjectIDs returns the stored object types in first-insertion order.
func (s *Store) ObjectIDs() []ObjectID {
	out := make([]ObjectID, len(s.order))
	copy(out, s.order)
	return out
}

// Tokens returns the tokens of every record group of a type in
// insertion order.
func (s *Store) Tokens(id ObjectID) []Token {
	var out []Token
	for _, e := range s.entries[id] {
		out = append(out, e.token)
	}
	return out
}
