package encoder

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

type Axis string

const (
	AxisDomain Axis = "Domain"
	AxisTLD    Axis = "TLD"
)

var Axes = []Axis{AxisDomain, AxisTLD}

// Store persists vocabularies. LoadTerms returns the terms of an axis
// ordered by id.
type Store interface {
	LoadTerms(axis string) ([]string, error)
	AppendTerm(axis, term string, id int) error
}

type vocabulary struct {
	ids   map[string]int
	terms []string
}

// Encoder maps categorical strings to stable integer ids, one vocabulary
// per axis. Ids are handed out in first-seen order starting at 0 and never
// change for the lifetime of the Encoder.
type Encoder struct {
	mu     sync.Mutex
	vocabs map[Axis]*vocabulary
	store  Store
}

// New creates an Encoder. With a non-nil store the existing vocabularies are
// loaded first and every new term is written through.
func New(store Store) (*Encoder, error) {
	e := &Encoder{
		vocabs: make(map[Axis]*vocabulary),
		store:  store,
	}
	for _, axis := range Axes {
		e.vocabs[axis] = &vocabulary{ids: make(map[string]int)}
	}

	if store == nil {
		return e, nil
	}

	for _, axis := range Axes {
		terms, err := store.LoadTerms(string(axis))
		if err != nil {
			return nil, fmt.Errorf("load %s vocabulary: %w", axis, err)
		}
		v := e.vocabs[axis]
		for _, term := range terms {
			if _, dup := v.ids[term]; dup {
				continue
			}
			v.ids[term] = len(v.terms)
			v.terms = append(v.terms, term)
		}
		log.Debug().Str("axis", string(axis)).Int("terms", len(v.terms)).Msg("vocabulary loaded")
	}
	return e, nil
}

// Encode returns the id of value on axis, assigning the next id when the
// value has not been seen before.
func (e *Encoder) Encode(axis Axis, value string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := e.vocab(axis)
	if id, ok := v.ids[value]; ok {
		return id
	}

	id := len(v.terms)
	v.ids[value] = id
	v.terms = append(v.terms, value)

	if e.store != nil {
		if err := e.store.AppendTerm(string(axis), value, id); err != nil {
			log.Warn().Err(err).Str("axis", string(axis)).Str("term", value).Msg("vocabulary write failed, id kept in memory")
		}
	}
	return id
}

// Lookup returns the id of value without inserting it.
func (e *Encoder) Lookup(axis Axis, value string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.vocab(axis).ids[value]
	return id, ok
}

func (e *Encoder) Size(axis Axis) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.vocab(axis).terms)
}

// Terms returns a copy of the vocabulary of axis ordered by id.
func (e *Encoder) Terms(axis Axis) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.vocab(axis).terms...)
}

// vocab must be called with mu held. Unknown axes get their own vocabulary.
func (e *Encoder) vocab(axis Axis) *vocabulary {
	v, ok := e.vocabs[axis]
	if !ok {
		v = &vocabulary{ids: make(map[string]int)}
		e.vocabs[axis] = v
	}
	return v
}
