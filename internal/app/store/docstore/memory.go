package docstore

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Client. Documents are copied on the way in and
// out so callers never share state with the store.
type Memory struct {
	mu    sync.RWMutex
	docs  map[string]map[string]Fields
	order map[string][]string
	newID func() string
}

// NewMemory returns an empty in-memory store that assigns UUID ids.
func NewMemory() *Memory {
	return &Memory{
		docs:  make(map[string]map[string]Fields),
		order: make(map[string][]string),
		newID: func() string { return uuid.NewString() },
	}
}

func (m *Memory) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.order[collection]
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, Document{ID: id, Fields: copyFields(m.docs[collection][id])})
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.docs[collection][id]
	if !ok {
		return Document{}, ErrNoDocument
	}
	return Document{ID: id, Fields: copyFields(f)}, nil
}

func (m *Memory) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.newID()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]Fields)
	}
	m.docs[collection][id] = copyFields(fields)
	m.order[collection] = append(m.order[collection], id)
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, upd Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.docs[collection][id]
	if !ok {
		return ErrNoDocument
	}
	for k, v := range upd.Set {
		f[k] = copyValue(v)
	}
	for k, vals := range upd.ArrayUnion {
		arr := toSlice(f[k])
		for _, v := range vals {
			if indexOf(arr, v) < 0 {
				arr = append(arr, v)
			}
		}
		f[k] = arr
	}
	for k, vals := range upd.ArrayRemove {
		arr := toSlice(f[k])
		kept := arr[:0]
		for _, el := range arr {
			if indexOf(vals, el) < 0 {
				kept = append(kept, el)
			}
		}
		f[k] = kept
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[collection][id]; !ok {
		return ErrNoDocument
	}
	delete(m.docs[collection], id)
	ids := m.order[collection]
	for i, v := range ids {
		if v == id {
			m.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Where implements Querier with Mongo's equality semantics: a scalar field
// matches by equality, an array field matches if any element is equal.
func (m *Memory) Where(ctx context.Context, collection, field string, value any) ([]Document, error) {
	all, err := m.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	var out []Document
	for _, d := range all {
		v, ok := d.Fields[field]
		if !ok {
			continue
		}
		if arr, isArr := asSlice(v); isArr {
			if indexOf(arr, value) >= 0 {
				out = append(out, d)
			}
			continue
		}
		if reflect.DeepEqual(v, value) {
			out = append(out, d)
		}
	}
	return out, nil
}

/* ------------------------------- helpers -------------------------------- */

func indexOf(arr []any, v any) int {
	for i, el := range arr {
		if reflect.DeepEqual(el, v) {
			return i
		}
	}
	return -1
}

// asSlice reports whether v is an array value and returns it as []any.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case primitive.A:
		return []any(t), true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// toSlice returns a fresh []any for an array field; missing or null fields
// become an empty array.
func toSlice(v any) []any {
	arr, _ := asSlice(v)
	out := make([]any, len(arr))
	copy(out, arr)
	return out
}

func copyFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	if arr, ok := asSlice(v); ok {
		out := make([]any, len(arr))
		copy(out, arr)
		return out
	}
	switch t := v.(type) {
	case Fields:
		return copyFields(t)
	case map[string]any:
		return map[string]any(copyFields(Fields(t)))
	case primitive.M:
		return primitive.M(copyFields(Fields(t)))
	}
	return v
}

var (
	_ Client  = (*Memory)(nil)
	_ Querier = (*Memory)(nil)
)
