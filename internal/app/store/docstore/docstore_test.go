package docstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratareel/internal/app/store/docstore"
	"github.com/dalemusser/stratareel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shelf struct {
	ID    string   `bson:"-"`
	Name  string   `bson:"name"`
	Items []string `bson:"items"`
	Count int      `bson:"count"`
}

// runContract exercises the behaviour every Client must share.
func runContract(t *testing.T, newClient func(t *testing.T) docstore.Client) {
	t.Run("add then get", func(t *testing.T) {
		c := newClient(t)
		ctx := context.Background()

		fields, err := docstore.Encode(shelf{ID: "ignored", Name: "a", Items: []string{"x"}, Count: 3})
		require.NoError(t, err)
		_, hasID := fields["ID"]
		assert.False(t, hasID, "bson:\"-\" fields must not be stored")

		id, err := c.Add(ctx, "shelves", fields)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := c.Get(ctx, "shelves", id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID)

		var got shelf
		require.NoError(t, docstore.Decode(doc, &got))
		assert.Equal(t, "a", got.Name)
		assert.Equal(t, []string{"x"}, got.Items)
		assert.Equal(t, 3, got.Count)
	})

	t.Run("get missing", func(t *testing.T) {
		c := newClient(t)
		_, err := c.Get(context.Background(), "shelves", "000000000000000000000000")
		assert.True(t, errors.Is(err, docstore.ErrNoDocument))

		_, err = c.Get(context.Background(), "shelves", "not-an-id")
		assert.True(t, errors.Is(err, docstore.ErrNoDocument))
	})

	t.Run("list in insertion order", func(t *testing.T) {
		c := newClient(t)
		ctx := context.Background()
		for _, n := range []string{"one", "two", "three"} {
			_, err := c.Add(ctx, "shelves", docstore.Fields{"name": n})
			require.NoError(t, err)
		}
		docs, err := c.List(ctx, "shelves")
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "one", docs[0].Fields["name"])
		assert.Equal(t, "three", docs[2].Fields["name"])
	})

	t.Run("array union is idempotent", func(t *testing.T) {
		c := newClient(t)
		ctx := context.Background()
		id, err := c.Add(ctx, "shelves", docstore.Fields{"name": "u", "items": []string{}})
		require.NoError(t, err)

		upd := docstore.Update{ArrayUnion: map[string][]any{"items": {"m1", "m2"}}}
		require.NoError(t, c.Update(ctx, "shelves", id, upd))
		require.NoError(t, c.Update(ctx, "shelves", id, upd))

		doc, err := c.Get(ctx, "shelves", id)
		require.NoError(t, err)
		var got shelf
		require.NoError(t, docstore.Decode(doc, &got))
		assert.Equal(t, []string{"m1", "m2"}, got.Items)
	})

	t.Run("array remove and set", func(t *testing.T) {
		c := newClient(t)
		ctx := context.Background()
		id, err := c.Add(ctx, "shelves", docstore.Fields{"name": "r", "items": []string{"a", "b", "a"}})
		require.NoError(t, err)

		require.NoError(t, c.Update(ctx, "shelves", id, docstore.Update{
			Set:         docstore.Fields{"name": "renamed"},
			ArrayRemove: map[string][]any{"items": {"a", "zzz"}},
		}))

		doc, err := c.Get(ctx, "shelves", id)
		require.NoError(t, err)
		var got shelf
		require.NoError(t, docstore.Decode(doc, &got))
		assert.Equal(t, "renamed", got.Name)
		assert.Equal(t, []string{"b"}, got.Items)
	})

	t.Run("update and delete missing", func(t *testing.T) {
		c := newClient(t)
		ctx := context.Background()
		missing := "000000000000000000000000"

		err := c.Update(ctx, "shelves", missing, docstore.Update{Set: docstore.Fields{"name": "x"}})
		assert.True(t, errors.Is(err, docstore.ErrNoDocument))
		err = c.Update(ctx, "shelves", missing, docstore.Update{})
		assert.True(t, errors.Is(err, docstore.ErrNoDocument))
		err = c.Delete(ctx, "shelves", missing)
		assert.True(t, errors.Is(err, docstore.ErrNoDocument))
	})

	t.Run("delete", func(t *testing.T) {
		c := newClient(t)
		ctx := context.Background()
		id, err := c.Add(ctx, "shelves", docstore.Fields{"name": "d"})
		require.NoError(t, err)

		require.NoError(t, c.Delete(ctx, "shelves", id))
		_, err = c.Get(ctx, "shelves", id)
		assert.True(t, errors.Is(err, docstore.ErrNoDocument))

		docs, err := c.List(ctx, "shelves")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("where matches array elements", func(t *testing.T) {
		c := newClient(t)
		ctx := context.Background()
		_, err := c.Add(ctx, "shelves", docstore.Fields{"name": "has", "items": []string{"m1", "m2"}})
		require.NoError(t, err)
		_, err = c.Add(ctx, "shelves", docstore.Fields{"name": "hasnt", "items": []string{"m3"}})
		require.NoError(t, err)

		q, ok := c.(docstore.Querier)
		require.True(t, ok)
		docs, err := q.Where(ctx, "shelves", "items", "m2")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "has", docs[0].Fields["name"])
	})
}

func TestMemory(t *testing.T) {
	runContract(t, func(t *testing.T) docstore.Client {
		return docstore.NewMemory()
	})
}

func TestMongo(t *testing.T) {
	runContract(t, func(t *testing.T) docstore.Client {
		return docstore.NewMongo(testutil.SetupTestDB(t))
	})
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := docstore.NewMemory()
	ctx := context.Background()
	id, err := m.Add(ctx, "shelves", docstore.Fields{"items": []string{"a"}})
	require.NoError(t, err)

	doc, err := m.Get(ctx, "shelves", id)
	require.NoError(t, err)
	doc.Fields["items"] = []string{"mutated"}

	again, err := m.Get(ctx, "shelves", id)
	require.NoError(t, err)
	var got shelf
	require.NoError(t, docstore.Decode(again, &got))
	assert.Equal(t, []string{"a"}, got.Items)
}

func TestMemory_CancelledContext(t *testing.T) {
	m := docstore.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.List(ctx, "shelves")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = m.Add(ctx, "shelves", docstore.Fields{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecode_IgnoresUnknownFields(t *testing.T) {
	doc := docstore.Document{ID: "x", Fields: docstore.Fields{"name": "n", "legacy": true, "count": int64(2)}}
	var got shelf
	require.NoError(t, docstore.Decode(doc, &got))
	assert.Equal(t, "n", got.Name)
	assert.Equal(t, 2, got.Count)
}
