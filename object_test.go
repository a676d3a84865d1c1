package pagegraph_test

import (
	"sync"
	"testing"

	"github.com/fwojciec/pagegraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_Row(t *testing.T) {
	t.Parallel()

	t.Run("flattens and restores an object", func(t *testing.T) {
		t.Parallel()

		obj := &pagegraph.Object{
			ID:            "obj_7",
			Type:          pagegraph.ObjectMedia,
			Tag:           "img",
			Attributes:    map[string]string{"src": "/a.png", "alt": "A"},
			Text:          "",
			Position:      pagegraph.Position{Depth: 3, Index: 1, Parent: "obj_4"},
			Relationships: []string{"obj_4"},
			SemanticRole:  pagegraph.RoleImage,
			SchemaOrgType: "ImageObject",
			Performance:   pagegraph.ObjectPerformance{Size: 42},
		}

		row, err := obj.Row()
		require.NoError(t, err)
		assert.Equal(t, "obj_4", row.ParentID)
		assert.JSONEq(t, `{"src":"/a.png","alt":"A"}`, row.Attributes)

		got, err := pagegraph.ObjectFromRow(row)
		require.NoError(t, err)

		want := *obj
		want.Relationships = []string{}
		assert.Equal(t, &want, got)
	})

	t.Run("stores nil attributes as an empty object", func(t *testing.T) {
		t.Parallel()

		row, err := (&pagegraph.Object{ID: "obj_1", Tag: "div"}).Row()

		require.NoError(t, err)
		assert.Equal(t, "{}", row.Attributes)
	})

	t.Run("rejects malformed attribute JSON", func(t *testing.T) {
		t.Parallel()

		_, err := pagegraph.ObjectFromRow(pagegraph.ObjectRow{ID: "obj_1", Attributes: "{"})

		assert.Error(t, err)
	})
}

func TestIDCounter(t *testing.T) {
	t.Parallel()

	t.Run("counts from one", func(t *testing.T) {
		t.Parallel()

		c := pagegraph.NewIDCounter("obj_")

		assert.Equal(t, "obj_1", c.Next())
		assert.Equal(t, "obj_2", c.Next())
	})

	t.Run("never repeats under concurrent use", func(t *testing.T) {
		t.Parallel()

		c := pagegraph.NewIDCounter("obj_")
		const workers, perWorker = 8, 250

		var mu sync.Mutex
		seen := make(map[string]bool)
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perWorker {
					id := c.Next()
					mu.Lock()
					seen[id] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, seen, workers*perWorker)
	})
}
