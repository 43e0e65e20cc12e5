package discuss_test

import (
	"testing"
	"time"

	"github.com/havenforum/haven/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeComment(id string, parentID *string, createdAt time.Time) *discuss.Comment {
	return &discuss.Comment{
		ID:        id,
		PostID:    "post-1",
		AuthorID:  "user-1",
		ParentID:  parentID,
		Content:   "content of " + id,
		Status:    discuss.CommentStatusActive,
		CreatedAt: createdAt,
	}
}

func ptr(s string) *string {
	return &s
}

func TestBuildThread(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	t.Run("empty input yields empty forest", func(t *testing.T) {
		t.Parallel()

		roots := discuss.BuildThread(nil)
		assert.Empty(t, roots)
	})

	t.Run("flat list of top-level comments stays flat", func(t *testing.T) {
		t.Parallel()

		flat := []*discuss.Comment{
			makeComment("a", nil, base),
			makeComment("b", nil, base.Add(time.Minute)),
			makeComment("c", nil, base.Add(2*time.Minute)),
		}

		roots := discuss.BuildThread(flat)

		require.Len(t, roots, 3)
		assert.Equal(t, "a", roots[0].ID)
		assert.Equal(t, "b", roots[1].ID)
		assert.Equal(t, "c", roots[2].ID)

		for _, root := range roots {
			assert.Empty(t, root.Replies)
		}
	})

	t.Run("replies nest under their parents in arrival order", func(t *testing.T) {
		t.Parallel()

		flat := []*discuss.Comment{
			makeComment("a", nil, base),
			makeComment("b", nil, base.Add(time.Minute)),
			makeComment("a1", ptr("a"), base.Add(2*time.Minute)),
			makeComment("a2", ptr("a"), base.Add(3*time.Minute)),
			makeComment("a1x", ptr("a1"), base.Add(4*time.Minute)),
		}

		roots := discuss.BuildThread(flat)

		require.Len(t, roots, 2)
		assert.Equal(t, "a", roots[0].ID)
		assert.Equal(t, "b", roots[1].ID)

		require.Len(t, roots[0].Replies, 2)
		assert.Equal(t, "a1", roots[0].Replies[0].ID)
		assert.Equal(t, "a2", roots[0].Replies[1].ID)

		require.Len(t, roots[0].Replies[0].Replies, 1)
		assert.Equal(t, "a1x", roots[0].Replies[0].Replies[0].ID)
	})

	t.Run("orphaned reply becomes a root instead of being dropped", func(t *testing.T) {
		t.Parallel()

		flat := []*discuss.Comment{
			makeComment("a", nil, base),
			makeComment("z1", ptr("z"), base.Add(time.Minute)),
		}

		roots := discuss.BuildThread(flat)

		require.Len(t, roots, 2)
		assert.Equal(t, "a", roots[0].ID)
		assert.Equal(t, "z1", roots[1].ID)
	})

	t.Run("assembly is idempotent", func(t *testing.T) {
		t.Parallel()

		flat := []*discuss.Comment{
			makeComment("a", nil, base),
			makeComment("a1", ptr("a"), base.Add(time.Minute)),
			makeComment("b", nil, base.Add(2*time.Minute)),
			makeComment("orphan", ptr("gone"), base.Add(3*time.Minute)),
		}

		first := discuss.BuildThread(flat)
		second := discuss.BuildThread(flat)

		assert.Equal(t, treeShape(first), treeShape(second))
	})
}

// treeShape flattens a forest into id/children-count pairs for comparison.
func treeShape(nodes []*discuss.CommentNode) []string {
	shape := make([]string, 0, len(nodes))

	for _, node := range nodes {
		shape = append(shape, node.ID)
		for _, child := range treeShape(node.Replies) {
			shape = append(shape, node.ID+">"+child)
		}
	}

	return shape
}
