package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestBuildCommentTree(t *testing.T) {
	t.Run("nests replies under their parents", func(t *testing.T) {
		comments := []*Comment{
			{ID: 1, Text: "root"},
			{ID: 2, ParentID: intPtr(1), Text: "reply"},
			{ID: 3, ParentID: intPtr(2), Text: "reply to reply"},
			{ID: 4, Text: "second root"},
		}

		tree := BuildCommentTree(comments)

		require.Len(t, tree, 2)
		assert.Equal(t, 1, tree[0].ID)
		require.Len(t, tree[0].Children, 1)
		assert.Equal(t, 2, tree[0].Children[0].ID)
		require.Len(t, tree[0].Children[0].Children, 1)
		assert.Equal(t, 3, tree[0].Children[0].Children[0].ID)
		assert.Empty(t, tree[1].Children)
	})

	t.Run("treats orphaned replies as roots", func(t *testing.T) {
		comments := []*Comment{
			{ID: 5, ParentID: intPtr(99), Text: "parent was deleted"},
		}

		tree := BuildCommentTree(comments)

		require.Len(t, tree, 1)
		assert.Equal(t, 5, tree[0].ID)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, BuildCommentTree(nil))
	})
}
