package discuss

// CommentNode is a comment with its replies attached. Replies keep the
// arrival order of the flat input.
type CommentNode struct {
	*Comment
	Replies []*CommentNode
}

// BuildThread turns a flat page of comments into a tree of root nodes. The
// input is expected to arrive with top-level comments before replies and
// otherwise ordered by creation time ascending; that ordering is supplied by
// the storage query and not recomputed here.
//
// A comment whose parent is absent from the input (cut off by a pagination
// boundary, for example) is promoted to a root rather than dropped.
func BuildThread(flat []*Comment) []*CommentNode {
	index := make(map[string]*CommentNode, len(flat))
	nodes := make([]*CommentNode, 0, len(flat))

	for _, comment := range flat {
		node := &CommentNode{
			Comment: comment,
			Replies: make([]*CommentNode, 0),
		}

		index[comment.ID] = node
		nodes = append(nodes, node)
	}

	roots := make([]*CommentNode, 0, len(flat))

	for _, node := range nodes {
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}

		parent, ok := index[*node.ParentID]
		if !ok {
			// Orphan: parent filtered out, keep the comment visible.
			roots = append(roots, node)
			continue
		}

		parent.Replies = append(parent.Replies, node)
	}

	return roots
}
