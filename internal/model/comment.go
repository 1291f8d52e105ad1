package model

import "time"

// Comment is a stored reply to a post or to another comment of the same post.
// Records are immutable once the store has returned them.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	ParentID  *string   `json:"parentId,omitempty"`
	Text      string    `json:"text,omitempty"`
	Image     string    `json:"image,omitempty"`
	GIF       string    `json:"gif,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsTopLevel reports whether the comment was submitted without a parent.
func (c Comment) IsTopLevel() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// CommentNode is a comment with its resolved replies. Nodes only exist in a
// forest returned by the tree builder and are never persisted.
type CommentNode struct {
	Comment
	Children []*CommentNode `json:"children"`
}
