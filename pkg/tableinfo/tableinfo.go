package tableinfo

const (
	PostsTableName = "posts"

	PostSeqColumn       = "seq"
	PostIDColumn        = "id"
	PostUsernameColumn  = "username"
	PostTextColumn      = "text"
	PostFileURLColumn   = "file_url"
	PostFileNameColumn  = "file_name"
	PostCreatedAtColumn = "created_at"
)

const (
	CommentsTableName = "comments"

	CommentSeqColumn            = "seq"
	CommentIDColumn             = "id"
	CommentPostIDColumn         = "post_id"
	CommentParentIDColumn       = "parent_id"
	CommentTextColumn           = "text"
	CommentImageColumn          = "image"
	CommentGIFColumn            = "gif"
	CommentIdempotencyKeyColumn = "idempotency_key"
	CommentCreatedAtColumn      = "created_at"
)
