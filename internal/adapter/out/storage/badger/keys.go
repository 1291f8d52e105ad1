package badger

import (
	"encoding/hex"
	"fmt"
)

const (
	postPrefix      = "post/"
	commentPrefix   = "comment/"
	commentIDPrefix = "commentid/"
	idemPrefix      = "idem/"

	postSeqKey    = "seq/post"
	commentSeqKey = "seq/comment"

	// sequence numbers leased per disk write
	seqBandwidth = 64
)

func postKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", postPrefix, seq))
}

// postIDs are hex encoded so one post's prefix never matches another's.
func commentsOfPost(postID string) []byte {
	return []byte(commentPrefix + hex.EncodeToString([]byte(postID)) + "/")
}

func commentKey(postID string, seq uint64) []byte {
	return append(commentsOfPost(postID), fmt.Sprintf("%020d", seq)...)
}

func commentIDKey(id string) []byte {
	return []byte(commentIDPrefix + id)
}

func idemKey(key string) []byte {
	return []byte(idemPrefix + key)
}
