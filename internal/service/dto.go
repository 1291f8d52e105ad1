package service

import (
	"errors"
	"fmt"
	"strings"

	"minifeed/internal/model"

	"github.com/go-playground/validator/v10"
)

const (
	MsgPostIDRequired  = "postId required"
	MsgContentRequired = "at least one of text/image/gif required"
	MsgTextRequired    = "text required"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationMessages maps "<Struct>.<Field>.<tag>" to the reason reported to clients.
var validationMessages = map[string]string{
	"CreateCommentRequest.PostID.required":           MsgPostIDRequired,
	"CreateCommentRequest.Text.required_without_all": MsgContentRequired,
	"CreateCommentRequest.IdempotencyKey.max":        "idempotency key too long",
	"CreatePostRequest.Text.required":                MsgTextRequired,
}

type CreatePostRequest struct {
	Text     string `validate:"required"`
	FileURL  string
	FileName string
}

type CreateCommentRequest struct {
	PostID         string `validate:"required"`
	ParentID       *string
	Text           string `validate:"required_without_all=Image GIF"`
	Image          string
	GIF            string
	IdempotencyKey string `validate:"omitempty,max=128"`
}

func (r CreateCommentRequest) normalize() CreateCommentRequest {
	r.PostID = strings.TrimSpace(r.PostID)
	r.Text = strings.TrimSpace(r.Text)
	r.Image = strings.TrimSpace(r.Image)
	r.GIF = strings.TrimSpace(r.GIF)
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
	if r.ParentID != nil {
		pid := strings.TrimSpace(*r.ParentID)
		if pid == "" {
			r.ParentID = nil
		} else {
			r.ParentID = &pid
		}
	}
	return r
}

func (r CreateCommentRequest) toComment() model.Comment {
	return model.Comment{
		PostID:   r.PostID,
		ParentID: r.ParentID,
		Text:     r.Text,
		Image:    r.Image,
		GIF:      r.GIF,
	}
}

// validationError reports the first failed rule as a *ValidationError.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	fe := fieldErrs[0]
	msg, ok := validationMessages[fe.StructNamespace()+"."+fe.Tag()]
	if !ok {
		msg = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
	return &ValidationError{Reason: msg}
}
