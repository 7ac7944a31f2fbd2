package core_test

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/appraise/core"
)

func TestNoticeFrom(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.Notice
	}{
		{
			name: "nil",
		},
		{
			name: "validation fields are joined",
			err: core.NewValidationError(nil,
				core.FieldError{Field: "email", Error: "this field is required"},
				core.FieldError{Field: "password", Error: "this field is required"},
			),
			want: core.Notice{Level: core.NoticeError, Title: "this field is required; this field is required"},
		},
		{
			name: "validation without fields",
			err:  core.NewValidationError(errors.New("passwords do not match")),
			want: core.Notice{Level: core.NoticeError, Title: "passwords do not match"},
		},
		{
			name: "unauthorized",
			err:  pkgerrors.Wrap(&core.ServerError{Code: 401, Message: "jwt expired"}, "listing appraisals"),
			want: core.Notice{Level: core.NoticeError, Title: "Unauthorized. Please log in again."},
		},
		{
			name: "server message passes through",
			err:  pkgerrors.Wrap(&core.ServerError{Code: 400, Message: "invalid credentials"}, "logging in"),
			want: core.Notice{Level: core.NoticeError, Title: "invalid credentials"},
		},
		{
			name: "server error without message",
			err:  &core.ServerError{Code: 500},
			want: core.Notice{Level: core.NoticeError, Title: "An unexpected error occurred"},
		},
		{
			name: "no response",
			err:  &core.NetworkError{Err: errors.New("dial tcp: connection refused")},
			want: core.Notice{Level: core.NoticeError, Title: "No response from server. Please try again."},
		},
		{
			name: "connection lost",
			err:  pkgerrors.Wrap(core.ErrConnectionLost, "EOF"),
			want: core.Notice{Level: core.NoticeWarning, Title: "Connection lost. Retrying…"},
		},
		{
			name: "cancelled actions are silent",
			err:  context.Canceled,
		},
		{
			name: "anything else",
			err:  errors.New("boom"),
			want: core.Notice{Level: core.NoticeError, Title: "An unexpected error occurred"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.NoticeFrom(tt.err))
		})
	}
}

func TestErrors(t *testing.T) {
	assert.ErrorIs(t, &core.ServerError{Code: 401}, core.ErrUnauthorized)
	assert.NotErrorIs(t, &core.ServerError{Code: 403}, core.ErrUnauthorized)

	cause := errors.New("refused")
	assert.ErrorIs(t, &core.NetworkError{Err: cause}, cause)

	assert.Equal(t, "email: this field is required",
		core.NewValidationError(nil, core.FieldError{Field: "email", Error: "this field is required"}).Error())
	assert.Equal(t, "validation failed", core.NewValidationError(nil).Error())
	assert.Equal(t, "warning: Your session has timed out. Please log in again.", core.SessionTimeoutNotice().String())
}
