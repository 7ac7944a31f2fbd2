package core

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeWarning NoticeLevel = "warning"

	msgUnauthorized   = "Unauthorized. Please log in again."
	msgNoResponse     = "No response from server. Please try again."
	msgConnectionLost = "Connection lost. Retrying…"
	msgUnexpected     = "An unexpected error occurred"
	msgSessionTimeout = "Your session has timed out. Please log in again."
)

type NoticeLevel string

// Notice is a transient, user-visible message (the web dashboard's toast).
type Notice struct {
	Level NoticeLevel
	Title string
}

func (n Notice) String() string {
	return string(n.Level) + ": " + n.Title
}

func SuccessNotice(title string) Notice {
	return Notice{Level: NoticeSuccess, Title: title}
}

// SessionTimeoutNotice is shown once when a session ends involuntarily.
func SessionTimeoutNotice() Notice {
	return Notice{Level: NoticeWarning, Title: msgSessionTimeout}
}

// NoticeFrom converts an error raised by a user action into the notice to display.
// Every action error goes through here; none is allowed to crash a screen.
func NoticeFrom(err error) Notice {
	if err == nil {
		return Notice{}
	}

	var vErr *ValidationError
	var sErr *ServerError
	var nErr *NetworkError

	switch {
	case errors.As(err, &vErr):
		if len(vErr.Fields) == 0 {
			return Notice{Level: NoticeError, Title: vErr.Error()}
		}
		msgs := make([]string, 0, len(vErr.Fields))
		for _, fld := range vErr.Fields {
			msgs = append(msgs, fld.Error)
		}
		return Notice{Level: NoticeError, Title: strings.Join(msgs, "; ")}
	case errors.Is(err, ErrUnauthorized):
		return Notice{Level: NoticeError, Title: msgUnauthorized}
	case errors.As(err, &sErr):
		if sErr.Message == "" {
			return Notice{Level: NoticeError, Title: msgUnexpected}
		}
		return Notice{Level: NoticeError, Title: sErr.Message}
	case errors.As(err, &nErr):
		return Notice{Level: NoticeError, Title: msgNoResponse}
	case errors.Is(err, ErrConnectionLost):
		return Notice{Level: NoticeWarning, Title: msgConnectionLost}
	case errors.Is(err, context.Canceled):
		return Notice{}
	default:
		return Notice{Level: NoticeError, Title: msgUnexpected}
	}
}
