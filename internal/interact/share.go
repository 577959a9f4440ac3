package interact

import (
	"context"
	"errors"
)

// ShareLabel keys the confirmation shown after the share fallback copies the URL.
const ShareLabel = "share"

var (
	// ErrShareAbort means the visitor dismissed the native share sheet.
	ErrShareAbort = errors.New("interact: share aborted")
	// ErrShareUnavailable means no native share is available.
	ErrShareUnavailable = errors.New("interact: share unavailable")
	// ErrClipboard means the clipboard write was rejected.
	ErrClipboard = errors.New("interact: clipboard write failed")
)

// ShareData is the payload offered to the native share sheet.
type ShareData struct {
	Title string
	Text  string
	URL   string
}

// Sharer invokes a native share sheet.
type Sharer interface {
	Share(ctx context.Context, data ShareData) error
}

// Clipboard writes text to the clipboard.
type Clipboard interface {
	Write(ctx context.Context, text string) error
}

// ShareOutcome is what a share attempt ended up doing.
type ShareOutcome string

const (
	OutcomeShared  ShareOutcome = "shared"
	OutcomeAborted ShareOutcome = "aborted"
	OutcomeCopied  ShareOutcome = "copied"
	OutcomeNothing ShareOutcome = "none"
)

// Share tries the native share sheet first. An abort stops there; any other
// failure, or a nil sharer, falls back to copying the URL. Clipboard errors
// are swallowed.
func Share(ctx context.Context, sharer Sharer, clip Clipboard, confirm *Confirmations, data ShareData) ShareOutcome {
	if sharer != nil {
		err := sharer.Share(ctx, data)
		switch {
		case err == nil:
			return OutcomeShared
		case errors.Is(err, ErrShareAbort):
			return OutcomeAborted
		}
	}
	if CopyText(ctx, clip, confirm, ShareLabel, data.URL) {
		return OutcomeCopied
	}
	return OutcomeNothing
}

// CopyText writes text to the clipboard and, on success, confirms label.
// Failures are ignored.
func CopyText(ctx context.Context, clip Clipboard, confirm *Confirmations, label, text string) bool {
	if clip == nil {
		return false
	}
	if err := clip.Write(ctx, text); err != nil {
		return false
	}
	if confirm != nil {
		confirm.Confirm(label)
	}
	return true
}
