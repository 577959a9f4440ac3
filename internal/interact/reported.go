package interact

import "context"

// Browser-reported results posted back by the share and copy buttons.
const (
	ReportShared      = "shared"
	ReportAborted     = "aborted"
	ReportFailed      = "failed"
	ReportUnavailable = "unavailable"
	ReportCopied      = "copied"
	ReportCopyFailed  = "copy-failed"
)

// ReportedSharer replays the result of a share attempt made in the browser.
type ReportedSharer struct {
	Result string
}

// Share implements Sharer.
func (s ReportedSharer) Share(context.Context, ShareData) error {
	switch s.Result {
	case ReportShared:
		return nil
	case ReportAborted:
		return ErrShareAbort
	default:
		return ErrShareUnavailable
	}
}

// ReportedClipboard replays the result of a clipboard write made in the browser.
type ReportedClipboard struct {
	Result string
}

// Write implements Clipboard.
func (c ReportedClipboard) Write(context.Context, string) error {
	if c.Result == ReportCopied {
		return nil
	}
	return ErrClipboard
}

// ReplayShare applies a browser-reported share outcome. clipboard is the
// result of the fallback copy, if the browser attempted one.
func ReplayShare(ctx context.Context, confirm *Confirmations, share, clipboard string, data ShareData) ShareOutcome {
	var sharer Sharer
	if share != "" && share != ReportUnavailable {
		sharer = ReportedSharer{Result: share}
	}
	return Share(ctx, sharer, ReportedClipboard{Result: clipboard}, confirm, data)
}

// ReplayCopy applies a browser-reported copy outcome for label.
func ReplayCopy(ctx context.Context, confirm *Confirmations, label, clipboard, text string) bool {
	return CopyText(ctx, ReportedClipboard{Result: clipboard}, confirm, label, text)
}
