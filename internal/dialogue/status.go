package dialogue

import (
	"log/slog"
	"net/url"
	"strings"

	"brief-agent/internal/domain"
)

// handleStatus answers "where is my order" from the live asset index. It
// never touches stage, draft or brief.
func (e *Engine) handleStatus(t *turn) {
	s := t.session
	if s.LastOrderID == "" {
		t.reply(msgNothingInProgress, nil)
		return
	}

	assets, err := e.assets.Search(t.ctx, s.BrandID, s.LastOrderID)
	if err != nil {
		slog.Warn("asset search failed", "session_id", s.ID, "order_id", s.LastOrderID, "err", err)
		t.reply(msgStatusFailed, []any{diagnostic(err)}, qrStatus)
		return
	}

	var links []string
	for _, a := range assets {
		if a.PreviewURL != "" {
			links = append(links, a.PreviewURL)
		}
		if a.DownloadURL != "" && a.DownloadURL != a.PreviewURL {
			links = append(links, a.DownloadURL)
		}
	}
	if len(links) > 0 {
		t.reply(msgStatusDone, []any{strings.Join(links, "\n")})
		return
	}
	t.reply(msgStatusQueued, []any{e.orderLink(s.Host, s.LastOrderID)}, qrStatus)
}

func (e *Engine) orderLink(host domain.HostVariant, orderID string) string {
	return e.orderLinks[host] + "/orders/" + url.PathEscape(orderID)
}
