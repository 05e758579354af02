package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"brief-agent/internal/domain"
)

const maxDiagnosticLength = 120

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// launch enqueues the finalized brief. On success the brief and draft are
// cleared so a repeated "launch" cannot enqueue it again; on failure both are
// kept and the user can retry.
func (e *Engine) launch(t *turn) {
	s := t.session
	brief := *s.Brief

	order, err := e.dispatcher.Enqueue(t.ctx, brief)
	if err != nil {
		slog.Error("enqueue brief failed", "session_id", s.ID, "brand_id", s.BrandID, "err", err)
		s.Stage = domain.StageCollecting
		t.reply(msgDispatchFailed, []any{diagnostic(err)}, qrLaunch, qrModify)
		return
	}

	slog.Info("brief enqueued", "session_id", s.ID, "order_id", order.OrderID, "job_id", order.JobID)
	s.LastOrderID = order.OrderID
	s.LastJobID = order.JobID
	s.LastQueueSize = order.QueueSize
	s.Draft = domain.Draft{}
	s.Brief = nil
	s.Questions = 0
	s.PendingSlot = domain.SlotNone
	s.LastIntent = domain.IntentNone
	s.Stage = domain.StageIdle

	text := t.tones.Render(msgLaunched, s.Tone)
	text = fmt.Sprintf(text, order.OrderID)
	if order.QueueSize != nil && *order.QueueSize > 0 {
		text += fmt.Sprintf(t.tones.Render(msgQueueNote, s.Tone), *order.QueueSize)
	}
	t.sink(domain.Reply{Text: text, QuickReplies: []domain.QuickReply{qrStatus}})
}

// diagnostic turns an upstream error into a short user-facing hint.
func diagnostic(err error) string {
	var sc httpStatusCoder
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "délai dépassé"
	case errors.Is(err, context.Canceled):
		return "requête annulée"
	case errors.As(err, &sc):
		return fmt.Sprintf("erreur %d", sc.HTTPStatusCode())
	}
	msg := err.Error()
	if utf8.RuneCountInString(msg) > maxDiagnosticLength {
		r := []rune(msg)
		msg = string(r[:maxDiagnosticLength-1]) + "…"
	}
	return msg
}
