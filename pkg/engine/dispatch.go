package engine

import (
	"context"
	"strings"

	"github.com/ogulcanaydogan/SafetyRing/pkg/location"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
)

// Outcome classifies a dispatch.
type Outcome string

const (
	// OutcomeSent means every active recipient accepted the message.
	OutcomeSent Outcome = "sent"
	// OutcomePartial means some but not all recipients accepted it.
	OutcomePartial Outcome = "partial"
	// OutcomeQueued means nothing was sent and the message was queued.
	OutcomeQueued Outcome = "queued"
	// OutcomeFailed means a replayed alert could not be sent.
	OutcomeFailed Outcome = "failed"
)

const (
	titleSent      = "Emergency alert sent"
	titlePartial   = "Emergency alert partially sent"
	titleOffline   = "Alert stored offline"
	titleDrained   = "Pending alert sent"
	titleDrainPart = "Pending alert partially sent"
	titleDrainFail = "Pending alert not sent, action required"
)

// HandleOnline replays a single pending alert. Call it once per offline to
// online transition.
func (e *Engine) HandleOnline(ctx context.Context) bool {
	return e.DrainOne(ctx)
}

// DrainOne pops the oldest pending alert and dispatches it. It reports
// whether an entry was taken off the queue. An entry that cannot be sent
// is logged for the user and not queued again.
func (e *Engine) DrainOne(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.online() {
		return false
	}
	pending, ok, err := e.deps.Queue.PopFront(ctx)
	if err != nil {
		e.logger.Error("pop pending alert", "error", err)
		return false
	}
	if !ok {
		return false
	}
	e.deps.Observer.PendingDepth(e.deps.Queue.Len())

	e.logger.Info("replaying pending alert", "queued_at", pending.CreatedAt)
	e.dispatch(ctx, pending.Body, "", false)
	return true
}

// fire renders the selected message against the current location and
// dispatches it. With location sharing off the message carries the
// unknown-location markers. Callers hold mu.
func (e *Engine) fire(ctx context.Context, templateID string) {
	var provider location.Provider
	if e.deps.Settings.Get().EnableLocationSharing {
		provider = e.deps.Location
	}
	loc := location.Snapshot(provider)
	body := e.render(templateID, loc)
	e.dispatch(ctx, body, location.Format(loc), true)
}

func (e *Engine) render(templateID string, loc model.Location) string {
	var body string
	if templateID != "" {
		if t, ok := e.deps.Templates.Get(templateID); ok {
			body = e.deps.Templates.Render(t, loc)
		} else {
			e.logger.Warn("selected template no longer exists, using custom message", "template", templateID)
		}
	}
	if strings.TrimSpace(body) == "" {
		body = e.deps.Templates.RenderCustom(loc)
	}
	return body
}

// dispatch fans body out to every active recipient and records exactly
// one log entry. When nothing can be sent a fresh alert is queued, a
// replayed one is reported as failed.
func (e *Engine) dispatch(ctx context.Context, body, locText string, queueOnFailure bool) Outcome {
	active := e.deps.Recipients.Active()

	reason := ""
	switch {
	case !e.online():
		reason = "offline"
	case !e.deps.Channels.Usable(model.ChannelPrimary):
		reason = "primary channel unavailable"
	case len(active) == 0:
		reason = "no active recipients"
	}
	if reason != "" {
		return e.undelivered(ctx, body, locText, reason, queueOnFailure)
	}

	// The CLI may have changed consent or usage since the last send.
	if err := e.deps.Risk.Reload(ctx); err != nil {
		e.logger.Warn("reload risk state", "error", err)
	}

	delivered := 0
	for _, r := range active {
		if e.sendTo(ctx, r, body) {
			delivered++
		}
	}

	switch {
	case delivered == 0:
		return e.undelivered(ctx, body, locText, "all sends failed", queueOnFailure)
	case delivered < len(active):
		title := titlePartial
		if !queueOnFailure {
			title = titleDrainPart
		}
		e.appendLog(ctx, logEntry(title, body, locText, false))
		e.logger.Warn("alert partially sent", "delivered", delivered, "recipients", len(active))
		e.deps.Observer.AlertDispatched(OutcomePartial)
		return OutcomePartial
	default:
		title := titleSent
		if !queueOnFailure {
			title = titleDrained
		}
		e.appendLog(ctx, logEntry(title, body, locText, true))
		e.logger.Info("alert sent", "recipients", delivered)
		e.deps.Observer.AlertDispatched(OutcomeSent)
		return OutcomeSent
	}
}

func (e *Engine) undelivered(ctx context.Context, body, locText, reason string, queue bool) Outcome {
	if !queue {
		e.appendLog(ctx, logEntry(titleDrainFail, body, locText, false))
		e.logger.Error("pending alert could not be sent", "reason", reason)
		e.deps.Observer.AlertDispatched(OutcomeFailed)
		return OutcomeFailed
	}

	if err := e.deps.Queue.Enqueue(ctx, body); err != nil {
		e.logger.Error("queue alert", "reason", reason, "error", err)
	}
	e.deps.Observer.PendingDepth(e.deps.Queue.Len())
	e.appendLog(ctx, logEntry(titleOffline, body, locText, false))
	e.logger.Warn("alert stored for later delivery", "reason", reason)
	e.deps.Observer.AlertDispatched(OutcomeQueued)
	return OutcomeQueued
}

// sendTo delivers body to one recipient on its selected channel. A failed
// risky send falls back to the primary channel.
func (e *Engine) sendTo(ctx context.Context, r model.Recipient, body string) bool {
	ch := e.selectChannel(r)

	if ch == model.ChannelRisky {
		err := e.send(ctx, model.ChannelRisky, r.Handle, body)
		if err == nil {
			if _, err := e.deps.Risk.IncrementUsage(ctx); err != nil {
				e.logger.Error("record risky usage", "error", err)
			}
			return true
		}
		e.logger.Warn("risky send failed, falling back to primary", "recipient", r.ID, "error", err)
	}

	if err := e.send(ctx, model.ChannelPrimary, r.Handle, body); err != nil {
		e.logger.Warn("send failed", "recipient", r.ID, "channel", model.ChannelPrimary, "error", err)
		return false
	}
	return true
}

func (e *Engine) send(ctx context.Context, ch model.Channel, handle, body string) error {
	c, err := e.deps.Channels.Get(ch)
	if err == nil {
		err = c.Send(ctx, handle, body)
	}
	e.deps.Observer.SendAttempted(string(ch), err == nil)
	return err
}

// selectChannel picks the recipient's preferred channel and downgrades a
// risky preference unless consent, a recent warning and a usable composer
// are all present.
func (e *Engine) selectChannel(r model.Recipient) model.Channel {
	if r.PreferredChannel() != model.ChannelRisky {
		return model.ChannelPrimary
	}
	if !e.deps.Recipients.Consent() || !e.deps.Risk.Gate() || !e.deps.Channels.Usable(model.ChannelRisky) {
		return model.ChannelPrimary
	}
	return model.ChannelRisky
}

func (e *Engine) online() bool {
	return e.deps.Connectivity == nil || e.deps.Connectivity.IsOnline()
}

func (e *Engine) appendLog(ctx context.Context, entry model.LogEntry) {
	if _, err := e.deps.Log.Append(ctx, entry); err != nil {
		e.logger.Error("append alert log", "title", entry.Title, "error", err)
	}
}

func logEntry(title, message, loc string, sent bool) model.LogEntry {
	return model.LogEntry{Title: title, Message: message, Location: loc, WasSent: sent}
}
