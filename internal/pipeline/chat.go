package pipeline

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/doc-assistant/constants"
	"github.com/joseph-ayodele/doc-assistant/internal/common"
	"github.com/joseph-ayodele/doc-assistant/internal/interpret"
	"github.com/joseph-ayodele/doc-assistant/internal/prompt"
	"github.com/joseph-ayodele/doc-assistant/internal/session"
)

// Summarize asks the chat model for a summary of the whole document.
func (d *Dispatcher) Summarize(ctx context.Context, id, model string) (session.Reply, error) {
	return d.complete(ctx, id, model, prompt.Summarize, "")
}

// Answer asks question about the document.
func (d *Dispatcher) Answer(ctx context.Context, id, model, question string) (session.Reply, error) {
	if strings.TrimSpace(question) == "" {
		return session.Reply{}, common.InvalidInputError("question is required")
	}
	return d.complete(ctx, id, model, prompt.Answer, question)
}

// Visualize requests a table or chart. A reply that parses as chart data is
// kept as a ChartSpec, anything else as raw text.
func (d *Dispatcher) Visualize(ctx context.Context, id, model, instruction string) (session.Reply, error) {
	if strings.TrimSpace(instruction) == "" {
		return session.Reply{}, common.InvalidInputError("instruction is required")
	}
	return d.complete(ctx, id, model, prompt.Visualize, instruction)
}

func (d *Dispatcher) complete(ctx context.Context, id, model string, kind prompt.Kind, input string) (session.Reply, error) {
	sess, err := d.loaded(id)
	if err != nil {
		return session.Reply{}, err
	}
	model = d.Model(model)
	ctx = common.WithSessionID(ctx, id)

	resp, err := d.chat.Complete(ctx, model, prompt.Build(kind, sess.Text, input))
	if err != nil {
		d.logger.Error("dispatch.chat.failed", "session_id", id, "kind", kind.String(), "err", err)
		return session.Reply{}, capabilityError(constants.CapabilityChat, err)
	}

	reply := session.Reply{Input: input, Model: model}
	if !resp.OK() {
		d.logger.Warn("dispatch.chat.failure", "session_id", id, "kind", kind.String(), "status", resp.Status)
		reply.Error = ChatErrorPrefix + resp.Diagnostic
		return d.record(id, tabFor(kind), reply)
	}

	reply.Text = resp.Text()
	if kind == prompt.Visualize {
		res := interpret.Interpret(reply.Text)
		reply.Visual = &res
		d.logger.Debug("dispatch.visualize.interpreted", "session_id", id, "chart", res.IsChart())
	}
	return d.record(id, tabFor(kind), reply)
}

func tabFor(kind prompt.Kind) session.Tab {
	switch kind {
	case prompt.Answer:
		return session.TabAnswer
	case prompt.Visualize:
		return session.TabVisual
	default:
		return session.TabSummary
	}
}
