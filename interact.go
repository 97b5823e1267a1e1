package paperstack

import (
	"context"
	"strings"
	"sync"
)

// InteractionState names the controller's state machine states.
type InteractionState int

const (
	// StateIdle means no document is attached yet.
	StateIdle InteractionState = iota

	// StateArmed is the normal operating state: the next finalized
	// selection produces an annotation of the armed tool's type.
	StateArmed

	// StateCommentPending holds a finalized selection while the
	// comment-entry surface is open.
	StateCommentPending
)

// PendingComment is a finalized selection awaiting its comment body. The
// page is captured at selection time so navigating while the modal is open
// cannot re-anchor the comment.
type PendingComment struct {
	Page          int
	SelectionText string
	Position      Position
}

// InteractionController translates raw selection, tool, and modal events
// into annotation store operations and re-renders. It never mutates the
// cache directly; all writes go through the session's store.
type InteractionController struct {
	mu      sync.Mutex
	session *ViewerSession
	state   InteractionState
	tool    AnnotationType
	color   string
	pending *PendingComment
}

// NewInteractionController returns an idle controller. Events are no-ops
// until a session is attached.
func NewInteractionController() *InteractionController {
	return &InteractionController{
		state: StateIdle,
		tool:  Highlight,
		color: DefaultColor,
	}
}

// Attach arms the controller against a loaded session. The tool resets to
// Highlight, matching a freshly opened viewer.
func (ic *InteractionController) Attach(session *ViewerSession) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.session = session
	ic.state = StateArmed
	ic.tool = Highlight
	ic.pending = nil
}

// State reports the current state and armed tool.
func (ic *InteractionController) State() (InteractionState, AnnotationType) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.state, ic.tool
}

// Pending returns the pending comment selection, if any.
func (ic *InteractionController) Pending() *PendingComment {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.pending
}

// SelectTool switches the armed tool. While a comment is pending the event
// is ignored; the modal owns the interaction.
func (ic *InteractionController) SelectTool(tool AnnotationType) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.state != StateArmed {
		return
	}
	if tool == Highlight || tool == Comment {
		ic.tool = tool
	}
}

// SelectColor switches the color applied to subsequent annotations.
func (ic *InteractionController) SelectColor(color string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if color != "" {
		ic.color = color
	}
}

// SelectionFinalized handles the end of a text-selection gesture. A
// selection with empty trimmed text or a degenerate rectangle is a no-op
// transition, not an error. With the highlight tool armed the annotation
// is created immediately; with the comment tool armed the selection is
// parked until the comment body arrives. The armed tool is sticky either
// way.
func (ic *InteractionController) SelectionFinalized(ctx context.Context, rect ViewportRect, text string) (*RenderPlan, error) {
	trimmed := strings.TrimSpace(text)

	ic.mu.Lock()
	if ic.state != StateArmed || ic.session == nil {
		ic.mu.Unlock()
		return nil, nil
	}
	if trimmed == "" || rect.Degenerate() {
		ic.mu.Unlock()
		return nil, nil
	}

	session := ic.session
	tool := ic.tool
	color := ic.color
	view := session.View()
	pos := ToPageSpace(rect, view.Scale)

	if tool == Comment {
		ic.state = StateCommentPending
		ic.pending = &PendingComment{Page: view.Page, SelectionText: trimmed, Position: pos}
		ic.mu.Unlock()
		return nil, nil
	}
	ic.mu.Unlock()

	if _, err := session.Store().Create(ctx, view.Page, Highlight, pos, trimmed, "", color); err != nil {
		return nil, err
	}
	return session.Refresh(ctx)
}

// CommentSaved commits the pending comment with the given body. An empty or
// all-whitespace body discards the pending selection without a create call.
// Either way the controller returns to Armed(Comment).
func (ic *InteractionController) CommentSaved(ctx context.Context, body string) (*RenderPlan, error) {
	ic.mu.Lock()
	if ic.state != StateCommentPending || ic.pending == nil {
		ic.mu.Unlock()
		return nil, nil
	}

	pending := ic.pending
	ic.pending = nil
	ic.state = StateArmed
	session := ic.session
	color := ic.color
	ic.mu.Unlock()

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, nil
	}

	if _, err := session.Store().Create(ctx, pending.Page, Comment, pending.Position, pending.SelectionText, trimmed, color); err != nil {
		return nil, err
	}
	return session.Refresh(ctx)
}

// CommentCancelled discards the pending selection and returns to
// Armed(Comment).
func (ic *InteractionController) CommentCancelled() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.state != StateCommentPending {
		return
	}
	ic.pending = nil
	ic.state = StateArmed
}

// DeleteAnnotation removes an annotation by id and re-renders so the
// overlay no longer shows it.
func (ic *InteractionController) DeleteAnnotation(ctx context.Context, id int64) (*RenderPlan, error) {
	ic.mu.Lock()
	session := ic.session
	ic.mu.Unlock()
	if session == nil {
		return nil, nil
	}

	if err := session.Store().Delete(ctx, id); err != nil {
		return nil, err
	}
	return session.Refresh(ctx)
}
