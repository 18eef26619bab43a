package engine

import (
	"context"

	"github.com/routewire/routewire/pkg/command"
)

// Choice is the user's answer to a dialog.
type Choice string

const (
	ChoiceConfirm Choice = "confirm"
	ChoiceCancel  Choice = "cancel"
	ChoiceDismiss Choice = "dismiss"
)

// Dialog is what the host is asked to present. Buttons carries the action
// texts in wire order (cancel first for Confirm dialogs).
type Dialog struct {
	Type    command.DialogType
	Title   string
	Content string
	Buttons []string
}

// Capabilities is the narrow surface of side effects the engine may invoke.
// The host application implements it; the engine never renders, navigates or
// persists anything itself.
type Capabilities interface {
	// Navigate moves to path (already query-encoded). replace swaps the
	// current history entry instead of pushing.
	Navigate(ctx context.Context, path string, replace bool) error

	// PresentDialog shows a dialog and reports the user's choice. Toast
	// presentations return immediately with ChoiceDismiss.
	PresentDialog(ctx context.Context, d Dialog) (Choice, error)

	// MutateState applies a ProcessData mutation (nil data clears, merge
	// shallow-merges). Unknown kinds must be a warned no-op, not an error.
	MutateState(dataType string, data interface{}, merge bool) error

	// PerformPayment starts a payment flow and blocks until it settles.
	PerformPayment(ctx context.Context, info command.PaymentInfo) error

	// Notify shows a generic, non-technical failure notice. Best effort:
	// the engine ignores its outcome.
	Notify(ctx context.Context, message string)
}
