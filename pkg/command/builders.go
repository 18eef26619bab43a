package command

// Builder constructors for the common command shapes. Server-side code
// composes trees from these instead of filling payload structs by hand.

// NavigateTo navigates to path, pushing a new history entry.
func NavigateTo(path string) Command {
	return Command{Kind: KindNavigateTo, Navigate: &NavigatePayload{Path: path}}
}

// NavigateToWithParams navigates to path with query parameters.
func NavigateToWithParams(path string, params map[string]interface{}) Command {
	return Command{Kind: KindNavigateTo, Navigate: &NavigatePayload{Path: path, Params: params}}
}

// RedirectTo navigates to path, replacing the current history entry.
func RedirectTo(path string) Command {
	return Command{Kind: KindNavigateTo, Navigate: &NavigatePayload{Path: path, Replace: true}}
}

// Alert shows a blocking dialog with a single acknowledgement.
func Alert(title, content string) Command {
	return Command{Kind: KindShowDialog, Dialog: &DialogPayload{
		DialogType: DialogAlert,
		Title:      title,
		Content:    content,
	}}
}

// Toast shows a transient, non-blocking notification.
func Toast(message string) Command {
	return Command{Kind: KindShowDialog, Dialog: &DialogPayload{
		DialogType: DialogToast,
		Content:    message,
	}}
}

// Confirm shows a cancel/confirm dialog. Either action may be nil, in which
// case picking that button is a no-op.
func Confirm(title, content string, confirmAction, cancelAction *Command) Command {
	return Command{Kind: KindShowDialog, Dialog: &DialogPayload{
		DialogType: DialogConfirm,
		Title:      title,
		Content:    content,
		Actions: []DialogAction{
			{Text: "Cancel", Action: cancelAction},
			{Text: "OK", Action: confirmAction},
		},
	}}
}

// ProcessData replaces the client state slot for dataType.
func ProcessData(dataType string, data interface{}) Command {
	return Command{Kind: KindProcessData, Process: &ProcessPayload{
		DataType: dataType,
		Data:     data,
	}}
}

// MergeData shallow-merges data into the client state slot for dataType.
func MergeData(dataType string, data interface{}) Command {
	return Command{Kind: KindProcessData, Process: &ProcessPayload{
		DataType: dataType,
		Data:     data,
		Merge:    true,
	}}
}

// ClearData clears the client state slot for dataType.
func ClearData(dataType string) Command {
	return Command{Kind: KindProcessData, Process: &ProcessPayload{DataType: dataType}}
}

// Sequence runs commands in order, stopping on the first failure.
func Sequence(commands ...Command) Command {
	return Command{Kind: KindSequence, Sequence: &SequencePayload{Commands: commands}}
}

// SequenceContinue runs commands in order, continuing past failures and
// reporting an overall failure at the end if any member failed.
func SequenceContinue(commands ...Command) Command {
	stop := false
	return Command{Kind: KindSequence, Sequence: &SequencePayload{
		Commands:    commands,
		StopOnError: &stop,
	}}
}

// Parallel starts commands concurrently and waits for all of them.
func Parallel(commands ...Command) Command {
	return Command{Kind: KindParallel, Parallel: &ParallelPayload{
		Commands:   commands,
		WaitForAll: true,
	}}
}

// ParallelDetached starts commands concurrently and resolves immediately;
// member failures surface only in telemetry.
func ParallelDetached(commands ...Command) Command {
	return Command{Kind: KindParallel, Parallel: &ParallelPayload{Commands: commands}}
}

// Retry re-runs cmd up to maxAttempts times with exponential backoff
// starting at delayMs.
func Retry(cmd Command, maxAttempts, delayMs int) Command {
	return Command{Kind: KindRetry, Retry: &RetryPayload{
		Command:     &cmd,
		MaxAttempts: maxAttempts,
		DelayMs:     delayMs,
	}}
}

// Delay waits durationMs, then runs cmd.
func Delay(durationMs int, cmd Command) Command {
	return Command{Kind: KindDelay, Delay: &DelayPayload{
		DurationMs: durationMs,
		Command:    &cmd,
	}}
}

// If evaluates condition on the client and runs the matching branch. Either
// branch may be nil.
func If(condition string, ifTrue, ifFalse *Command) Command {
	return Command{Kind: KindConditional, Conditional: &ConditionalPayload{
		Condition: condition,
		IfTrue:    ifTrue,
		IfFalse:   ifFalse,
	}}
}

// RequestPayment starts a payment flow with a server callback.
func RequestPayment(info PaymentInfo, callbackURL string) Command {
	return Command{Kind: KindRequestPayment, Payment: &PaymentPayload{
		PaymentInfo: info,
		CallbackURL: callbackURL,
	}}
}
