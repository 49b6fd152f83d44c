// Package events defines the canonical event contract for a single agent turn.
//
// Wire dialects are decoded elsewhere and normalized into the kinds below, so
// consumers only ever switch over this set.
//
// Kinds are grouped by receiver-facing namespaces:
//
//   - run.*
//   - text_message.*
//   - tool_call.*
//   - turn_state.*
//
// run events
//
//   - RunStarted (run.started): the producer accepted the turn.
//   - RunFinished (run.finished): the producer finished the turn.
//   - RunError (run.error): the producer failed the turn; carries the
//     producer's message and optional code.
//
// text_message events
//
//   - TextMessageStart (text_message.start): an assistant message began.
//   - TextMessageContent (text_message.content): append-only content delta for
//     a message, in stream order.
//   - TextMessageEnd (text_message.end): no more content follows for the
//     message.
//
// tool_call events
//
//   - ToolCallStart (tool_call.start): a tool invocation began, optionally
//     naming its parent message.
//   - ToolCallArgs (tool_call.args): append-only argument delta.
//   - ToolCallEnd (tool_call.end): arguments are complete, the call awaits its
//     result.
//   - ToolCallResult (tool_call.result): the tool produced its result.
//
// turn_state events
//
// These never appear on the wire. They are emitted locally when a turn changes
// lifecycle state.
//
//   - TurnStarted (turn_state.started): a turn request was issued.
//   - TurnCompleted (turn_state.completed): the turn finished successfully.
//   - TurnFailed (turn_state.failed): the turn closed with a protocol or
//     transport error.
//   - TurnCancelled (turn_state.cancelled): the turn was cancelled.
package events
