// Package teaching runs AI teaching sessions on the whiteboard.
//
// A session asks the language model to explain a topic, parses the reply
// into drawing instructions and narration, replays the instructions onto the
// scene with a pause after each step, and finally speaks the narration once.
//
// Components:
//   - Service: RequestTeaching, the end-to-end flow with error classification
//   - Scheduler: timed playback of a parsed script
//   - Completer, Synthesizer, Player, Notifier: collaborator contracts
//     implemented by provider adapters and the WebSocket hub
//
// Error Kinds:
//   - configuration: no model credentials, reported before any drawing
//   - collaborator: the model or speech provider failed
//   - resource: no drawing surface
//   - busy: another session is processing
//   - canceled: the user stopped the session
//   - invalid_request: the prompt failed validation
//   - internal: anything else
//
// Drawing applied before a failure or cancellation stays on the board.
package teaching
