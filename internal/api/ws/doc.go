// Package ws streams board events to browsers over WebSocket.
//
// The Hub broadcasts scene, tool and session events, narration audio and
// notifications to every connected client. Clients may send:
//
//	{"type":"ping"}                 -> pong
//	{"type":"status"}               -> board status
//	{"type":"teach","prompt":"..."} -> teach_result or error
//	{"type":"cancel"}               -> cancel_result
//
// Each client has a bounded send buffer; a client that falls behind is
// disconnected rather than slowing the board down.
package ws
