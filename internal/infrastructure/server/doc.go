// Package server assembles the whiteboard service: configuration, logging,
// metrics, collaborator clients, the board, and the HTTP and WebSocket
// routes.
//
// REST responses are gzip compressed; the /stream endpoint is not.
package server
