// Package main is the entry point for the AI whiteboard server.
//
// The server hosts one shared whiteboard. Users draw with pointer input;
// an AI tutor draws on the same board from language model replies and
// narrates them with synthesized speech.
//
//	Browser ⇄ REST + /stream ⇄ Board ⇄ Language model (OpenAI or Gemini)
//	                                 ⇄ Speech (ElevenLabs)
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML or TOML file named by WHITEBOARD_CONFIG
//   - CLI flags (override both)
//
// Usage:
//
//	OPENAI_API_KEY=sk-... ./server -port 8000
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
