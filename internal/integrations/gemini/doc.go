// Package gemini adapts the Google Gemini API to the teaching Completer
// contract, for deployments that set LLM_PROVIDER=gemini.
package gemini
