// Package openai adapts the OpenAI chat completions API to the teaching
// Completer contract. Error replies are decoded into teaching.APIError so
// the teaching service can show specific guidance for quota, key and model
// problems.
package openai
