// Package elevenlabs adapts the ElevenLabs text-to-speech API to the
// teaching Synthesizer contract. Returned audio is sniffed to make sure the
// upstream sent sound and not an error page.
package elevenlabs
