// Package voice resolves spoken transcripts to configured voice commands
// and requests synthesized replies from the text-to-speech function.
package voice
