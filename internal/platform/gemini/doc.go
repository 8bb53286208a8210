// Package gemini implements the generation.Generator interface using
// Google's Gemini API to produce vocabulary terms and facts for a topic.
package gemini
