package mapper

import "strings"

// Annotate decorates a transcript with a marker when it contains a greeting,
// a stop command, or reads as a question. Transcripts matching none of those
// are returned unchanged; the session only emits a parsed_response message
// when the annotated text differs from the original.
func Annotate(transcript string) string {
	lower := strings.ToLower(transcript)

	if strings.Contains(lower, "hello") {
		return "👋 " + transcript
	}
	if strings.Contains(lower, "stop") {
		return "⏹️ " + transcript
	}
	if strings.HasSuffix(strings.TrimSpace(transcript), "?") {
		return "❓ " + transcript
	}
	return transcript
}

// Keywords returns the flagged keywords present in a transcript, for the
// detected_keywords field of parsed_response messages.
func Keywords(transcript string) []string {
	lower := strings.ToLower(transcript)

	var keywords []string
	if strings.Contains(lower, "urgent") {
		keywords = append(keywords, "urgent")
	}
	if strings.Contains(lower, "meeting") {
		keywords = append(keywords, "meeting")
	}
	return keywords
}
