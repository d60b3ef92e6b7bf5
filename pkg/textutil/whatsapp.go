package textutil

import (
	"regexp"
	"strings"
)

const (
	MaxMessageRunes = 4096
	EmptyFallback   = "Gracias por tu mensaje. Te responderé pronto."
)

var (
	citationPattern = regexp.MustCompile(`【.*?】`)
	boldPattern     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	nonDialable     = regexp.MustCompile(`[^\d+]`)
)

// ForWhatsApp adapts model output to WhatsApp text: citation markers removed,
// markdown bold converted to WhatsApp bold, NUL bytes dropped and the body
// capped at MaxMessageRunes.
func ForWhatsApp(text string) string {
	text = citationPattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	text = boldPattern.ReplaceAllString(text, "*$1*")
	text = strings.ReplaceAll(text, "\x00", "")

	if runes := []rune(text); len(runes) > MaxMessageRunes {
		text = string(runes[:MaxMessageRunes-3]) + "..."
	}
	if strings.TrimSpace(text) == "" {
		return EmptyFallback
	}
	return text
}

// Recipient normaliza un wa_id a "+<digitos>".
func Recipient(waID string) string {
	cleaned := nonDialable.ReplaceAllString(waID, "")
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}
	return cleaned
}
