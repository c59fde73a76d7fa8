package gmail

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	gmail "google.golang.org/api/gmail/v1"
)

// maxBodyRunes caps the parsed body length. Long bodies add nothing for
// reply generation and bloat logs.
const maxBodyRunes = 500

// Message is a parsed Gmail message carrying the fields needed to
// generate and thread a reply.
type Message struct {
	ID       string
	ThreadID string
	From     string
	Subject  string
	Body     string
	Snippet  string
	LabelIDs []string

	// RFC822MessageID and References are the raw email headers needed to
	// build In-Reply-To/References on the reply.
	RFC822MessageID string
	References      string
}

// HeaderValue extracts a header value from a Gmail message payload.
// Header names are matched case-insensitively.
func HeaderValue(msg *gmail.Message, name string) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	for _, header := range msg.Payload.Headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// ParseMessage converts a full-format Gmail API message into a Message.
func ParseMessage(msg *gmail.Message) *Message {
	if msg == nil {
		return nil
	}
	return &Message{
		ID:              msg.Id,
		ThreadID:        msg.ThreadId,
		From:            HeaderValue(msg, "From"),
		Subject:         HeaderValue(msg, "Subject"),
		Body:            ExtractBody(msg),
		Snippet:         msg.Snippet,
		LabelIDs:        msg.LabelIds,
		RFC822MessageID: HeaderValue(msg, "Message-ID"),
		References:      HeaderValue(msg, "References"),
	}
}

// ExtractBody extracts the plain-text body of a message. It prefers the
// first text/plain part, falling back to the top-level payload body and
// finally the snippet. The result has whitespace collapsed and is capped
// at maxBodyRunes runes.
func ExtractBody(msg *gmail.Message) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}

	var body string
	if part := findPlainTextPart(msg.Payload); part != nil && part.Body != nil {
		body = decodeBody(part.Body.Data)
	}
	if body == "" && msg.Payload.Body != nil {
		body = decodeBody(msg.Payload.Body.Data)
	}
	if body == "" {
		body = msg.Snippet
	}

	return truncateRunes(collapseWhitespace(body), maxBodyRunes)
}

// findPlainTextPart walks the MIME tree depth-first and returns the first
// text/plain part with body data.
func findPlainTextPart(part *gmail.MessagePart) *gmail.MessagePart {
	if part == nil {
		return nil
	}
	if strings.HasPrefix(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		return part
	}
	for _, child := range part.Parts {
		if found := findPlainTextPart(child); found != nil {
			return found
		}
	}
	return nil
}

// decodeBody decodes a base64url-encoded message body. Gmail uses the
// URL-safe alphabet, but some clients pad or use the standard alphabet,
// so fall back before giving up.
func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
	}
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(data)
	}
	if err != nil {
		return ""
	}
	return string(decoded)
}

// collapseWhitespace replaces runs of whitespace with a single space and
// trims the result.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes limits s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
