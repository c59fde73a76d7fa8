// Package reply generates the text of an automatic reply for an incoming
// email.
//
// Two generators are provided. LLMGenerator asks a chat model (via the
// eino framework with the Ark provider) for a short reply and falls back
// to the template generator when the model is unavailable or fails.
// TemplateGenerator picks a canned response from keyword buckets in the
// subject and body. Both run the same post-processing: the reply is cut
// at the first sentence and capped in length so the bot never sends a
// wall of text.
package reply
