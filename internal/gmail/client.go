package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/autoreply/internal/google"
)

// Client wraps the Gmail Users service.
type Client struct {
	svc       *gmail.UsersService
	account   string // The account this client is associated with
	signature string // Cached signature for this account
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account.
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// NewClientForAccount creates a new Gmail client with OAuth2 authentication
// for a specific account. The OAuth token must already be cached; run the
// auth command first.
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	client, err := google.GetHTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s: %w. Run 'autoreply auth' first", account, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}

	return &Client{
		svc:     svc.Users,
		account: account,
	}, nil
}

// NewClient creates a new Gmail client for the default account.
func NewClient(ctx context.Context) (*Client, error) {
	return NewClientForAccount(ctx, "default")
}

// ListMessages lists messages matching the query with pagination.
// It will fetch up to maxResults messages, making multiple API calls if
// necessary. The returned messages carry only Id and ThreadId; use
// FetchMessage to hydrate one.
func (c *Client) ListMessages(q string, maxResults int64) ([]*gmail.Message, error) {
	var allMessages []*gmail.Message
	pageToken := ""

	for {
		// Request the remaining number of messages needed
		remaining := maxResults - int64(len(allMessages))
		if remaining <= 0 {
			break
		}

		// Gmail API has a max page size, typically 100
		pageSize := remaining
		if pageSize > 100 {
			pageSize = 100
		}

		req := c.svc.Messages.List("me").Q(q).MaxResults(pageSize)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		res, err := req.Do()
		if err != nil {
			return nil, err
		}

		allMessages = append(allMessages, res.Messages...)

		// If there's no next page or we have enough results, stop
		if res.NextPageToken == "" || int64(len(allMessages)) >= maxResults {
			break
		}

		pageToken = res.NextPageToken
	}

	// Trim to exact maxResults if we got more
	if int64(len(allMessages)) > maxResults {
		allMessages = allMessages[:maxResults]
	}

	return allMessages, nil
}

// GetMessage retrieves a full Gmail message.
func (c *Client) GetMessage(messageID string) (*gmail.Message, error) {
	msg, err := c.svc.Messages.Get("me", messageID).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return msg, nil
}

// FetchMessage retrieves a full Gmail message and parses it into a Message.
func (c *Client) FetchMessage(messageID string) (*Message, error) {
	raw, err := c.GetMessage(messageID)
	if err != nil {
		return nil, err
	}
	return ParseMessage(raw), nil
}

// MarkReplied marks the message as handled by removing the UNREAD label,
// so it no longer matches the default poll query.
func (c *Client) MarkReplied(messageID string) error {
	_, err := c.svc.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Do()
	if err != nil {
		return fmt.Errorf("failed to mark message %s as replied: %w", messageID, err)
	}
	return nil
}

// encodeRFC2047 encodes a string for use in email headers according to RFC 2047.
// This is necessary for non-ASCII characters (like German umlauts) in subjects.
func encodeRFC2047(s string) string {
	// Check if the string contains only ASCII characters
	needsEncoding := false
	for _, r := range s {
		if r > 127 {
			needsEncoding = true
			break
		}
	}

	// If it's all ASCII, return as-is
	if !needsEncoding {
		return s
	}

	// Use Go's mime package which implements RFC 2047 encoding
	return mime.BEncoding.Encode("UTF-8", s)
}

// GetSignature fetches the user's Gmail signature (primary send-as address).
// The signature is cached after the first fetch.
func (c *Client) GetSignature() (string, error) {
	// Return cached signature if available
	if c.signature != "" {
		return c.signature, nil
	}

	// Fetch send-as settings to get the signature
	sendAs, err := c.svc.Settings.SendAs.Get("me", "me").Do()
	if err != nil {
		// If we can't fetch the signature, return empty string (not an error)
		// This allows replies to be sent even if signature fetching fails
		return "", nil
	}

	// Cache the signature
	if sendAs.Signature != "" {
		c.signature = sendAs.Signature
	}

	return c.signature, nil
}

// appendSignature adds the user's signature to the reply body.
func (c *Client) appendSignature(body string) string {
	signature, err := c.GetSignature()
	if err != nil || signature == "" {
		// No signature or error fetching it, return body as-is
		return body
	}

	return body + "\n\n-- \n" + signature
}

// ReplyToMessage sends a plain-text reply threaded to the source message.
// The reply goes to the source sender, with In-Reply-To/References headers
// set for proper threading and "Re: " prepended to the subject when missing.
// Returns the id of the sent message.
func (c *Client) ReplyToMessage(msg *Message, body string) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("message is required")
	}
	if msg.ThreadID == "" {
		return "", fmt.Errorf("threadID is required")
	}
	if msg.From == "" {
		return "", fmt.Errorf("source message has no From header")
	}
	if body == "" {
		return "", fmt.Errorf("body is required")
	}

	// Build reply subject (add "Re: " if not already present)
	replySubject := msg.Subject
	if !strings.HasPrefix(strings.ToLower(replySubject), "re:") {
		replySubject = "Re: " + replySubject
	}

	// Build References header for proper threading
	var references string
	if msg.References != "" {
		references = msg.References + " " + msg.RFC822MessageID
	} else {
		references = msg.RFC822MessageID
	}

	// Build the email message in RFC 2822 format
	var emailBuilder strings.Builder

	// Reply to the original sender
	emailBuilder.WriteString("To: ")
	emailBuilder.WriteString(msg.From)
	emailBuilder.WriteString("\r\n")

	// Add Subject (encode for non-ASCII characters like umlauts)
	emailBuilder.WriteString("Subject: ")
	emailBuilder.WriteString(encodeRFC2047(replySubject))
	emailBuilder.WriteString("\r\n")

	// Add threading headers for proper email threading
	if msg.RFC822MessageID != "" {
		emailBuilder.WriteString("In-Reply-To: ")
		emailBuilder.WriteString(msg.RFC822MessageID)
		emailBuilder.WriteString("\r\n")
	}

	if references != "" {
		emailBuilder.WriteString("References: ")
		emailBuilder.WriteString(references)
		emailBuilder.WriteString("\r\n")
	}

	emailBuilder.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	emailBuilder.WriteString("MIME-Version: 1.0\r\n")
	emailBuilder.WriteString("\r\n")

	// Add body with signature
	emailBuilder.WriteString(c.appendSignature(body))

	// Encode the message in base64url format
	rawMessage := base64.URLEncoding.EncodeToString([]byte(emailBuilder.String()))

	// Send the reply with ThreadId to maintain threading
	gmailMsg := &gmail.Message{
		Raw:      rawMessage,
		ThreadId: msg.ThreadID,
	}

	sent, err := c.svc.Messages.Send("me", gmailMsg).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send reply: %w", err)
	}

	return sent.Id, nil
}
