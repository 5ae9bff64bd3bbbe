package mail

import "time"

// Provider-documented limits. These are enforced locally so an oversized
// request never reaches the network.
const (
	// MaxRecipients bounds each of the to, cc, bcc and reply_to lists.
	MaxRecipients = 50
	// MaxBatchSize is the largest batch the provider accepts in one call.
	MaxBatchSize = 100
	// MaxKeyLength bounds the idempotency key.
	MaxKeyLength = 256
)

// Request is a single transactional email submission.
//
// Attachments and ScheduledAt are only honored for single sends; the
// provider rejects them in batch context, and ValidateBatch does the same.
type Request struct {
	From        string            `json:"from"`
	To          []string          `json:"to"`
	CC          []string          `json:"cc,omitempty"`
	BCC         []string          `json:"bcc,omitempty"`
	ReplyTo     []string          `json:"reply_to,omitempty"`
	Subject     string            `json:"subject"`
	HTML        string            `json:"html,omitempty"`
	Text        string            `json:"text,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Attachment is a file attached to a single-send request.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     []byte `json:"content"`
}

// Batch is an ordered sequence of requests submitted in one atomic call.
// The provider accepts all elements or none of them.
type Batch []Request

// Email is the provider's representation of a submitted email, as returned
// by the retrieval and listing endpoints.
type Email struct {
	ID          string     `json:"id"`
	From        string     `json:"from"`
	To          []string   `json:"to"`
	CC          []string   `json:"cc,omitempty"`
	BCC         []string   `json:"bcc,omitempty"`
	ReplyTo     []string   `json:"reply_to,omitempty"`
	Subject     string     `json:"subject"`
	HTML        string     `json:"html,omitempty"`
	Text        string     `json:"text,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	LastEvent   string     `json:"last_event,omitempty"`
}
