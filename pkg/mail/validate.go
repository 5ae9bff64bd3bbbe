package mail

import (
	"errors"
	"fmt"
	netmail "net/mail"
	"regexp"
	"strings"
)

// Violation is a single validation failure. Index is the batch element the
// violation belongs to, or -1 for single-send validation.
type Violation struct {
	Field   string
	Index   int
	Message string
}

// ValidationErrors collects violations across fields and batch elements.
// It implements error and always matches ErrValidation via errors.Is.
type ValidationErrors []Violation

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, v := range ve {
		if v.Index >= 0 {
			parts = append(parts, fmt.Sprintf("[%d].%s: %s", v.Index, v.Field, v.Message))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
		}
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (ve ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Indices returns the distinct batch element indices that carry violations,
// in first-seen order.
func (ve ValidationErrors) Indices() []int {
	seen := make(map[int]bool, len(ve))
	var out []int
	for _, v := range ve {
		if v.Index >= 0 && !seen[v.Index] {
			seen[v.Index] = true
			out = append(out, v.Index)
		}
	}
	return out
}

// emailRegex intentionally stays strict and simple: the provider rejects
// anything fancier anyway, and a precompiled regex keeps validation cheap.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9][a-zA-Z0-9.\-]*\.[a-zA-Z]{2,}$`)

// validAddress accepts bare addresses and RFC 5322 display-name forms
// like "Ada Lovelace <ada@example.com>".
func validAddress(s string) bool {
	addr, err := netmail.ParseAddress(s)
	if err != nil {
		return false
	}
	return emailRegex.MatchString(addr.Address)
}

// Validate checks a single-send request. It returns nil or ValidationErrors
// holding the first violation encountered in the documented check order:
// required fields, recipient cardinality, address syntax.
func Validate(r Request) error {
	if v := checkRequest(r, -1, false); v != nil {
		return ValidationErrors{*v}
	}
	return nil
}

// ValidateBatch checks a batch against batch-context rules. Cardinality is
// checked first; each element is then checked in order and contributes at
// most one violation, so the caller gets one actionable diagnostic per
// offending element instead of a wall of noise.
func ValidateBatch(b Batch) error {
	if len(b) == 0 {
		return ValidationErrors{{Field: "batch", Index: -1, Message: "batch must contain at least one request"}}
	}
	if len(b) > MaxBatchSize {
		return ValidationErrors{{Field: "batch", Index: -1, Message: fmt.Sprintf("batch size %d exceeds maximum of %d", len(b), MaxBatchSize)}}
	}

	var errs ValidationErrors
	for i, r := range b {
		if v := checkRequest(r, i, true); v != nil {
			errs = append(errs, *v)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateBatchElements applies the per-element batch rules without the
// MaxBatchSize cardinality bound. The dispatch client uses it for oversized
// batches that will be chunked to provider size afterwards; each chunk then
// satisfies ValidateBatch by construction.
func ValidateBatchElements(b Batch) error {
	if len(b) == 0 {
		return ValidationErrors{{Field: "batch", Index: -1, Message: "batch must contain at least one request"}}
	}

	var errs ValidationErrors
	for i, r := range b {
		if v := checkRequest(r, i, true); v != nil {
			errs = append(errs, *v)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateKey checks an idempotency key: non-empty, at most MaxKeyLength
// characters.
func ValidateKey(key string) error {
	if key == "" {
		return ValidationErrors{{Field: "idempotency_key", Index: -1, Message: "key must not be empty"}}
	}
	if len(key) > MaxKeyLength {
		return ValidationErrors{{Field: "idempotency_key", Index: -1, Message: fmt.Sprintf("key length %d exceeds maximum of %d", len(key), MaxKeyLength)}}
	}
	return nil
}

// checkRequest runs the ordered checks for one request and returns the
// first violation, or nil. In batch context the fields the provider
// forbids for batch elements are rejected as well.
func checkRequest(r Request, idx int, batch bool) *Violation {
	fail := func(field, msg string) *Violation {
		return &Violation{Field: field, Index: idx, Message: msg}
	}

	// Required fields.
	if r.From == "" {
		return fail("from", "sender address is required")
	}
	if len(r.To) == 0 {
		return fail("to", "at least one recipient is required")
	}
	if r.Subject == "" {
		return fail("subject", "subject is required")
	}
	if r.HTML == "" && r.Text == "" {
		return fail("body", "either html or text body is required")
	}

	// Cardinality.
	for _, f := range []struct {
		name  string
		addrs []string
	}{
		{"to", r.To},
		{"cc", r.CC},
		{"bcc", r.BCC},
		{"reply_to", r.ReplyTo},
	} {
		if len(f.addrs) > MaxRecipients {
			return fail(f.name, fmt.Sprintf("%d addresses exceeds maximum of %d", len(f.addrs), MaxRecipients))
		}
	}

	// Address syntax across every address-bearing field.
	if !validAddress(r.From) {
		return fail("from", fmt.Sprintf("malformed address %q", r.From))
	}
	for _, f := range []struct {
		name  string
		addrs []string
	}{
		{"to", r.To},
		{"cc", r.CC},
		{"bcc", r.BCC},
		{"reply_to", r.ReplyTo},
	} {
		for _, a := range f.addrs {
			if !validAddress(a) {
				return fail(f.name, fmt.Sprintf("malformed address %q", a))
			}
		}
	}

	// Fields the provider rejects inside a batch.
	if batch {
		if len(r.Attachments) > 0 {
			return fail("attachments", "attachments are not allowed in batch context")
		}
		if r.ScheduledAt != nil {
			return fail("scheduled_at", "scheduling is not allowed in batch context")
		}
	}

	return nil
}

// AsValidationErrors extracts ValidationErrors from err, when present.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
