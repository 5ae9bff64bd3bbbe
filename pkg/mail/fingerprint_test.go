package mail_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mailkit/pkg/mail"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	base := validRequest()

	t.Run("identical content hashes identically", func(t *testing.T) {
		t.Parallel()

		other := validRequest()
		assert.Equal(t, mail.Fingerprint(base), mail.Fingerprint(other))
	})

	t.Run("any field change alters the hash", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			mutate func(*mail.Request)
		}{
			{"subject", func(r *mail.Request) { r.Subject = "Goodbye" }},
			{"recipient", func(r *mail.Request) { r.To = []string{"other@example.com"} }},
			{"tag", func(r *mail.Request) { r.Tags = map[string]string{"tier": "pro"} }},
			{"header", func(r *mail.Request) { r.Headers = map[string]string{"X-Entity-Ref": "42"} }},
		}
		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				changed := validRequest()
				tt.mutate(&changed)
				assert.NotEqual(t, mail.Fingerprint(base), mail.Fingerprint(changed))
			})
		}
	})
}

func TestBatchFingerprint(t *testing.T) {
	t.Parallel()

	a := validRequest()
	b := validRequest()
	b.Subject = "Second"

	assert.Equal(t, mail.BatchFingerprint(mail.Batch{a, b}), mail.BatchFingerprint(mail.Batch{a, b}))
	assert.NotEqual(t, mail.BatchFingerprint(mail.Batch{a, b}), mail.BatchFingerprint(mail.Batch{b, a}),
		"element order must be significant")
}
