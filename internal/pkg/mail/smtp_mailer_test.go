package mail

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	m := NewMessage("billing@example.com", "fred@example.com", "Payment requested", "<p>Hello</p>")

	assert.Equal(t, []string{"fred@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Payment requested"}, m.GetHeader("Subject"))
	require.Len(t, m.GetHeader("From"), 1)
	assert.Contains(t, m.GetHeader("From")[0], "billing@example.com")

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/html")
	assert.Contains(t, buf.String(), "<p>Hello</p>")
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SMTP_SENDER", "")
	t.Setenv("SMTP_PORT", "2525")

	cfg := LoadConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 2525, cfg.Port)
	assert.Equal(t, "no-reply@localhost", cfg.Sender)
}
