package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterManagerDefaults(t *testing.T) {
	m, err := NewFilterManager("")
	require.NoError(t, err)

	tests := []struct {
		name    string
		from    string
		subject string
		ignored bool
	}{
		{
			name:    "no-reply sender",
			from:    "No Reply <no-reply@example.com>",
			subject: "Your order",
			ignored: true,
		},
		{
			name:    "mailer daemon",
			from:    "MAILER-DAEMON@example.com",
			subject: "Delivery failure",
			ignored: true,
		},
		{
			name:    "unsubscribe subject",
			from:    "alice@example.com",
			subject: "How to unsubscribe",
			ignored: true,
		},
		{
			name:    "out of office subject",
			from:    "bob@example.com",
			subject: "Out of Office: vacation",
			ignored: true,
		},
		{
			name:    "normal message",
			from:    "alice@example.com",
			subject: "Quick question",
			ignored: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ignored, m.ShouldIgnore(tt.from, tt.subject))
		})
	}
}

func TestFilterManagerCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")

	m, err := NewFilterManager(path)
	require.NoError(t, err)

	// File was created with defaults
	_, err = os.Stat(path)
	require.NoError(t, err)
	assert.NotEmpty(t, m.Filters().IgnoreSenders)
}

func TestFilterManagerLoadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")
	content := `{"ignoreSenders":["spam@example.com"],"ignoreKeywordsInSubject":[]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m, err := NewFilterManager(path)
	require.NoError(t, err)

	assert.True(t, m.ShouldIgnore("spam@example.com", "anything"))
	// Defaults are replaced, not merged
	assert.False(t, m.ShouldIgnore("no-reply@example.com", "hi"))
}

func TestFilterManagerRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFilterManager(path)
	assert.Error(t, err)
}

func TestFilterManagerAddPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")

	m, err := NewFilterManager(path)
	require.NoError(t, err)
	require.NoError(t, m.AddIgnoreSender("list@example.com"))
	require.NoError(t, m.AddIgnoreKeywordInSubject("newsletter"))

	// Duplicate add is a no-op
	require.NoError(t, m.AddIgnoreSender("list@example.com"))

	reloaded, err := NewFilterManager(path)
	require.NoError(t, err)
	assert.True(t, reloaded.ShouldIgnore("list@example.com", "hi"))
	assert.True(t, reloaded.ShouldIgnore("alice@example.com", "Weekly Newsletter"))
}
