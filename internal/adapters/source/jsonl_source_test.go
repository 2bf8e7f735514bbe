package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeSourceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emails.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestJSONLSourceReadsRecords(t *testing.T) {
	path := writeSourceFile(t, `{"id":"e1","user_id":"u1","recipient_email":"pat@example.com","subject":"hi","sent_date":"2025-06-01T10:00:00Z","body":"hello there"}
{"id":"e2","user_id":"u1","recipient_email":"sam@example.com","subject":"re","body":"second email"}
`)

	src, err := NewJSONLSource(path, "fallback-user", zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()

	first, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "e1", first.ID)
	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, "pat@example.com", first.RecipientEmail)
	assert.Equal(t, "hello there", first.ExtractedText)
	assert.Equal(t, 2025, first.SentDate.Year())

	second, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "e2", second.ID)
	assert.True(t, second.SentDate.IsZero())

	_, err = src.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestJSONLSourceFillsDefaults(t *testing.T) {
	path := writeSourceFile(t, `{"recipient_email":"pat@example.com","body":"no id or user"}
`)

	src, err := NewJSONLSource(path, "fallback-user", zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	email, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, email.ID)
	assert.Equal(t, "fallback-user", email.UserID)
}

func TestJSONLSourceSkipsMalformedLines(t *testing.T) {
	path := writeSourceFile(t, `not json at all

{"id":"good","body":"a valid record"}
`)

	src, err := NewJSONLSource(path, "u1", zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	email, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "good", email.ID)

	_, err = src.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestJSONLSourceNoTrailingNewline(t *testing.T) {
	path := writeSourceFile(t, `{"id":"last","body":"no trailing newline"}`)

	src, err := NewJSONLSource(path, "u1", zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	email, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "last", email.ID)

	_, err = src.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestJSONLSourceHonorsContext(t *testing.T) {
	path := writeSourceFile(t, `{"id":"e1","body":"x"}
`)

	src, err := NewJSONLSource(path, "u1", zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONLSourceMissingFile(t *testing.T) {
	_, err := NewJSONLSource(filepath.Join(t.TempDir(), "missing.jsonl"), "u1", zap.NewNop())
	assert.Error(t, err)
}
