// Package source provides email sources for ingestion.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/core"
)

// jsonlEmail is the wire form of one sent email, one JSON object per line
type jsonlEmail struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	RecipientEmail string `json:"recipient_email"`
	Subject        string `json:"subject"`
	SentDate       string `json:"sent_date"`
	Body           string `json:"body"`
}

// JSONLSource reads sent emails from a JSON-lines file or stdin
type JSONLSource struct {
	reader  *bufio.Reader
	closer  io.Closer
	logger  *zap.Logger
	userID  string
	lineNum int
}

// NewJSONLSource creates a source reading from the given path, or from
// stdin when path is "-". defaultUserID fills in records that carry no
// user_id of their own.
func NewJSONLSource(path, defaultUserID string, logger *zap.Logger) (*JSONLSource, error) {
	var r io.ReadCloser
	if path == "-" {
		r = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open email source: %w", err)
		}
		r = f
	}

	return &JSONLSource{
		reader: bufio.NewReader(r),
		closer: r,
		logger: logger,
		userID: defaultUserID,
	}, nil
}

// Next returns the next email, skipping blank and malformed lines. It
// returns io.EOF when the input is exhausted.
func (s *JSONLSource) Next(ctx context.Context) (*core.SentEmail, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read email source: %w", err)
		}
		atEOF := err == io.EOF
		s.lineNum++

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if atEOF {
				return nil, io.EOF
			}
			continue
		}

		var raw jsonlEmail
		if jsonErr := json.Unmarshal([]byte(trimmed), &raw); jsonErr != nil {
			s.logger.Warn("Skipping malformed email record",
				zap.Int("line", s.lineNum),
				zap.Error(jsonErr))
			if atEOF {
				return nil, io.EOF
			}
			continue
		}

		email := s.toEmail(&raw)
		if atEOF {
			// Deliver the final record now; the next call reports EOF
			s.reader = bufio.NewReader(strings.NewReader(""))
		}
		return email, nil
	}
}

// toEmail converts a wire record into the domain form, filling defaults
func (s *JSONLSource) toEmail(raw *jsonlEmail) *core.SentEmail {
	email := &core.SentEmail{
		ID:             raw.ID,
		UserID:         raw.UserID,
		RecipientEmail: raw.RecipientEmail,
		Subject:        raw.Subject,
		ExtractedText:  raw.Body,
	}

	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	if email.UserID == "" {
		email.UserID = s.userID
	}

	if raw.SentDate != "" {
		if t, err := time.Parse(time.RFC3339, raw.SentDate); err == nil {
			email.SentDate = t
		} else {
			s.logger.Warn("Ignoring unparseable sent_date",
				zap.Int("line", s.lineNum),
				zap.String("sent_date", raw.SentDate))
		}
	}

	return email
}

// Close releases the underlying reader
func (s *JSONLSource) Close() error {
	return s.closer.Close()
}
