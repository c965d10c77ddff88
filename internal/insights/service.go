package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledgerline/ledgerline/internal/statements"
)

// ErrUnavailable indicates no provider is configured.
var ErrUnavailable = errors.New("insights: provider not configured")

const systemPrompt = "You are a finance assistant. Summarise the statement for a " +
	"business owner in at most four sentences. Mention notable totals and " +
	"whether the picture looks healthy. Do not invent numbers."

// Service turns statement summaries into commentary.
type Service struct {
	provider Provider
	logger   *slog.Logger
}

// NewService constructs the insights service. A nil provider disables
// commentary.
func NewService(logger *slog.Logger, provider Provider) *Service {
	return &Service{provider: provider, logger: logger}
}

// Commentary generates narrative text for a built statement. Only the
// summary totals are sent to the provider, never row-level data.
func (s *Service) Commentary(ctx context.Context, st statements.Statement) (string, error) {
	if s == nil || s.provider == nil {
		return "", ErrUnavailable
	}

	text, err := s.provider.Generate(ctx, systemPrompt, summaryPrompt(st))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("insights: empty response")
	}
	s.logger.Info("insights generated", slog.String("statement", st.Title))
	return text, nil
}

func summaryPrompt(st statements.Statement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s.\n", st.Title, st.Period)
	for _, line := range st.Summary {
		fmt.Fprintf(&b, "%s: %s\n", line.Label, line.Amount.StringFixed(2))
	}
	return b.String()
}
