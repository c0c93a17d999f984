package telegram

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"househunt/internal/metrics"
	"househunt/internal/models"
	"househunt/internal/scoring"
)

// Sender is the part of *telego.Bot used for alerts
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

type Service struct {
	logger    *logrus.Logger
	sender    Sender
	chatID    int64
	threshold int
	metrics   *metrics.Metrics
}

// NewService creates a bot-backed service. An empty token or chat id gives a
// disabled service whose notifications are no-ops.
func NewService(logger *logrus.Logger, token string, chatID int64, threshold int, m *metrics.Metrics) (*Service, error) {
	if token == "" || chatID == 0 {
		return &Service{logger: logger, threshold: threshold, metrics: m}, nil
	}

	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return NewServiceWithSender(logger, bot, chatID, threshold, m), nil
}

func NewServiceWithSender(logger *logrus.Logger, sender Sender, chatID int64, threshold int, m *metrics.Metrics) *Service {
	return &Service{
		logger:    logger,
		sender:    sender,
		chatID:    chatID,
		threshold: threshold,
		metrics:   m,
	}
}

func (s *Service) Enabled() bool {
	return s != nil && s.sender != nil
}

// SendMessage sends an HTML message to the configured chat
func (s *Service) SendMessage(ctx context.Context, message string) error {
	if !s.Enabled() {
		return nil
	}

	msg := tu.Message(tu.ID(s.chatID), message).WithParseMode(telego.ModeHTML)
	_, err := s.sender.SendMessage(ctx, msg)
	if s.metrics != nil {
		s.metrics.NotificationSent(err == nil)
	}
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// ShouldNotify reports whether a score change crosses the alert threshold upward
func ShouldNotify(previous *int, current, threshold int) bool {
	if threshold <= 0 || current < threshold {
		return false
	}
	return previous == nil || *previous < threshold
}

// NotifyHighScore alerts when a property's new score crosses the threshold.
// It reports whether a message was sent.
func (s *Service) NotifyHighScore(ctx context.Context, p models.Property, previous *int, breakdown scoring.Breakdown) (bool, error) {
	if !s.Enabled() || !ShouldNotify(previous, breakdown.Score, s.threshold) {
		return false, nil
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": p.ID,
		"score":       breakdown.Score,
		"threshold":   s.threshold,
	}).Info("Sending high score alert")

	if err := s.SendMessage(ctx, FormatHighScoreMessage(p, breakdown)); err != nil {
		return false, err
	}
	return true, nil
}

// FormatHighScoreMessage renders the alert body
func FormatHighScoreMessage(p models.Property, breakdown scoring.Breakdown) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>Strong match: %d/100</b>\n\n", breakdown.Score)
	fmt.Fprintf(&b, "🏠 %s\n", html.EscapeString(p.Street))
	fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(strings.TrimSpace(p.PostalCode+" "+p.City)))
	fmt.Fprintf(&b, "💰 €%d\n", p.Price)
	if sqm := p.PricePerSqm(); sqm > 0 {
		fmt.Fprintf(&b, "💵 €%.0f/m²\n", sqm)
	}

	top := TopNiceToHaves(breakdown, 3)
	if len(top) > 0 {
		b.WriteString("\n<b>Best points</b>\n")
		for _, line := range top {
			fmt.Fprintf(&b, "• %s (%s)\n", html.EscapeString(line.Text), line.Display)
		}
	}

	if p.URL != "" {
		fmt.Fprintf(&b, "\n🔗 <a href=\"%s\">View listing</a>", html.EscapeString(p.URL))
	}
	return b.String()
}

// TopNiceToHaves returns up to n lines with points, best first
func TopNiceToHaves(breakdown scoring.Breakdown, n int) []scoring.NiceToHaveLine {
	lines := lo.Filter(breakdown.NiceToHaves, func(l scoring.NiceToHaveLine, _ int) bool {
		return l.PointsEarned > 0
	})
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].PointsEarned > lines[j].PointsEarned
	})
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}
