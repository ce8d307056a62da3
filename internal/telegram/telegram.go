package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"estatehub/server/internal/database"
	"estatehub/server/internal/models"

	"github.com/sirupsen/logrus"
)

const defaultAPIBase = "https://api.telegram.org"

var kindTitles = map[models.InquiryKind]string{
	models.InquiryContact: "New contact message",
	models.InquiryDemo:    "New demo request",
	models.InquiryService: "New service booking",
}

type Service struct {
	logger  *logrus.Logger
	client  *http.Client
	apiBase string

	mu     sync.RWMutex
	config *models.TelegramConfig
	db     *database.Database
}

func NewService(logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		logger:  logger,
		apiBase: defaultAPIBase,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetAPIBase points the service at another Bot API host
func (s *Service) SetAPIBase(base string) {
	s.apiBase = strings.TrimRight(base, "/")
}

func (s *Service) UpdateConfig(config *models.TelegramConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
}

// SetDatabase lets notifications name the property an inquiry is about
func (s *Service) SetDatabase(db *database.Database) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db = db
}

func (s *Service) currentConfig() *models.TelegramConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Enabled reports whether messages would currently be sent
func (s *Service) Enabled() bool {
	cfg := s.currentConfig()
	return cfg != nil && cfg.IsEnabled
}

// ShouldNotify applies the configured filters to an inquiry
func (s *Service) ShouldNotify(inquiry *models.Inquiry) bool {
	cfg := s.currentConfig()
	if cfg == nil || !cfg.IsEnabled {
		return false
	}
	return cfg.Filters().IsInquiryAllowed(inquiry)
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(message string) error {
	cfg := s.currentConfig()
	if cfg == nil || !cfg.IsEnabled {
		return nil
	}

	if cfg.BotToken == "" {
		return errors.New("telegram bot token is not configured")
	}

	if cfg.ChatID == "" {
		return errors.New("telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, cfg.BotToken)
	payload := map[string]interface{}{
		"chat_id":                  cfg.ChatID,
		"text":                     message,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyInquiry sends a message about a new inquiry. Filtered inquiries are skipped silently.
func (s *Service) NotifyInquiry(inquiry *models.Inquiry) error {
	if !s.ShouldNotify(inquiry) {
		return nil
	}
	return s.SendMessage(s.FormatInquiry(inquiry))
}

// FormatInquiry renders an inquiry as an HTML Telegram message
func (s *Service) FormatInquiry(inquiry *models.Inquiry) string {
	title, ok := kindTitles[inquiry.Kind]
	if !ok {
		title = "New inquiry"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", title)
	fmt.Fprintf(&b, "👤 %s\n", html.EscapeString(inquiry.Name))
	fmt.Fprintf(&b, "✉️ %s\n", html.EscapeString(inquiry.Email))
	if inquiry.Phone != "" {
		fmt.Fprintf(&b, "📞 %s\n", html.EscapeString(inquiry.Phone))
	}
	if inquiry.Company != "" {
		fmt.Fprintf(&b, "🏢 %s\n", html.EscapeString(inquiry.Company))
	}
	if inquiry.Service != "" {
		fmt.Fprintf(&b, "🛠️ %s\n", html.EscapeString(inquiry.Service))
	}
	if inquiry.PreferredDate != nil {
		fmt.Fprintf(&b, "📅 %s\n", inquiry.PreferredDate.Format("Mon 2 Jan 2006 15:04"))
	}
	if title := s.propertyTitle(inquiry.PropertyID); title != "" {
		fmt.Fprintf(&b, "🏠 %s\n", html.EscapeString(title))
	}
	if inquiry.Subject != "" {
		fmt.Fprintf(&b, "\n<b>%s</b>", html.EscapeString(inquiry.Subject))
	}
	if inquiry.Message != "" {
		fmt.Fprintf(&b, "\n%s", html.EscapeString(inquiry.Message))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) propertyTitle(id string) string {
	if id == "" {
		return ""
	}
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return ""
	}

	property, err := db.GetProperty(id)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.logger.WithError(err).WithField("property_id", id).Error("Failed to look up property for notification")
		}
		return ""
	}
	return fmt.Sprintf("%s (%s, %s)", property.Title, property.Location, property.City)
}

// SendDigest summarizes the inquiries received since the given time
func (s *Service) SendDigest(inquiries []models.Inquiry, since time.Time) error {
	if !s.Enabled() {
		return nil
	}
	return s.SendMessage(FormatDigest(inquiries, since))
}

func FormatDigest(inquiries []models.Inquiry, since time.Time) string {
	counts := map[models.InquiryKind]int{}
	open := 0
	for _, inq := range inquiries {
		counts[inq.Kind]++
		if inq.Status == models.InquiryStatusNew {
			open++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Inquiry digest since %s</b>\n\n", since.Format("2 Jan 15:04"))
	if len(inquiries) == 0 {
		b.WriteString("No new inquiries.")
		return b.String()
	}
	fmt.Fprintf(&b, "💬 Contact messages: %d\n", counts[models.InquiryContact])
	fmt.Fprintf(&b, "🎥 Demo requests: %d\n", counts[models.InquiryDemo])
	fmt.Fprintf(&b, "🛠️ Service bookings: %d\n", counts[models.InquiryService])
	fmt.Fprintf(&b, "\n%d of %d still awaiting a reply", open, len(inquiries))
	return b.String()
}

// SendWith sends message with cfg instead of the stored configuration
func (s *Service) SendWith(cfg *models.TelegramConfig, message string) error {
	probe := &Service{logger: s.logger, client: s.client, apiBase: s.apiBase, config: cfg}
	return probe.SendMessage(message)
}
