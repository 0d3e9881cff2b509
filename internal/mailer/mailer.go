package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrIncompleteConfig = errors.New("SMTP configuration is incomplete")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sender is satisfied by *gomail.Dialer.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer tells owners by e-mail that their listing is live.
type SMTPMailer struct {
	cfg    Config
	dialer sender
	logger *logger.Logger
}

func NewSMTPMailer(cfg Config, log *logger.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, ErrIncompleteConfig
	}
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: log.Named("SMTPMailer"),
	}, nil
}

// NotifyListingPublished mails the owner address carried by ctx. Without
// one there is nobody to notify and nil is returned.
func (m *SMTPMailer) NotifyListingPublished(ctx context.Context, ownerID string, listing *domain.Listing) error {
	to, ok := domain.OwnerEmailFromContext(ctx)
	if !ok {
		m.logger.Debug("No owner e-mail in request, skipping notification", zap.String("owner_id", ownerID))
		return nil
	}

	msg := m.listingPublishedMessage(to, listing)
	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send listing e-mail", zap.String("to", to), zap.String("listing_id", listing.ID), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.logger.Info("Listing e-mail sent", zap.String("to", to), zap.String("listing_id", listing.ID))
	return nil
}

func (m *SMTPMailer) listingPublishedMessage(to string, l *domain.Listing) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Your room listing is live: %s", l.Title))

	var b strings.Builder
	fmt.Fprintf(&b, "Your listing '%s' in %s has been published.\n\n", l.Title, l.Location)
	fmt.Fprintf(&b, "Rent: %.2f\nType: %s\nPreferred tenants: %s\nPhotos: %d\n\n",
		l.Price, l.PropertyType, l.TenantPreference, l.PhotoCount())
	fmt.Fprintf(&b, "Listing ID: %s\n", l.ID)
	msg.SetBody("text/plain", b.String())
	return msg
}
