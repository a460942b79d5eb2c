package relay

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jordan-wright/email"
)

// sendEmailFunc is the dispatch seam; tests replace it to capture
// outbound messages instead of talking SMTP.
var sendEmailFunc = sendSMTP

func sendSMTP(cfg SMTPConfig, e *email.Email) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	if cfg.SSL {
		return e.SendWithTLS(addr, auth, &tls.Config{ServerName: cfg.Host})
	}
	return e.Send(addr, auth)
}

// ownerEmail notifies the site owner of a new submission. Reply-To is the
// sender so the owner can respond directly.
func ownerEmail(cfg *Config, req ContactRequest) *email.Email {
	e := email.NewEmail()
	e.From = cfg.FromAddr
	e.To = []string{cfg.ContactTo}
	e.ReplyTo = []string{fmt.Sprintf("%s <%s>", req.Name, req.Email)}
	e.Subject = strings.TrimSpace(cfg.SubjectPrefix + " New message from " + req.Name)
	e.Text = []byte(fmt.Sprintf(
		"From: %s <%s>\n\n%s\n",
		req.Name, req.Email, req.Message,
	))
	return e
}

// confirmationEmail acknowledges receipt back to the sender.
func confirmationEmail(cfg *Config, req ContactRequest) *email.Email {
	e := email.NewEmail()
	e.From = cfg.FromAddr
	e.To = []string{req.Email}
	e.Subject = strings.TrimSpace(cfg.SubjectPrefix + " We received your message")
	e.Text = []byte(fmt.Sprintf(
		"Hi %s,\n\nThanks for reaching out. Your message was delivered and I'll reply as soon as I can.\n\nYour message:\n%s\n",
		req.Name, req.Message,
	))
	return e
}
