// Package mail delivers best-effort notification email after a
// document is signed. Delivery failures never fail a signing; the
// caller logs and moves on.
package mail

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/pensign/pensign/internal/signing"
)

// Config holds the SMTP settings for outbound mail.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Recipients []string // internal stakeholders
}

// Notifier sends signed-document notifications over SMTP.
type Notifier struct {
	client     *mail.Client
	from       string
	recipients []string
}

// NewNotifier builds a notifier from SMTP settings. Plain auth is only
// configured when a username is set, so unauthenticated relays work in
// development.
func NewNotifier(cfg Config) (*Notifier, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &Notifier{
		client:     client,
		from:       cfg.From,
		recipients: cfg.Recipients,
	}, nil
}

// NotifyInternal mails the signed document to the configured
// stakeholder addresses.
func (n *Notifier) NotifyInternal(ctx context.Context, note signing.Notification) error {
	if len(n.recipients) == 0 {
		return nil
	}
	msg, err := n.message(n.recipients,
		fmt.Sprintf("Document signed: %s", note.OriginalFilename),
		internalBody(note))
	if err != nil {
		return err
	}
	if err := msg.AttachReader(attachmentName(note), bytes.NewReader(note.SignedDocument)); err != nil {
		return fmt.Errorf("failed to attach signed document: %w", err)
	}
	return n.send(ctx, msg)
}

// NotifySigner mails a courtesy copy to the signer, when an address
// was captured at submission time.
func (n *Notifier) NotifySigner(ctx context.Context, note signing.Notification) error {
	if note.SignerEmail == "" {
		return nil
	}
	msg, err := n.message([]string{note.SignerEmail},
		fmt.Sprintf("Your signed copy of %s", note.OriginalFilename),
		signerBody(note))
	if err != nil {
		return err
	}
	if err := msg.AttachReader(attachmentName(note), bytes.NewReader(note.SignedDocument)); err != nil {
		return fmt.Errorf("failed to attach signed document: %w", err)
	}
	return n.send(ctx, msg)
}

func (n *Notifier) message(to []string, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (n *Notifier) send(ctx context.Context, msg *mail.Msg) error {
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func internalBody(note signing.Notification) string {
	body := fmt.Sprintf("The document %q has been signed (session %s).\n",
		note.OriginalFilename, note.Token)
	if note.SignerEmail != "" {
		body += fmt.Sprintf("Signer email: %s\n", note.SignerEmail)
	}
	if note.Preview != "" {
		body += fmt.Sprintf("\nDocument preview:\n%s\n", note.Preview)
	}
	return body
}

func signerBody(note signing.Notification) string {
	return fmt.Sprintf("Thank you for signing %q.\nYour signed copy is attached.\n",
		note.OriginalFilename)
}

func attachmentName(note signing.Notification) string {
	if note.OriginalFilename != "" {
		return "signed-" + note.OriginalFilename
	}
	return "signed-document.pdf"
}
