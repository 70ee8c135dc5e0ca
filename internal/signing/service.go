package signing

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pensign/pensign/internal/pdf"
)

// PNGDataURLPrefix is the only accepted encoding for submitted
// signature images.
const PNGDataURLPrefix = "data:image/png;base64,"

const (
	dateStampFormat = "01/02/2006"
	notifyTimeout   = 15 * time.Second
)

// Store persists signing sessions. Implementations must make
// MarkSigned a single conditional update: it succeeds at most once per
// token and returns ErrAlreadySigned afterwards, which is what makes
// duplicate form submits safe.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, token string) (*Session, error)
	MarkSigned(ctx context.Context, token, signedB64, signerEmail string, signedAt time.Time) error
}

// Stamper draws field content onto a PDF document.
type Stamper interface {
	Stamp(document []byte, stamps []pdf.Stamp) (*pdf.StampResult, error)
}

// Notification carries everything the outbound emails need.
type Notification struct {
	Token            string
	OriginalFilename string
	SignerEmail      string
	Preview          string
	SignedDocument   []byte
}

// Notifier delivers best-effort email after a completed signing. Both
// sends are independent; errors are logged by the caller and never
// affect the signing transaction.
type Notifier interface {
	NotifyInternal(ctx context.Context, n Notification) error
	NotifySigner(ctx context.Context, n Notification) error
}

// Service implements the signing pipeline operations.
type Service struct {
	store    Store
	stamper  Stamper
	notifier Notifier
	logger   *zap.Logger

	maxDocSize int64
	now        func() time.Time
}

// NewService creates the signing service. notifier may be nil, which
// disables outbound email entirely (useful in development).
func NewService(store Store, stamper Stamper, notifier Notifier, logger *zap.Logger, maxDocSize int64) *Service {
	return &Service{
		store:      store,
		stamper:    stamper,
		notifier:   notifier,
		logger:     logger,
		maxDocSize: maxDocSize,
		now:        time.Now,
	}
}

// CreateSession validates a placement-capture submission, persists a
// pending session, and returns the shareable signing link. Nothing is
// persisted on any validation failure.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResult, error) {
	if len(req.Document) == 0 {
		return nil, validationErrorf("document file is required")
	}
	if s.maxDocSize > 0 && int64(len(req.Document)) > s.maxDocSize {
		return nil, validationErrorf("document exceeds maximum size of %d bytes", s.maxDocSize)
	}
	if !isPDFUpload(req.Filename, req.ContentType) {
		return nil, validationErrorf("document must be a PDF")
	}

	fields, err := parseFields(req.FieldsJSON, req.PositionJSON)
	if err != nil {
		return nil, err
	}

	info, err := pdf.Inspect(req.Document)
	if err != nil {
		return nil, validationErrorf("document is not a readable PDF: %v", err)
	}

	session := &Session{
		Token:            uuid.NewString(),
		OriginalFilename: req.Filename,
		DocumentB64:      base64.StdEncoding.EncodeToString(req.Document),
		Fields:           fields,
		Status:           StatusPending,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("signing session created",
		zap.String("token", session.Token),
		zap.String("filename", session.OriginalFilename),
		zap.Int("fields", len(fields)),
		zap.Int("pages", info.Pages))

	return &CreateSessionResult{
		Token: session.Token,
		Link:  "/sign/" + session.Token,
		Pages: info.Pages,
	}, nil
}

// GetSession returns the layout the signer-facing page renders.
func (s *Service) GetSession(ctx context.Context, token string) (*SessionView, error) {
	session, err := s.store.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return &SessionView{
		Token:            session.Token,
		OriginalFilename: session.OriginalFilename,
		DocumentB64:      session.DocumentB64,
		Fields:           session.Fields,
		Status:           session.Status,
		CreatedAt:        session.CreatedAt,
	}, nil
}

// Submit embeds the supplied field values into the session's document,
// flips the session to signed, and dispatches notifications. The whole
// submission is validated before any mutation: a missing or malformed
// signature value rejects everything.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	session, err := s.store.GetSession(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if session.Status == StatusSigned {
		return nil, ErrAlreadySigned
	}

	document, err := base64.StdEncoding.DecodeString(session.DocumentB64)
	if err != nil {
		return nil, fmt.Errorf("stored document is corrupt: %w", err)
	}

	signatures := normalizeSignatures(session.Fields, req)
	images, err := decodeSignatureImages(session.Fields, signatures)
	if err != nil {
		return nil, err
	}

	stamps := s.buildStamps(session.Fields, images, req.TextValues)
	result, err := s.stamper.Stamp(document, stamps)
	if err != nil {
		return nil, fmt.Errorf("failed to stamp document: %w", err)
	}

	signedAt := s.now().UTC()
	signedB64 := base64.StdEncoding.EncodeToString(result.Document)
	if err := s.store.MarkSigned(ctx, req.Token, signedB64, req.SignerEmail, signedAt); err != nil {
		return nil, err
	}

	s.logger.Info("session signed",
		zap.String("token", req.Token),
		zap.Int("stamped", result.Applied),
		zap.Int("skipped", result.Skipped))

	s.dispatchNotifications(Notification{
		Token:            req.Token,
		OriginalFilename: session.OriginalFilename,
		SignerEmail:      req.SignerEmail,
		Preview:          documentPreview(document),
		SignedDocument:   result.Document,
	})

	return &SubmitResult{
		Token:    req.Token,
		Status:   StatusSigned,
		Stamped:  result.Applied,
		Skipped:  result.Skipped,
		SignedAt: signedAt.Format(time.RFC3339),
	}, nil
}

// normalizeSignatures folds the legacy single-signature shape into the
// per-field map so validation and stamping see one representation.
func normalizeSignatures(fields []Field, req SubmitRequest) map[string]string {
	signatures := make(map[string]string, len(req.Signatures)+1)
	for id, value := range req.Signatures {
		signatures[id] = value
	}
	if req.LegacySignature == "" {
		return signatures
	}
	for _, f := range fields {
		if f.Kind != FieldSignature {
			continue
		}
		id := fieldID(f)
		if _, ok := signatures[id]; !ok {
			signatures[id] = req.LegacySignature
		}
		break
	}
	return signatures
}

// decodeSignatureImages enforces the all-or-nothing contract: every
// signature field needs a non-empty, correctly prefixed PNG data URL,
// decoded up front so a bad value cannot leave a half-stamped document.
func decodeSignatureImages(fields []Field, signatures map[string]string) (map[string][]byte, error) {
	images := make(map[string][]byte)
	for _, f := range fields {
		if f.Kind != FieldSignature {
			continue
		}
		id := fieldID(f)
		value, ok := signatures[id]
		if !ok || value == "" {
			return nil, validationErrorf("missing signature for field %q", id)
		}
		if !strings.HasPrefix(value, PNGDataURLPrefix) {
			return nil, validationErrorf("signature for field %q must be a PNG data URL", id)
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, PNGDataURLPrefix))
		if err != nil || len(raw) == 0 {
			return nil, validationErrorf("signature for field %q is not valid base64", id)
		}
		images[id] = raw
	}
	return images, nil
}

// buildStamps turns the field layout plus submitted values into stamp
// instructions. Text fields without a submitted value produce no
// stamp; date fields always stamp the current date.
func (s *Service) buildStamps(fields []Field, images map[string][]byte, textValues map[string]string) []pdf.Stamp {
	stamps := make([]pdf.Stamp, 0, len(fields))
	for _, f := range fields {
		stamp := pdf.Stamp{
			Page:   f.Page,
			XRatio: f.XRatio,
			YRatio: f.YRatio,
			Width:  f.Width,
			Height: f.Height,
		}
		switch f.Kind {
		case FieldSignature:
			stamp.Kind = pdf.StampImage
			stamp.ImagePNG = images[fieldID(f)]
		case FieldDate:
			stamp.Kind = pdf.StampText
			stamp.Text = s.now().UTC().Format(dateStampFormat)
		case FieldText:
			value := textValues[fieldID(f)]
			if strings.TrimSpace(value) == "" {
				continue
			}
			stamp.Kind = pdf.StampText
			stamp.Text = value
		default:
			continue
		}
		stamps = append(stamps, stamp)
	}
	return stamps
}

// dispatchNotifications fires both emails off the request path. The
// document is already signed and stored; delivery failures are logged
// and swallowed.
func (s *Service) dispatchNotifications(n Notification) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyInternal(ctx, n); err != nil {
			s.logger.Warn("internal notification failed",
				zap.String("token", n.Token), zap.Error(err))
		}
	}()
	if n.SignerEmail == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifySigner(ctx, n); err != nil {
			s.logger.Warn("signer notification failed",
				zap.String("token", n.Token), zap.Error(err))
		}
	}()
}

func documentPreview(document []byte) string {
	info, err := pdf.Inspect(document)
	if err != nil {
		return ""
	}
	return info.Preview
}

func isPDFUpload(filename, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
