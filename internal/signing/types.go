// Package signing implements the document-signing pipeline: field
// placement capture, session persistence, and signature embedding.
package signing

import (
	"errors"
	"fmt"
	"time"
)

// FieldKind is the closed set of field types a document can carry.
type FieldKind string

const (
	FieldSignature FieldKind = "signature"
	FieldDate      FieldKind = "date"
	FieldText      FieldKind = "text"
)

// LegacyFieldID identifies the single implicit field of sessions
// created before multi-field support existed.
const LegacyFieldID = "legacy"

// Session status values. Status is monotonic: pending -> signed, and
// signed is terminal.
const (
	StatusPending = "pending"
	StatusSigned  = "signed"
)

// Field is one rectangular placement on a document page. XRatio and
// YRatio locate the top-left corner as fractions of the rendered page
// size at capture time; Width and Height are the box size in points.
type Field struct {
	ID     string    `json:"id,omitempty"`
	Kind   FieldKind `json:"kind"`
	Page   int       `json:"page"`
	XRatio float64   `json:"xRatio"`
	YRatio float64   `json:"yRatio"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
}

// Session is one signing flow: the uploaded document, its field
// layout, and the signing status. The document travels inside the
// record as base64 so request handlers stay stateless.
type Session struct {
	Token            string     `json:"token"`
	OriginalFilename string     `json:"originalFilename"`
	DocumentB64      string     `json:"documentB64"`
	SignedB64        string     `json:"signedB64,omitempty"`
	Fields           []Field    `json:"fields"`
	Status           string     `json:"status"`
	SignerEmail      string     `json:"signerEmail,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	SignedAt         *time.Time `json:"signedAt,omitempty"`
}

// Sentinel errors mapped to HTTP status codes at the transport
// boundary.
var (
	ErrSessionNotFound = errors.New("signing session not found")
	ErrAlreadySigned   = errors.New("session already signed")
)

// ValidationError is a caller mistake: bad geometry, missing file,
// missing signature value. It carries a message safe to return to the
// client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a caller-input failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CreateSessionRequest carries a placement-capture submission.
// FieldsJSON holds the multi-field layout; PositionJSON holds the
// legacy single-coordinate shape. Exactly one of them is expected.
type CreateSessionRequest struct {
	Filename     string
	ContentType  string
	Document     []byte
	FieldsJSON   string
	PositionJSON string
}

// CreateSessionResult is returned on successful capture.
type CreateSessionResult struct {
	Token string `json:"token"`
	Link  string `json:"link"`
	Pages int    `json:"pages"`
}

// SubmitRequest carries a signature submission. Signatures maps field
// IDs to data:image/png;base64 data URLs; TextValues maps field IDs to
// free text. LegacySignature and LegacyPosition support the
// single-field shape produced by older signer pages.
type SubmitRequest struct {
	Token           string
	Signatures      map[string]string
	TextValues      map[string]string
	LegacySignature string
	SignerEmail     string
}

// SubmitResult reports a completed signing.
type SubmitResult struct {
	Token    string `json:"token"`
	Status   string `json:"status"`
	Stamped  int    `json:"stamped"`
	Skipped  int    `json:"skipped"`
	SignedAt string `json:"signedAt"`
}

// SessionView is the layout returned to the signer-facing page:
// everything it needs to render the document and place input widgets,
// without the signed output.
type SessionView struct {
	Token            string    `json:"token"`
	OriginalFilename string    `json:"originalFilename"`
	DocumentB64      string    `json:"documentB64"`
	Fields           []Field   `json:"fields"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}
