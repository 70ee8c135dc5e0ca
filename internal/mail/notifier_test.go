package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pensign/pensign/internal/signing"
)

func TestNewNotifier(t *testing.T) {
	n, err := NewNotifier(Config{
		Host:       "smtp.example.com",
		Port:       587,
		Username:   "sign",
		Password:   "secret",
		From:       "sign@example.com",
		Recipients: []string{"ops@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sign@example.com", n.from)
	assert.Len(t, n.recipients, 1)
}

func TestInternalBody(t *testing.T) {
	note := signing.Notification{
		Token:            "tok-1",
		OriginalFilename: "contract.pdf",
		SignerEmail:      "jordan@example.com",
		Preview:          "This agreement is made between...",
	}

	body := internalBody(note)
	assert.Contains(t, body, "contract.pdf")
	assert.Contains(t, body, "tok-1")
	assert.Contains(t, body, "jordan@example.com")
	assert.Contains(t, body, "This agreement is made between...")
}

func TestInternalBodyOmitsEmptySections(t *testing.T) {
	body := internalBody(signing.Notification{Token: "tok-1", OriginalFilename: "contract.pdf"})
	assert.NotContains(t, body, "Signer email")
	assert.NotContains(t, body, "preview")
}

func TestSignerBody(t *testing.T) {
	body := signerBody(signing.Notification{OriginalFilename: "contract.pdf"})
	assert.Contains(t, body, "contract.pdf")
	assert.Contains(t, body, "attached")
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "signed-contract.pdf",
		attachmentName(signing.Notification{OriginalFilename: "contract.pdf"}))
	assert.Equal(t, "signed-document.pdf", attachmentName(signing.Notification{}))
}
