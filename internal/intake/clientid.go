// Package intake processes form submissions: it derives the client
// identifier that namespaces a submitter's documents, renders the
// submission to a plain-text document, and relays the rendering plus
// any attachments to SharePoint.
package intake

import (
	"fmt"
	"strings"
	"time"
)

// alienFields are checked in priority order for the client identifier.
var alienFields = []string{
	"numeroA",
	"numeroExtranjero",
	"numeroAlien",
	"alienNumber",
	"numeroAAbusador",
}

// phoneFields are checked in priority order when no alien number is present.
var phoneFields = []string{
	"telefono",
	"telefonoContacto",
	"phone",
	"phoneNumber",
	"celular",
	"movil",
	"telefonoCelular",
	"tel",
}

// minPhoneDigits is the minimum digit count for a phone number to be
// accepted as a client identifier.
const minPhoneDigits = 7

// ClientID derives the identifier used to namespace a submitter's
// documents. Priority: first non-empty alien-number field; else the first
// phone field whose digits-only form has at least seven digits, prefixed
// with "tel-"; else a timestamp fallback prefixed with "temp-". The
// derivation is deterministic for the same fields except the fallback.
func ClientID(fields map[string]string) string {
	for _, name := range alienFields {
		if v := strings.TrimSpace(fields[name]); v != "" {
			return v
		}
	}

	for _, name := range phoneFields {
		if v := strings.TrimSpace(fields[name]); v != "" {
			digits := digitsOnly(v)
			if len(digits) >= minPhoneDigits {
				return "tel-" + digits
			}
		}
	}

	return fmt.Sprintf("temp-%d", time.Now().UnixMilli())
}

// FolderPath builds the destination folder path for a submission:
// {year}/{client-identifier}/{process-type}.
func FolderPath(clientID, processType string) string {
	return fmt.Sprintf("%d/%s/%s", time.Now().Year(), clientID, processType)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
