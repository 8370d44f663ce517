package mailer

import "embed"

const (
	FromName   = "Barangay Portal"
	maxRetires = 3

	MembershipDecisionTemplate   = "membership_decision.tmpl"
	VerificationDecisionTemplate = "verification_decision.tmpl"
	DocumentUpdateTemplate       = "document_update.tmpl"
	WelcomeTemplate              = "welcome.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
