package notifications

import (
	"fmt"
	"strconv"
	"strings"

	"barangay/internal/mailer"
)

// Recipient identifies who an event goes to.
type Recipient struct {
	UserID int64
	Email  string
	Name   string
}

func MembershipDecision(to Recipient, requestID int64, municipality, status, reason string) Event {
	body := fmt.Sprintf("Your request to join %s was %s.", municipality, status)
	if reason != "" {
		body += " Reason: " + reason
	}
	return Event{
		UserID:   to.UserID,
		Email:    to.Email,
		Name:     to.Name,
		Template: mailer.MembershipDecisionTemplate,
		Data: map[string]any{
			"Username":         to.Name,
			"MunicipalityName": municipality,
			"Status":           status,
			"Reason":           reason,
		},
		Title: "Barangay membership " + status,
		Body:  body,
		PushData: map[string]string{
			"type":      "membership_request",
			"requestId": strconv.FormatInt(requestID, 10),
			"status":    status,
			"screen":    "join-barangay",
		},
	}
}

func VerificationDecision(to Recipient, requestID int64, municipality, status, reason string) Event {
	body := fmt.Sprintf("Your official verification for %s was %s.", municipality, status)
	if reason != "" {
		body += " Reason: " + reason
	}
	return Event{
		UserID:   to.UserID,
		Email:    to.Email,
		Name:     to.Name,
		Template: mailer.VerificationDecisionTemplate,
		Data: map[string]any{
			"Username":         to.Name,
			"MunicipalityName": municipality,
			"Status":           status,
			"Reason":           reason,
		},
		Title: "Official verification " + status,
		Body:  body,
		PushData: map[string]string{
			"type":      "verification_request",
			"requestId": strconv.FormatInt(requestID, 10),
			"status":    status,
			"screen":    "request-verification",
		},
	}
}

func DocumentUpdate(to Recipient, reference, documentType, status, remarks string) Event {
	label := strings.ReplaceAll(documentType, "_", " ")
	return Event{
		UserID:   to.UserID,
		Email:    to.Email,
		Name:     to.Name,
		Template: mailer.DocumentUpdateTemplate,
		Data: map[string]any{
			"Username":     to.Name,
			"Reference":    reference,
			"DocumentType": label,
			"Status":       status,
			"Remarks":      remarks,
		},
		Title: "Document request " + status,
		Body:  fmt.Sprintf("Your %s request %s is now %s.", label, reference, status),
		PushData: map[string]string{
			"type":      "document_request",
			"reference": reference,
			"status":    status,
			"screen":    "my-requests",
		},
	}
}

func Welcome(to Recipient) Event {
	return Event{
		UserID:   to.UserID,
		Email:    to.Email,
		Name:     to.Name,
		Template: mailer.WelcomeTemplate,
		Data:     map[string]any{"Username": to.Name},
	}
}
