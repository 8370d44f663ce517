// Package review holds the status machines shared by every reviewable
// request: membership, verification and document requests.
package review

import (
	"errors"
	"fmt"
)

var (
	ErrNotFoundOrProcessed = errors.New("request not found or already processed")
	ErrAlreadyRequested    = errors.New("you already have a request for this barangay")
	ErrPendingVerification = errors.New("you already have a pending verification request")
	ErrReasonRequired      = errors.New("Rejection reason is required")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// Status is the lifecycle of membership and verification requests.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal statuses never change again.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Active requests block a new request for the same target.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("review: unknown status %q", s)
	}
	return st, nil
}

// CanTransition allows only pending -> approved and pending -> rejected.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.Terminal()
}

// DocumentStatus is the lifecycle of a document request.
type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "pending"
	DocumentApproved  DocumentStatus = "approved"
	DocumentDenied    DocumentStatus = "denied"
	DocumentCompleted DocumentStatus = "completed"
)

var documentTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentPending:  {DocumentApproved, DocumentDenied},
	DocumentApproved: {DocumentCompleted},
}

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentPending, DocumentApproved, DocumentDenied, DocumentCompleted:
		return true
	}
	return false
}

func (s DocumentStatus) Terminal() bool {
	return s == DocumentDenied || s == DocumentCompleted
}

func ParseDocumentStatus(s string) (DocumentStatus, error) {
	st := DocumentStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("review: unknown document status %q", s)
	}
	return st, nil
}

// CanTransitionDocument reports whether a document request may move from one
// status to the other. Transitions never go backwards.
func CanTransitionDocument(from, to DocumentStatus) bool {
	for _, next := range documentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DocumentSource returns the only status a document request may be in
// before entering to.
func DocumentSource(to DocumentStatus) (DocumentStatus, error) {
	for from, nexts := range documentTransitions {
		for _, n := range nexts {
			if n == to {
				return from, nil
			}
		}
	}
	return "", fmt.Errorf("%w: nothing transitions to %q", ErrInvalidTransition, to)
}
