package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType classifies an uploaded supporting document.
type DocumentType string

const (
	DocAirworthiness       DocumentType = "airworthiness_certificate"
	DocRegistration        DocumentType = "registration_certificate"
	DocOperatorCertificate DocumentType = "operator_certificate"
	DocInsurance           DocumentType = "insurance_certificate"
	DocOther               DocumentType = "other"
)

// RequiredDocumentTypes must all be attached before submission and all be
// verified before payment can be requested.
var RequiredDocumentTypes = []DocumentType{
	DocAirworthiness,
	DocRegistration,
	DocOperatorCertificate,
	DocInsurance,
}

// DocumentStatus is the per-document verification state.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
)

// Document is an attachment owned by its application. The core stores only
// the blob-storage URL and metadata, never file bytes.
type Document struct {
	ID              uuid.UUID
	Type            DocumentType
	URL             string
	ExpiryDate      *time.Time
	Status          DocumentStatus
	UploadedAt      time.Time
	VerifiedBy      string
	VerifiedAt      *time.Time
	RejectionReason string
}
