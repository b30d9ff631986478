package models

import (
	"time"
)

// UnknownSubject is used when the verifier discloses no stable subject id.
const UnknownSubject = "unknown"

// Attribute names the verifier may disclose. Each is optional and may be masked.
const (
	AttrName           = "name"
	AttrNationality    = "nationality"
	AttrDateOfBirth    = "dateOfBirth"
	AttrGender         = "gender"
	AttrPassportNumber = "passportNumber"
	AttrIssuingState   = "issuingState"
	AttrExpiryDate     = "expiryDate"
)

// KnownAttributes lists the disclosures copied into an IdentityRecord.
var KnownAttributes = []string{
	AttrName,
	AttrNationality,
	AttrDateOfBirth,
	AttrGender,
	AttrPassportNumber,
	AttrIssuingState,
	AttrExpiryDate,
}

// attributeAliases maps the disclosure field names requested by the challenge
// to their record attribute names.
var attributeAliases = map[string]string{
	"date_of_birth":   AttrDateOfBirth,
	"passport_number": AttrPassportNumber,
	"issuing_state":   AttrIssuingState,
	"expiry_date":     AttrExpiryDate,
}

// CanonicalAttribute returns the record attribute name for a disclosed field,
// accepting both the snake_case challenge names and the record names. The
// second result is false for fields outside KnownAttributes.
func CanonicalAttribute(field string) (string, bool) {
	if name, ok := attributeAliases[field]; ok {
		return name, true
	}
	for _, name := range KnownAttributes {
		if name == field {
			return name, true
		}
	}
	return "", false
}

// Assertions are the yes/no facts proven by the passport proof.
type Assertions struct {
	IsHuman       bool `json:"isHuman"`
	IsAdult       bool `json:"isAdult"`
	NotSanctioned bool `json:"notSanctioned"`
}

// IdentityRecord is one completed, server-confirmed verification. Records are
// built complete and never mutated; a new verification produces a new record.
type IdentityRecord struct {
	SessionID           string         `json:"sessionId"`
	SubjectID           string         `json:"subjectId"`
	DisclosedAttributes map[string]any `json:"disclosedAttributes"`
	Assertions          Assertions     `json:"assertions"`
	ProofReference      string         `json:"proofReference"`
	VerifiedAt          time.Time      `json:"verifiedAt"`
}

// Attribute returns a disclosed attribute as a string, or "" when absent.
func (r IdentityRecord) Attribute(name string) string {
	v, ok := r.DisclosedAttributes[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// FullyAsserted reports whether every assertion holds.
func (r IdentityRecord) FullyAsserted() bool {
	return r.Assertions.IsHuman && r.Assertions.IsAdult && r.Assertions.NotSanctioned
}

// SubmitProofRequest is the body posted by the out-of-band scanning app.
type SubmitProofRequest struct {
	Proof         any    `json:"proof"`
	PublicSignals []any  `json:"publicSignals"`
	UserID        string `json:"userId,omitempty"`
}

// SubmitProofResponse is always returned with HTTP 200.
type SubmitProofResponse struct {
	Status       string          `json:"status"`
	Result       bool            `json:"result"`
	Message      string          `json:"message"`
	PassportData *IdentityRecord `json:"passportData,omitempty"`
}

// FetchRecordResponse is returned by the record lookup endpoint.
type FetchRecordResponse struct {
	Status       string          `json:"status"`
	Message      string          `json:"message"`
	PassportData *IdentityRecord `json:"passportData,omitempty"`
	KnownKeys    []string        `json:"knownKeys,omitempty"`
}
