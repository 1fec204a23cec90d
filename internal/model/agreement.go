package model

import "time"

type AgreementType string

const (
	AgreementTerms    AgreementType = "terms"
	AgreementPrivacy  AgreementType = "privacy"
	AgreementContract AgreementType = "contract"
)

func (t AgreementType) Valid() bool {
	switch t {
	case AgreementTerms, AgreementPrivacy, AgreementContract:
		return true
	}
	return false
}

type Agreement struct {
	ID           int64         `json:"id"`
	Agreement    string        `json:"agreement"`
	Type         AgreementType `json:"agreement_type"`
	ReleasedDate time.Time     `json:"released_date"`
	Version      string        `json:"version"`
	IsActive     bool          `json:"is_active"`
	ParentID     *int64        `json:"parent"`
}
