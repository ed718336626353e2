package handler

import (
	"strings"
	"time"

	"marriage-registry/internal/certificate/models"
	"marriage-registry/pkg/certno"
	dErrors "marriage-registry/pkg/domain-errors"
	"marriage-registry/pkg/validation"
)

// HTTP request DTOs. Number fields keep the camelCase names the portal's
// certificate form already posts.

type NumberRequest struct {
	Book         string `json:"bookNumber" validate:"omitempty,roman"`
	Volume       string `json:"volumeNumber" validate:"omitempty,max=32,segment"`
	VolumeLetter string `json:"volumeLetter" validate:"omitempty,max=8,alpha"`
	VolumeYear   string `json:"volumeYear" validate:"omitempty,year4"`
	Serial       string `json:"serialNumber" validate:"omitempty,max=32,segment"`
	SerialYear   string `json:"serialYear" validate:"omitempty,year4"`
	Page         string `json:"pageNumber" validate:"omitempty,max=32,segment"`
}

func (r *NumberRequest) normalize() {
	r.Book = strings.ToUpper(strings.TrimSpace(r.Book))
	r.Volume = strings.TrimSpace(r.Volume)
	r.VolumeLetter = strings.TrimSpace(r.VolumeLetter)
	r.VolumeYear = strings.TrimSpace(r.VolumeYear)
	r.Serial = strings.TrimSpace(r.Serial)
	r.SerialYear = strings.TrimSpace(r.SerialYear)
	r.Page = strings.TrimSpace(r.Page)
}

func (r *NumberRequest) toNumber() certno.Number {
	return certno.Number{
		Book:         r.Book,
		Volume:       r.Volume,
		VolumeLetter: r.VolumeLetter,
		VolumeYear:   r.VolumeYear,
		Serial:       r.Serial,
		SerialYear:   r.SerialYear,
		Page:         r.Page,
	}
}

// ParseRequest carries a raw number in either written form. It is not
// trimmed here; decoding handles surrounding whitespace.
type ParseRequest struct {
	CertificateNumber string `json:"certificate_number" validate:"max=128"`
}

func (r *ParseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

type FormatRequest struct {
	Number NumberRequest `json:"number"`
}

func (r *FormatRequest) Normalize() {
	if r == nil {
		return
	}
	r.Number.normalize()
}

func (r *FormatRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

type VerifyRequest struct {
	CertificateNumber string `json:"certificate_number" validate:"required,notblank,max=128"`
}

func (r *VerifyRequest) Normalize() {
	if r == nil {
		return
	}
	r.CertificateNumber = strings.TrimSpace(r.CertificateNumber)
}

func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

type IssueRequest struct {
	Number       NumberRequest `json:"number"`
	PartyOne     string        `json:"party_one" validate:"required,notblank,max=200"`
	PartyTwo     string        `json:"party_two" validate:"required,notblank,max=200"`
	MarriageDate string        `json:"marriage_date" validate:"required,datetime=2006-01-02"`
}

func (r *IssueRequest) Normalize() {
	if r == nil {
		return
	}
	r.Number.normalize()
	r.PartyOne = strings.TrimSpace(r.PartyOne)
	r.PartyTwo = strings.TrimSpace(r.PartyTwo)
	r.MarriageDate = strings.TrimSpace(r.MarriageDate)
}

// Validate checks field formats. Book presence and the rules that span fields
// are enforced by the service.
func (r *IssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *IssueRequest) toCommand() (models.IssueCommand, error) {
	marriageDate, err := time.Parse(models.DateLayout, r.MarriageDate)
	if err != nil {
		return models.IssueCommand{}, dErrors.New(dErrors.CodeValidation, "marriage_date must be a YYYY-MM-DD date")
	}
	return models.IssueCommand{
		Number:       r.Number.toNumber(),
		PartyOne:     r.PartyOne,
		PartyTwo:     r.PartyTwo,
		MarriageDate: marriageDate,
	}, nil
}

type RevokeRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=500"`
}

func (r *RevokeRequest) Normalize() {
	if r == nil {
		return
	}
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RevokeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}
