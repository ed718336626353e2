package handler

import (
	"time"

	"marriage-registry/internal/certificate/models"
	"marriage-registry/pkg/certno"
)

type BooksResponse struct {
	Books []certno.Book `json:"books"`
}

type FormatResponse struct {
	CertificateNumber string `json:"certificate_number"`
}

type CertificateResponse struct {
	ID               string        `json:"id"`
	Number           certno.Number `json:"number"`
	CanonicalNumber  string        `json:"canonical_number"`
	PartyOne         string        `json:"party_one"`
	PartyTwo         string        `json:"party_two"`
	MarriageDate     string        `json:"marriage_date"`
	RegisteredAt     time.Time     `json:"registered_at"`
	Status           string        `json:"status"`
	RevokedAt        *time.Time    `json:"revoked_at,omitempty"`
	RevocationReason string        `json:"revocation_reason,omitempty"`
	IssuedBy         string        `json:"issued_by,omitempty"`
}

type ListResponse struct {
	Certificates []*CertificateResponse `json:"certificates"`
	Offset       int                    `json:"offset"`
	Limit        int                    `json:"limit"`
	Total        int                    `json:"total"`
}

func toCertificateResponse(c *models.Certificate) *CertificateResponse {
	return &CertificateResponse{
		ID:               c.ID.String(),
		Number:           c.Number,
		CanonicalNumber:  c.CanonicalNumber,
		PartyOne:         c.PartyOne,
		PartyTwo:         c.PartyTwo,
		MarriageDate:     c.MarriageDate.Format(models.DateLayout),
		RegisteredAt:     c.RegisteredAt,
		Status:           string(c.Status),
		RevokedAt:        c.RevokedAt,
		RevocationReason: c.RevocationReason,
		IssuedBy:         c.IssuedBy,
	}
}

func toListResponse(p *models.Page) *ListResponse {
	certs := make([]*CertificateResponse, 0, len(p.Certificates))
	for _, c := range p.Certificates {
		certs = append(certs, toCertificateResponse(c))
	}
	return &ListResponse{Certificates: certs, Offset: p.Offset, Limit: p.Limit, Total: p.Total}
}
