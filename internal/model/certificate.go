package model

import "time"

type Certificate struct {
	BaseModel
	Student           Ref       `json:"student"`
	Course            Ref       `json:"course"`
	Enrollment        Ref       `json:"enrollment"`
	CertificateNumber string    `json:"certificateNumber"`
	IssuedAt          time.Time `json:"issuedAt,omitempty"`
	DownloadURL       string    `json:"downloadUrl,omitempty"`
	PreviewURL        string    `json:"previewUrl,omitempty"`
}

type CertificateVerification struct {
	Valid       bool         `json:"valid"`
	Certificate *Certificate `json:"certificate,omitempty"`
}
