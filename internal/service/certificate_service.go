package service

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"lms_client/internal/apiclient"
	"lms_client/internal/model"
	"lms_client/pkg/logger"

	"go.uber.org/zap"
)

type CertificateService struct {
	API   *apiclient.Client
	Saver ArtifactSaver
}

func NewCertificateService(api *apiclient.Client, saver ArtifactSaver) *CertificateService {
	return &CertificateService{API: api, Saver: saver}
}

func (s *CertificateService) Mine(ctx context.Context) ([]model.Certificate, error) {
	var certs []model.Certificate
	if err := getKeyed(ctx, s.API, "/certificates/my-certificates", "certificates", &certs); err != nil {
		return nil, err
	}
	if certs == nil {
		certs = []model.Certificate{}
	}
	return certs, nil
}

func (s *CertificateService) Generate(ctx context.Context, enrollmentID string) (*model.Certificate, error) {
	var c model.Certificate
	path := "/certificates/generate/" + url.PathEscape(enrollmentID)
	if err := sendKeyed(ctx, s.API, http.MethodPost, path, nil, "certificate", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CertificateService) Verify(ctx context.Context, number string) (*model.CertificateVerification, error) {
	var v model.CertificateVerification
	if err := s.API.Get(ctx, "/certificates/verify/"+url.PathEscape(number), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Download 把证书文件流式写入 Saver，返回保存位置
func (s *CertificateService) Download(ctx context.Context, id string) (string, error) {
	resp, err := s.API.Download(ctx, "/certificates/download/"+url.PathEscape(id))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	name := attachmentName(resp.Header.Get("Content-Disposition"), id)

	location, err := s.Saver.Save(ctx, name, resp.Body, resp.ContentLength, contentType)
	if err != nil {
		return "", fmt.Errorf("save certificate: %w", err)
	}
	logger.Log.Info("certificate saved", zap.String("id", id), zap.String("location", location))
	return location, nil
}

func attachmentName(disposition, id string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return name
			}
		}
	}
	return "certificate-" + id + ".pdf"
}
