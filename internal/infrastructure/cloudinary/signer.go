package cloudinary

import (
	"fmt"
	"net/url"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
)

// Config holds Cloudinary credentials for signed uploads.
type Config struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadFolder string
}

// UploadSigner produces signed parameters that let the client upload
// item images directly to Cloudinary.
type UploadSigner struct {
	cfg Config
}

func NewUploadSigner(cfg Config) *UploadSigner {
	return &UploadSigner{cfg: cfg}
}

// UploadParams is what the client needs to perform a signed upload.
type UploadParams struct {
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder,omitempty"`
}

// SignUpload signs the upload request parameters with the API secret.
func (s *UploadSigner) SignUpload() (*UploadParams, error) {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	params := url.Values{}
	params.Set("timestamp", timestamp)
	if s.cfg.UploadFolder != "" {
		params.Set("folder", s.cfg.UploadFolder)
	}

	signature, err := api.SignParameters(params, s.cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("sign upload params: %w", err)
	}

	return &UploadParams{
		Timestamp: timestamp,
		Signature: signature,
		APIKey:    s.cfg.APIKey,
		CloudName: s.cfg.CloudName,
		Folder:    s.cfg.UploadFolder,
	}, nil
}

// Enabled reports whether credentials are configured.
func (s *UploadSigner) Enabled() bool {
	return s.cfg.CloudName != "" && s.cfg.APIKey != "" && s.cfg.APISecret != ""
}
