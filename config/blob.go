package config

import (
	"errors"
	"fmt"
	"slices"
)

type BlobType string

const (
	BlobTypeHTTP BlobType = "http"
	BlobTypeS3   BlobType = "s3"
)

type BlobConfig struct {
	Type           BlobType `yaml:"type" json:"type" default:"http"`
	UploadEndpoint string   `yaml:"upload_endpoint" json:"upload_endpoint" envconfig:"UPLOAD_ENDPOINT"`
	DownloadURL    string   `yaml:"download_url" json:"download_url" envconfig:"DOWNLOAD_URL"`
	Timeout        int64    `yaml:"timeout" json:"timeout" default:"10"`
	S3             S3Config `yaml:"s3" json:"s3"`
}

type S3Config struct {
	Bucket          string   `yaml:"bucket" json:"bucket"`
	Region          string   `yaml:"region" json:"region" default:"us-east-1"`
	Endpoint        string   `yaml:"endpoint" json:"endpoint"`
	AccessKeyID     string   `yaml:"access_key_id" json:"access_key_id" envconfig:"ACCESS_KEY_ID"`
	SecretAccessKey Password `yaml:"secret_access_key" json:"secret_access_key" envconfig:"SECRET_ACCESS_KEY"`
	ForcePathStyle  bool     `yaml:"force_path_style" json:"force_path_style" envconfig:"FORCE_PATH_STYLE"`
	URLExpiry       int64    `yaml:"url_expiry" json:"url_expiry" default:"3600" envconfig:"URL_EXPIRY"`
}

func (cfg BlobConfig) Validate() error {
	if !slices.Contains([]BlobType{BlobTypeHTTP, BlobTypeS3}, cfg.Type) {
		return fmt.Errorf("unknown type: %s", cfg.Type)
	}
	if cfg.Timeout < 0 {
		return errors.New("timeout cannot be negative value")
	}
	if cfg.Type == BlobTypeS3 && cfg.S3.Bucket == "" {
		return errors.New("s3.bucket is required")
	}
	return nil
}
