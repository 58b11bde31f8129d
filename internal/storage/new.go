package storage

import (
	"context"

	"github.com/cleanco/platform/internal/config"
)

// New builds the configured storage Gateway. "cdn" wraps an S3 origin;
// any other backend combination is a config error caught at startup
// rather than on first use.
func New(ctx context.Context, cfg *config.StorageConfig) (Gateway, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalGateway(cfg.Local.RootDir, cfg.Local.SigningKey, cfg.Local.ProxyBaseURL), nil
	case "s3":
		return NewS3Gateway(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Endpoint)
	case "cdn":
		origin, err := NewS3Gateway(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Endpoint)
		if err != nil {
			return nil, err
		}
		return NewCDNGateway(origin, cfg.CDN.BaseURL, cfg.CDN.SigningKey), nil
	default:
		return nil, unsupportedBackend(cfg.Backend)
	}
}
