package media

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/devlopes006/gestao-clientes/internal/config"
	"github.com/devlopes006/gestao-clientes/internal/media/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("media.service",
	fx.Provide(newStorageClient, service.NewService),
)

// newStorageClient builds the S3 client for the configured
// S3-compatible endpoint. Returns nil when storage is not configured;
// the service reports uploads as disabled.
func newStorageClient(cfg config.Config, log *zap.Logger) s3iface.S3API {
	if cfg.StorageBucket == "" || cfg.StorageAccessKey == "" {
		log.Named("media").Info("object storage disabled")
		return nil
	}
	awsCfg := &aws.Config{
		Region:      aws.String(cfg.StorageRegion),
		Credentials: credentials.NewStaticCredentials(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
	}
	if cfg.StorageEndpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.StorageEndpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess := session.Must(session.NewSession(awsCfg))
	log.Named("media").Info("object storage enabled", zap.String("bucket", cfg.StorageBucket))
	return s3.New(sess)
}
