package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/bwmarrin/snowflake"
	authdomain "github.com/devlopes006/gestao-clientes/internal/auth/domain"
	"github.com/devlopes006/gestao-clientes/internal/clock"
	"github.com/devlopes006/gestao-clientes/internal/config"
	mediadomain "github.com/devlopes006/gestao-clientes/internal/media/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Config  config.Config
	Storage s3iface.S3API `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	storage s3iface.S3API
	bucket  string
	signTTL time.Duration
}

func NewService(p Params) mediadomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("media.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		storage: p.Storage,
		bucket:  p.Config.StorageBucket,
		signTTL: p.Config.StorageSignTTL,
	}
}

func (s *Service) Upload(ctx context.Context, auth authdomain.AuthContext, req mediadomain.UploadRequest) (mediadomain.Media, error) {
	if auth.OrgID == 0 {
		return mediadomain.Media{}, mediadomain.ErrInvalidOrganization
	}
	if s.storage == nil {
		return mediadomain.Media{}, mediadomain.ErrStorageDisabled
	}
	name := strings.TrimSpace(req.FileName)
	if name == "" || len(req.Data) == 0 {
		return mediadomain.Media{}, mediadomain.ErrInvalidFile
	}

	id := s.genID.Generate()
	key := fmt.Sprintf("%s/%s%s", auth.OrgID, id, path.Ext(name))
	_, err := s.storage.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(req.Data),
		ContentLength: aws.Int64(int64(len(req.Data))),
		ContentType:   aws.String(req.ContentType),
	})
	if err != nil {
		return mediadomain.Media{}, fmt.Errorf("upload to storage: %w", err)
	}

	row := mediadomain.Media{
		ID:          id,
		OrgID:       auth.OrgID,
		ClientID:    req.ClientID,
		Key:         key,
		FileName:    name,
		ContentType: req.ContentType,
		Size:        int64(len(req.Data)),
		CreatedBy:   auth.UserID,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		// Metadata insert failed; drop the orphan object.
		_, _ = s.storage.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return mediadomain.Media{}, err
	}
	return row, nil
}

func (s *Service) List(ctx context.Context, auth authdomain.AuthContext, clientID *snowflake.ID) ([]mediadomain.Media, error) {
	if auth.OrgID == 0 {
		return nil, mediadomain.ErrInvalidOrganization
	}
	query := s.db.WithContext(ctx).Where("org_id = ?", auth.OrgID)
	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}
	var rows []mediadomain.Media
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (s *Service) PresignedURL(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (string, error) {
	if s.storage == nil {
		return "", mediadomain.ErrStorageDisabled
	}
	row, err := s.get(ctx, auth, id)
	if err != nil {
		return "", err
	}
	req, _ := s.storage.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(row.Key),
	})
	url, err := req.Presign(s.signTTL)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return url, nil
}

func (s *Service) Delete(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) error {
	row, err := s.get(ctx, auth, id)
	if err != nil {
		return err
	}
	if s.storage != nil {
		_, err := s.storage.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(row.Key),
		})
		if err != nil {
			s.log.Warn("storage delete failed", zap.String("key", row.Key), zap.Error(err))
		}
	}
	return s.db.WithContext(ctx).Delete(&row).Error
}

func (s *Service) get(ctx context.Context, auth authdomain.AuthContext, id snowflake.ID) (mediadomain.Media, error) {
	if auth.OrgID == 0 {
		return mediadomain.Media{}, mediadomain.ErrInvalidOrganization
	}
	var row mediadomain.Media
	err := s.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, auth.OrgID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return mediadomain.Media{}, mediadomain.ErrMediaNotFound
		}
		return mediadomain.Media{}, err
	}
	return row, nil
}
