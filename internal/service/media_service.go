package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/whatsapp-crm/internal/persistence"
	"github.com/spec-kit/whatsapp-crm/internal/repository"
	apperrors "github.com/spec-kit/whatsapp-crm/pkg/util"
)

// MediaService mints short-lived download URLs for stored message media.
// Presigned URLs are cached in Redis for a bit less than their validity so
// repeated inbox renders do not hammer the object store.
type MediaService struct {
	store    *persistence.ObjectStore
	messages repository.MessageRepository
	redis    *persistence.Redis
	logger   *zap.Logger
}

// NewMediaService builds the service.
func NewMediaService(store *persistence.ObjectStore, messages repository.MessageRepository, redis *persistence.Redis, logger *zap.Logger) *MediaService {
	return &MediaService{store: store, messages: messages, redis: redis, logger: logger}
}

// MediaURL resolves a message's storage reference to a presigned URL.
func (s *MediaService) MediaURL(ctx context.Context, tenantID, messageID string) (string, error) {
	if s.store == nil {
		return "", apperrors.NewDomainError("STORAGE_DISABLED", "media storage not configured", 503, nil)
	}

	msg, err := s.messages.GetByID(ctx, tenantID, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewNotFound("message", map[string]any{"id": messageID})
		}
		return "", err
	}
	if msg.MediaRef == nil || *msg.MediaRef == "" {
		return "", apperrors.NewNotFound("media", map[string]any{"message_id": messageID})
	}

	cacheKey := "media:url:" + messageID
	if s.redis != nil && s.redis.Client != nil {
		if cached, err := s.redis.Client.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			return cached, nil
		}
	}

	signed, expiry, err := s.store.PresignURL(ctx, *msg.MediaRef)
	if err != nil {
		return "", err
	}

	if s.redis != nil && s.redis.Client != nil {
		ttl := expiry - 30*time.Second
		if ttl > 0 {
			if err := s.redis.Client.Set(ctx, cacheKey, signed, ttl).Err(); err != nil {
				s.logger.Warn("media url cache write failed", zap.Error(err))
			}
		}
	}
	return signed, nil
}
