package application

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/manorfm/identity-server/internal/domain"
	"go.uber.org/zap"
)

const fakeSaltLength = 32

// SaltService hands out password salts. Unknown usernames receive a salt
// derived from a server secret, stable across calls, so a caller cannot tell
// which usernames exist.
type SaltService struct {
	entities domain.EntityRepository
	secret   []byte
	logger   *zap.Logger
}

var _ domain.SaltService = (*SaltService)(nil)

func NewSaltService(entities domain.EntityRepository, secret string, logger *zap.Logger) *SaltService {
	return &SaltService{
		entities: entities,
		secret:   []byte(secret),
		logger:   logger,
	}
}

func (s *SaltService) Salt(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", domain.ErrInvalidField
	}

	entity, err := s.entities.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrEntityNotFound) {
			return s.fakeSalt(username), nil
		}
		return "", fmt.Errorf("error finding entity: %w", err)
	}
	return entity.PasswordSalt, nil
}

func (s *SaltService) fakeSalt(username string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(username))
	return hex.EncodeToString(mac.Sum(nil))[:fakeSaltLength]
}
