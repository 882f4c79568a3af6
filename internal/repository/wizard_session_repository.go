package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scolintra/exam-api/internal/wizard"
	appErrors "github.com/scolintra/exam-api/pkg/errors"
)

const wizardSessionKeyPrefix = "wizard:session:"

// WizardSessionRepository stores authoring sessions in Redis so an
// abandoned draft expires on its own instead of lingering forever.
type WizardSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewWizardSessionRepository constructs the session store.
func NewWizardSessionRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *WizardSessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardSessionRepository{client: client, ttl: ttl, logger: logger}
}

// Get loads a session by id. A missing key maps to ErrSessionExpired.
func (r *WizardSessionRepository) Get(ctx context.Context, id string) (*wizard.Session, error) {
	raw, err := r.client.Get(ctx, wizardSessionKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrSessionExpired
		}
		return nil, fmt.Errorf("redis get wizard session %s: %w", id, err)
	}
	var session wizard.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal wizard session %s: %w", id, err)
	}
	return &session, nil
}

// Put stores the session, refreshing its TTL.
func (r *WizardSessionRepository) Put(ctx context.Context, session *wizard.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal wizard session %s: %w", session.ID, err)
	}
	if err := r.client.Set(ctx, wizardSessionKeyPrefix+session.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set wizard session %s: %w", session.ID, err)
	}
	return nil
}

// Delete removes the session, used after a successful save or publish.
func (r *WizardSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, wizardSessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete wizard session %s: %w", id, err)
	}
	return nil
}
