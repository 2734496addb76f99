package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Challenge is an emailed one-time code confirming a sign-up. Only the
// hash of the code is kept.
type Challenge struct {
	ID         string    `json:"id"`
	IdentityID uuid.UUID `json:"identity_id"`
	Email      string    `json:"email"`
	CodeHash   string    `json:"code_hash"`
	Attempts   int       `json:"attempts"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (c *Challenge) Matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(c.CodeHash), []byte(hashCode(code))) == 1
}

type ChallengeStore interface {
	Save(ctx context.Context, c *Challenge) error
	// Get returns (nil, nil) for unknown or expired challenges.
	Get(ctx context.Context, id string) (*Challenge, error)
	Delete(ctx context.Context, id string) error
}

// ChallengeNotifier delivers a verification code to its owner.
type ChallengeNotifier interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogNotifier writes codes to the log. Meant for development only.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendCode(_ context.Context, email, code string) error {
	n.log.Info("verification code issued", zap.String("email", email), zap.String("code", code))
	return nil
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

type RedisChallengeStore struct {
	client *redis.Client
	prefix string
}

func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client, prefix: "challenge:"}
}

func (s *RedisChallengeStore) Save(ctx context.Context, c *Challenge) error {
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return errors.New("challenge: expires_at must be in the future")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("challenge: marshal: %w", err)
	}
	return s.client.Set(ctx, s.prefix+c.ID, data, ttl).Err()
}

func (s *RedisChallengeStore) Get(ctx context.Context, id string) (*Challenge, error) {
	val, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("challenge: get: %w", err)
	}

	var c Challenge
	if err := json.Unmarshal(val, &c); err != nil {
		return nil, fmt.Errorf("challenge: unmarshal: %w", err)
	}
	return &c, nil
}

func (s *RedisChallengeStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.prefix+id).Err()
}
