// Package redis stores vacancies as JSON documents in Redis
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/morikuni/failure/v2"
	"github.com/redis/go-redis/v9"

	"github.com/honeycarbs/vacancy-crawler/internal/config"
	"github.com/honeycarbs/vacancy-crawler/internal/domain"
	"github.com/honeycarbs/vacancy-crawler/pkg/logging"
)

// RequiredKeys must be present in the RedisOutput config section
var RequiredKeys = []string{"ADDR"}

const defaultKeyPrefix = "vacancy"

type Settings struct {
	Addr      string `mapstructure:"addr" validate:"required,hostname_port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"min=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func LoadSettings(sec config.Section) (Settings, error) {
	if err := sec.Require(RequiredKeys...); err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := sec.Decode(&s); err != nil {
		return Settings{}, err
	}

	if s.KeyPrefix == "" {
		s.KeyPrefix = defaultKeyPrefix
	}
	return s, nil
}

// Sink writes each vacancy once under <prefix>:<source>:<id>. A content key
// <prefix>:content:<sha256> remembers which identity first stored a given
// name and description, so the same posting under another id is skipped.
type Sink struct {
	settings Settings
	logger   *logging.Logger

	client *redis.Client
}

func New(settings Settings, logger *logging.Logger) *Sink {
	if logger == nil {
		logger = logging.NewNop()
	}
	if settings.KeyPrefix == "" {
		settings.KeyPrefix = defaultKeyPrefix
	}

	return &Sink{
		settings: settings,
		logger:   logger.Named("redis_output"),
	}
}

func (s *Sink) Name() string {
	return "RedisOutput"
}

func (s *Sink) Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     s.settings.Addr,
		Password: s.settings.Password,
		DB:       s.settings.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
			failure.Message(fmt.Sprintf("Cannot connect to Redis at %s", s.settings.Addr)),
		)
	}

	s.client = client
	return nil
}

func (s *Sink) Save(ctx context.Context, vacancies []domain.Vacancy) error {
	if s.client == nil {
		return failure.New(domain.ErrPersistence, failure.Message("Redis is not connected"))
	}

	added := 0
	for _, v := range vacancies {
		ok, err := s.store(ctx, v)
		if err != nil {
			return failure.Wrap(err, failure.WithCode(domain.ErrPersistence),
				failure.Context{"source": v.Source, "id_source": v.SourceID},
			)
		}
		if ok {
			added++
		}
	}

	s.logger.Info("vacancies stored", "count", added, "skipped", len(vacancies)-added)
	return nil
}

// storeScript writes a document only when its identity key is new and its
// content key is free or already owned by it. KEYS[1] is the identity key,
// KEYS[2] the content key, ARGV[1] the document.
var storeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
local owner = redis.call('GET', KEYS[2])
if owner and owner ~= KEYS[1] then
	return 0
end
redis.call('SET', KEYS[2], KEYS[1])
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

func (s *Sink) store(ctx context.Context, v domain.Vacancy) (bool, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return false, err
	}

	n, err := storeScript.Run(ctx, s.client, []string{s.IdentityKey(v), s.ContentKey(v)}, doc).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Sink) Disconnect(context.Context) error {
	if s.client == nil {
		return nil
	}

	err := s.client.Close()
	s.client = nil
	return err
}

// IdentityKey is where v is stored
func (s *Sink) IdentityKey(v domain.Vacancy) string {
	return fmt.Sprintf("%s:%s:%s", s.settings.KeyPrefix, v.Source, v.SourceID)
}

// ContentKey guards against storing the same posting twice
func (s *Sink) ContentKey(v domain.Vacancy) string {
	h := sha256.New()
	h.Write([]byte(v.Name))
	h.Write([]byte{0})
	h.Write([]byte(v.Description))
	return fmt.Sprintf("%s:content:%s", s.settings.KeyPrefix, hex.EncodeToString(h.Sum(nil)))
}
