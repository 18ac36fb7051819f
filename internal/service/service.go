// Package service implements the application operations: linking accounts,
// syncing results from the scoring API and computing standings. Handlers
// call into here; all storage goes through the repository interfaces and
// all network traffic through a ScoreClient.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ctc-wpm/monkeyboard/internal/model"
	"github.com/ctc-wpm/monkeyboard/internal/monkeytype"
	"github.com/ctc-wpm/monkeyboard/internal/repository"
)

// ScoreClient is the upstream API surface the service depends on. The
// monkeytype.Client satisfies it; tests substitute a fake.
type ScoreClient interface {
	ValidateKey(ctx context.Context) error
	LastResult(ctx context.Context) (*model.Result, error)
	Profile(ctx context.Context, uid string) (*model.Profile, error)
	Tags(ctx context.Context) ([]model.TagWithBests, error)
	Results(ctx context.Context, sinceMs int64, offset int) ([]model.Result, error)
}

// ClientFactory builds a ScoreClient bound to one ApeKey. It fails without
// touching the network when the key is malformed.
type ClientFactory func(apeKey string) (ScoreClient, error)

// DefaultClientFactory wires the real API client.
func DefaultClientFactory(opts ...monkeytype.Option) ClientFactory {
	return func(apeKey string) (ScoreClient, error) {
		return monkeytype.New(apeKey, opts...)
	}
}

// defaultMaxPages bounds a single account sync. At 1000 results per page
// this is far beyond what a human types in a month; it exists so a buggy
// upstream cursor cannot loop forever.
const defaultMaxPages = 100

type Config struct {
	Accounts  repository.AccountRepository
	Tags      repository.TagRepository
	Results   repository.ResultRepository
	NewClient ClientFactory
	Logger    *slog.Logger

	// MaintainerDiscordID may hold one privileged Discord id allowed to link
	// more than one account (for operating test fixtures). Empty disables
	// the bypass.
	MaintainerDiscordID string

	// MaxPagesPerSync caps result pages fetched in one account sync.
	// Zero means defaultMaxPages.
	MaxPagesPerSync int

	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

type Service struct {
	accounts     repository.AccountRepository
	tags         repository.TagRepository
	results      repository.ResultRepository
	newClient    ClientFactory
	logger       *slog.Logger
	maintainerID string
	maxPages     int
	now          func() time.Time

	mu        sync.Mutex
	syncLocks map[string]*sync.Mutex
}

func New(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.NewClient == nil {
		cfg.NewClient = DefaultClientFactory()
	}
	if cfg.MaxPagesPerSync <= 0 {
		cfg.MaxPagesPerSync = defaultMaxPages
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		accounts:     cfg.Accounts,
		tags:         cfg.Tags,
		results:      cfg.Results,
		newClient:    cfg.NewClient,
		logger:       cfg.Logger,
		maintainerID: cfg.MaintainerDiscordID,
		maxPages:     cfg.MaxPagesPerSync,
		now:          cfg.Now,
		syncLocks:    make(map[string]*sync.Mutex),
	}
}

// syncLock returns the per-account mutex, creating it on first use. Serial
// syncs per account keep the floor calculation race-free while different
// accounts still sync in parallel.
func (s *Service) syncLock(uid string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.syncLocks[uid]
	if !ok {
		lock = &sync.Mutex{}
		s.syncLocks[uid] = lock
	}
	return lock
}
