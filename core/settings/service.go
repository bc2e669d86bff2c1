package settings

import (
	"context"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/lunedance/lune/core"
	"github.com/lunedance/lune/core/calendar"
)

var ErrNotFound = core.NewNotFoundError("settings")

const cacheKey = "settings"

type (
	Repository interface {
		// GetSettings returns the singleton, or ErrNotFound before it is first created.
		GetSettings(ctx context.Context) (Settings, error)
		CreateSettings(ctx context.Context, s Settings) (Settings, error)
		UpdateSettings(ctx context.Context, s Settings) (Settings, error)
	}

	Service struct {
		repo  Repository
		cache *cache.Cache
		now   calendar.Clock
	}
)

func NewService(repo Repository, conf *core.Config, now calendar.Clock) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(conf.SettingsCacheTTL, 2*conf.SettingsCacheTTL),
		now:   now,
	}
}

// Get returns the settings, creating them with their default values on first use.
func (svc *Service) Get(ctx context.Context) (Settings, error) {
	if s, found := svc.cache.Get(cacheKey); found {
		return s.(Settings), nil
	}

	s, err := svc.repo.GetSettings(ctx)
	if errors.Cause(err) == ErrNotFound {
		now := svc.now()
		s = defaults()
		s.ID, s.CreatedAt, s.UpdatedAt = core.NewID(), now, now
		s, err = svc.repo.CreateSettings(ctx, s)
	}
	if err != nil {
		return Settings{}, err
	}
	svc.cache.SetDefault(cacheKey, s)
	return s, nil
}

func (svc *Service) Update(ctx context.Context, us UpdateSettings) (Settings, error) {
	s, err := svc.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	if us.TrialClassPrice != nil {
		s.TrialClassPrice = *us.TrialClassPrice
	}
	if us.TeacherCommissionPerEnrollment != nil {
		s.TeacherCommissionPerEnrollment = *us.TeacherCommissionPerEnrollment
	}
	if us.TeacherCommissionPerTrialClass != nil {
		s.TeacherCommissionPerTrialClass = *us.TeacherCommissionPerTrialClass
	}
	s.UpdatedAt = svc.now()

	s, err = svc.repo.UpdateSettings(ctx, s)
	svc.cache.Delete(cacheKey)
	return s, err
}
