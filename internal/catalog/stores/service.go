package stores

import (
	"context"
	"errors"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Store, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Store, error) {
	if id <= 0 {
		return Store{}, errors.New("invalid store ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, store Store) (Store, error) {
	if err := s.validate(&store); err != nil {
		return Store{}, err
	}
	return s.repo.Create(ctx, store)
}

func (s *Service) Update(ctx context.Context, id int64, store Store) error {
	if id <= 0 {
		return errors.New("invalid store ID")
	}
	if err := s.validate(&store); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, store)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid store ID")
	}
	return s.repo.Delete(ctx, id)
}
