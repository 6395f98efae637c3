package service

import (
	"context"

	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/model"
)

// UserService reads and updates the signed-in user's profile.
type UserService struct {
	*base
}

// Me returns the signed-in user.
func (s *UserService) Me(ctx context.Context) (model.User, error) {
	return cache.Fetch(ctx, s.cache, cache.UserMe, s.staleTime,
		func(ctx context.Context) (model.User, error) {
			u, err := s.api.GetCurrentUser(ctx)
			if err != nil {
				return model.User{}, err
			}
			return *u, nil
		})
}

// Cached returns the cached user without fetching.
func (s *UserService) Cached() (model.User, bool) {
	return cache.Get[model.User](s.cache, cache.UserMe)
}

// UpdateProfile changes the user's name or avatar.
func (s *UserService) UpdateProfile(ctx context.Context, req model.UpdateUserRequest) (model.User, error) {
	if err := s.validate(req); err != nil {
		return model.User{}, err
	}

	return run(ctx, s.base, mutation[model.User]{
		name:     "updating profile",
		cancel:   []cache.Key{cache.UserMe},
		snapshot: []cache.Key{cache.UserMe},
		optimistic: func() {
			cache.Update(s.cache, cache.UserMe, func(u model.User) model.User {
				if req.Name != nil {
					name := *req.Name
					u.Name = &name
				}
				if req.AvatarURL != nil {
					url := *req.AvatarURL
					u.AvatarURL = &url
				}
				return u
			})
		},
		call: func(ctx context.Context) (model.User, error) {
			u, err := s.api.UpdateCurrentUser(ctx, req)
			if err != nil {
				return model.User{}, err
			}
			return *u, nil
		},
		success: func(u model.User) {
			s.cache.Set(cache.UserMe, u)
		},
	})
}
