package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/itchan-dev/threads/shared/domain"
	"github.com/itchan-dev/threads/shared/errors"
	"github.com/itchan-dev/threads/shared/logger"
)

// DirectoryService manages the users and communities threads point to.
type DirectoryService interface {
	CreateUser(ctx context.Context, data domain.UserCreationData) (domain.UserId, error)
	GetUser(ctx context.Context, id domain.UserId) (domain.User, error)
	CreateCommunity(ctx context.Context, data domain.CommunityCreationData) (domain.CommunityId, error)
	GetCommunity(ctx context.Context, externalId domain.ExternalId) (domain.Community, error)
}

type Directory struct {
	storage DirectoryStorage
}

// DirectoryStorage returns a Conflict error when an external id is taken.
type DirectoryStorage interface {
	CreateUser(ctx context.Context, data domain.UserCreationData) (domain.User, error)
	GetUser(ctx context.Context, id domain.UserId) (domain.User, error)
	CreateCommunity(ctx context.Context, data domain.CommunityCreationData) (domain.Community, error)
	GetCommunityByExternalId(ctx context.Context, externalId domain.ExternalId) (domain.Community, error)
}

func NewDirectory(storage DirectoryStorage) DirectoryService {
	return &Directory{storage: storage}
}

func (d *Directory) CreateUser(ctx context.Context, data domain.UserCreationData) (domain.UserId, error) {
	data.ExternalId = strings.TrimSpace(data.ExternalId)
	if data.ExternalId == "" {
		return "", errors.BadRequest("external id is required")
	}
	user, err := d.storage.CreateUser(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	logger.Log.Info("user created", "user_id", user.Id, "external_id", user.ExternalId)
	return user.Id, nil
}

func (d *Directory) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	user, err := d.storage.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

func (d *Directory) CreateCommunity(ctx context.Context, data domain.CommunityCreationData) (domain.CommunityId, error) {
	data.ExternalId = strings.TrimSpace(data.ExternalId)
	if data.ExternalId == "" {
		return "", errors.BadRequest("external id is required")
	}
	if data.CreatedBy != nil {
		if _, err := d.storage.GetUser(ctx, *data.CreatedBy); err != nil {
			return "", fmt.Errorf("failed to create community: %w", err)
		}
	}
	community, err := d.storage.CreateCommunity(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to create community: %w", err)
	}
	logger.Log.Info("community created", "community_id", community.Id, "external_id", community.ExternalId)
	return community.Id, nil
}

func (d *Directory) GetCommunity(ctx context.Context, externalId domain.ExternalId) (domain.Community, error) {
	community, err := d.storage.GetCommunityByExternalId(ctx, externalId)
	if err != nil {
		return domain.Community{}, fmt.Errorf("failed to fetch community: %w", err)
	}
	return community, nil
}
