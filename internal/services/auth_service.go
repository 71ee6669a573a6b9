package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"ghost-backend/internal/core"
	"ghost-backend/internal/repository"
	"ghost-backend/internal/types"
)

// AuthService manages the authorization state: the owner, the two
// independent allow-lists and the privileged root submitter. All
// mutations are owner-gated inside the core; this layer adds
// persistence.
type AuthService struct {
	engine *core.Engine
	repo   repository.PrincipalRepository
	logger *logrus.Logger
}

// NewAuthService creates an auth service. repo may be nil.
func NewAuthService(engine *core.Engine, repo repository.PrincipalRepository, logger *logrus.Logger) *AuthService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthService{engine: engine, repo: repo, logger: logger}
}

// Grant adds principal to role's allow-list (or sets the submitter).
func (s *AuthService) Grant(ctx context.Context, caller types.Address, role core.Role, principal types.Address) error {
	if err := s.engine.Grant(caller, role, principal); err != nil {
		return err
	}
	if s.repo != nil {
		if role == core.RoleSubmitter {
			// Single-holder role: clear the previous grant first.
			if err := s.repo.DeleteRole(ctx, string(role)); err != nil {
				s.logger.WithError(err).Error("failed to clear submitter role")
			}
		}
		if err := s.repo.Upsert(ctx, principal.Hex(), string(role)); err != nil {
			s.logger.WithError(err).Error("failed to journal principal grant")
		}
	}
	s.logger.WithFields(logrus.Fields{
		"caller":    caller.Hex(),
		"role":      string(role),
		"principal": principal.Hex(),
	}).Info("role granted")
	return nil
}

// Revoke removes principal from role's allow-list.
func (s *AuthService) Revoke(ctx context.Context, caller types.Address, role core.Role, principal types.Address) error {
	if err := s.engine.Revoke(caller, role, principal); err != nil {
		return err
	}
	if s.repo != nil {
		if err := s.repo.Delete(ctx, principal.Hex(), string(role)); err != nil {
			s.logger.WithError(err).Error("failed to journal principal revoke")
		}
	}
	s.logger.WithFields(logrus.Fields{
		"caller":    caller.Hex(),
		"role":      string(role),
		"principal": principal.Hex(),
	}).Info("role revoked")
	return nil
}

// TransferOwnership hands the owner role to newOwner.
func (s *AuthService) TransferOwnership(ctx context.Context, caller, newOwner types.Address) error {
	if err := s.engine.TransferOwnership(caller, newOwner); err != nil {
		return err
	}
	if s.repo != nil {
		if err := s.repo.DeleteRole(ctx, string(core.RoleOwner)); err != nil {
			s.logger.WithError(err).Error("failed to clear owner role")
		}
		if err := s.repo.Upsert(ctx, newOwner.Hex(), string(core.RoleOwner)); err != nil {
			s.logger.WithError(err).Error("failed to journal new owner")
		}
	}
	s.logger.WithFields(logrus.Fields{
		"previous_owner": caller.Hex(),
		"new_owner":      newOwner.Hex(),
	}).Warn("ownership transferred")
	return nil
}

// Owner returns the owner principal.
func (s *AuthService) Owner() types.Address {
	return s.engine.Owner()
}

// Members returns the role's principals.
func (s *AuthService) Members(role core.Role) []types.Address {
	return s.engine.Members(role)
}
