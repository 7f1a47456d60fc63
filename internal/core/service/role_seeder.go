package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

// RoleSeeder makes sure the role catalogue exists before traffic is accepted.
type RoleSeeder struct {
	roles ports.RoleRepository
	clock ports.Clock
	log   zerolog.Logger
}

func NewRoleSeeder(roles ports.RoleRepository, clock ports.Clock, log zerolog.Logger) *RoleSeeder {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &RoleSeeder{roles: roles, clock: clock, log: log}
}

// EnsureRoles creates every name that is missing. It is idempotent and safe
// to run from several processes at once: a concurrent insert that loses the
// unique-name race is treated as success. Any other failure is returned and
// must stop startup.
func (s *RoleSeeder) EnsureRoles(ctx context.Context, names []string) error {
	for _, name := range names {
		exists, err := s.roles.Exists(ctx, name)
		if err != nil {
			return fmt.Errorf("seed role %q: %w", name, err)
		}
		if exists {
			continue
		}

		err = s.roles.Create(ctx, &domain.Role{
			ID:        uuid.NewString(),
			Name:      name,
			CreatedAt: s.clock.Now(),
		})
		if errors.Is(err, domain.ErrRoleExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed role %q: %w", name, err)
		}
		s.log.Info().Str("role", name).Msg("role created")
	}
	return nil
}
