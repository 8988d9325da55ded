package store

import (
	"context"
	"fmt"

	"github.com/gyeh/owedbook/internal/model"
	embedsql "github.com/gyeh/owedbook/internal/sql"
)

// Profile returns the pharmacy profile, creating the empty singleton row on
// first access.
func (s *Store) Profile(ctx context.Context) (model.PharmacyProfile, error) {
	if _, err := s.pool.Exec(ctx, embedsql.EnsureProfile); err != nil {
		return model.PharmacyProfile{}, fmt.Errorf("ensure profile: %w", err)
	}
	var p model.PharmacyProfile
	err := s.pool.QueryRow(ctx, embedsql.SelectProfile).Scan(
		&p.Name, &p.Address, &p.Phone, &p.Fax, &p.Email, &p.NCPDP, &p.NPI, &p.ContactPerson)
	if err != nil {
		return model.PharmacyProfile{}, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

// SetProfile replaces every profile field.
func (s *Store) SetProfile(ctx context.Context, p model.PharmacyProfile) error {
	_, err := s.pool.Exec(ctx, embedsql.UpsertProfile,
		p.Name, p.Address, p.Phone, p.Fax, p.Email, p.NCPDP, p.NPI, p.ContactPerson)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
