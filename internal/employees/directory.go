package employees

import (
	"context"
	"errors"

	"github.com/gymops-erp/gymops/internal/authz"
)

// Directory adapts the employee repository to the authorization gate.
type Directory struct {
	repo Repository
}

// NewDirectory constructs a Directory.
func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// GetAccount returns the directory view of an employee, or nil when no
// such employee exists.
func (d *Directory) GetAccount(ctx context.Context, id int64) (*authz.Account, error) {
	emp, err := d.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &authz.Account{
		ID:          emp.ID,
		Email:       emp.Email,
		Name:        emp.Name,
		AccessLevel: emp.AccessLevel,
		Active:      emp.Active,
	}, nil
}
