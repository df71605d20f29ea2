package account

import (
	"context"

	"github.com/orgball2608/crosspost/internal/domain"
	apperrors "github.com/orgball2608/crosspost/pkg/errors"
)

var ErrNotFound = apperrors.WrapWithCode(apperrors.ErrNotFound, apperrors.CodeNotFound, "account not found")

//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=mocks/mock.go

// Directory is the read side of the social account store. Accounts are owned
// by the account-management service; the engine only resolves them.
type Directory interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	// GetAccounts returns the accounts found among ids, keyed by id.
	GetAccounts(ctx context.Context, ids []string) (map[string]domain.Account, error)
}
