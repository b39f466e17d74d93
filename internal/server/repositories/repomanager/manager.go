// Package repomanager owns the repositories the services work with, so the
// process state is created once and injected rather than kept in globals.
package repomanager

import (
	"github.com/dmitrijs2005/stallpass/internal/server/repositories/users"
	"github.com/dmitrijs2005/stallpass/internal/server/repositories/visittokens"
)

type RepositoryManager interface {
	Users() users.Repository
	VisitTokens() visittokens.Repository
}

// InMemoryRepositoryManager vends process-resident repositories. Nothing
// survives a restart.
type InMemoryRepositoryManager struct {
	users       *users.InMemoryRepository
	visitTokens *visittokens.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:       users.NewInMemoryRepository(),
		visitTokens: visittokens.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) VisitTokens() visittokens.Repository {
	return m.visitTokens
}
