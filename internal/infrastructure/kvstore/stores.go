package kvstore

import (
	"time"

	"github.com/manorfm/identity-server/internal/domain"
)

const (
	codePrefix        = "code:"
	transactionPrefix = "txn:"
)

var (
	_ domain.CodeStore        = (*Store[domain.AuthorizationCode])(nil)
	_ domain.TransactionStore = (*Store[domain.AuthorizationTransaction])(nil)
)

// NewCodeStore holds authorization codes for ttl
func NewCodeStore(backend Backend, keyPrefix string, ttl time.Duration) *Store[domain.AuthorizationCode] {
	return New[domain.AuthorizationCode](backend, keyPrefix+codePrefix, ttl)
}

// NewTransactionStore holds pending consent transactions for ttl
func NewTransactionStore(backend Backend, keyPrefix string, ttl time.Duration) *Store[domain.AuthorizationTransaction] {
	return New[domain.AuthorizationTransaction](backend, keyPrefix+transactionPrefix, ttl)
}
