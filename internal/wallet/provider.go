package wallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// AccountsHandler receives the full account list each time it changes.
// An empty list means the wallet disconnected.
type AccountsHandler func(accounts []common.Address)

// Provider is the wallet boundary: account access, signing and
// account-change notifications.
type Provider interface {
	// RequestAccounts asks the user for account access. The active account
	// comes first. A declined request returns ErrUserRejected.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// Accounts returns the accounts already granted, without prompting.
	Accounts() []common.Address

	// SignTx signs tx for account after user approval.
	SignTx(ctx context.Context, account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)

	// Subscribe registers handler for account changes and returns its
	// unsubscribe func. Unsubscribing twice is harmless.
	Subscribe(handler AccountsHandler) (unsubscribe func())
}

// Switcher is implemented by providers that let the user change the
// active account or lock the wallet, which emits an empty account list.
type Switcher interface {
	Select(ctx context.Context, index int) error
	Lock()
}

// subscribers fans account changes out to registered handlers.
type subscribers struct {
	mu       sync.Mutex
	next     int
	handlers map[int]AccountsHandler
}

func (s *subscribers) add(h AccountsHandler) func() {
	s.mu.Lock()
	if s.handlers == nil {
		s.handlers = make(map[int]AccountsHandler)
	}
	id := s.next
	s.next++
	s.handlers[id] = h
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// emit calls every handler outside the lock so handlers may unsubscribe.
func (s *subscribers) emit(accounts []common.Address) {
	s.mu.Lock()
	handlers := make([]AccountsHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(append([]common.Address(nil), accounts...))
	}
}

// activeFirst returns addrs rotated so addrs[active] leads.
func activeFirst(addrs []common.Address, active int) []common.Address {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]common.Address, 0, len(addrs))
	out = append(out, addrs[active])
	for i, a := range addrs {
		if i != active {
			out = append(out, a)
		}
	}
	return out
}
