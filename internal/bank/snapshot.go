package bank

import (
	"fmt"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// Restore rebuilds a bank from a snapshot. Every account must satisfy the
// balance/history invariant and account ids must be unique across the bank.
// A generator that can observe ids is moved past every id in the snapshot.
func Restore(snap model.BankSnapshot, opts ...Option) (*Bank, error) {
	b := New(snap.Name, opts...)

	seenCustomers := make(map[string]struct{}, len(snap.Customers))
	seenAccounts := make(map[int64]struct{})
	var maxID int64

	for _, cs := range snap.Customers {
		c, err := NewCustomer(model.CreateCustomerRequest{
			ID:      cs.ID,
			Name:    cs.Name,
			Age:     cs.Age,
			Address: cs.Address,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: customer %s: %w", model.ErrCorruptSnapshot, cs.ID, err)
		}
		if _, dup := seenCustomers[cs.ID.String()]; dup {
			return nil, fmt.Errorf("%w: customer %s appears twice", model.ErrCorruptSnapshot, cs.ID)
		}
		seenCustomers[cs.ID.String()] = struct{}{}

		for _, as := range cs.Accounts {
			if _, dup := seenAccounts[as.ID]; dup {
				return nil, fmt.Errorf("%w: account %d appears twice", model.ErrCorruptSnapshot, as.ID)
			}
			seenAccounts[as.ID] = struct{}{}

			a, err := restoreAccount(as, b)
			if err != nil {
				return nil, err
			}
			if err := c.AddAccount(a); err != nil {
				return nil, fmt.Errorf("%w: account %d: %w", model.ErrCorruptSnapshot, as.ID, err)
			}

			maxID = max(maxID, as.ID)
			for _, rec := range as.History {
				maxID = max(maxID, rec.ID)
			}
		}
		b.customers = append(b.customers, c)
	}

	if o, ok := b.ids.(observer); ok {
		o.Observe(maxID)
	}
	return b, nil
}

func restoreAccount(snap model.AccountSnapshot, b *Bank) (Account, error) {
	switch snap.Type {
	case model.AccountTypeSavings:
		return restoreSavings(snap, b.ids, b.now)
	case model.AccountTypeChecking:
		return restoreChecking(snap, b.ids, b.now)
	default:
		return nil, fmt.Errorf("%w: account %d has type %q", model.ErrCorruptSnapshot, snap.ID, snap.Type)
	}
}
