package bank

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// Customer owns an ordered collection of accounts. An account belongs to
// exactly one customer; the customer never reaches into another's accounts.
type Customer struct {
	mu       sync.RWMutex
	id       uuid.UUID
	name     string
	age      int
	address  string
	accounts []Account
}

// NewCustomer validates the identity fields and creates a customer with no
// accounts. A nil id is replaced with a random one.
func NewCustomer(req model.CreateCustomerRequest) (*Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Customer{
		id:      id,
		name:    req.Name,
		age:     req.Age,
		address: req.Address,
	}, nil
}

func (c *Customer) ID() uuid.UUID   { return c.id }
func (c *Customer) Name() string    { return c.name }
func (c *Customer) Age() int        { return c.age }
func (c *Customer) Address() string { return c.address }

// Equal compares customers by id only
func (c *Customer) Equal(other *Customer) bool {
	return other != nil && c.id == other.id
}

// AddAccount appends an account to the customer's collection. An account
// already owned by any customer, this one included, is rejected.
func (c *Customer) AddAccount(a Account) error {
	if a == nil || a.core() == nil {
		return model.ErrNilAccount
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, owned := range c.accounts {
		if owned.ID() == a.ID() {
			return fmt.Errorf("%w: account %d", model.ErrAccountOwned, a.ID())
		}
	}

	core := a.core()
	core.mu.Lock()
	defer core.mu.Unlock()
	if core.owner != nil {
		return fmt.Errorf("%w: account %d belongs to customer %s", model.ErrAccountOwned, a.ID(), core.owner.id)
	}
	core.owner = c
	c.accounts = append(c.accounts, a)
	return nil
}

// RemoveAccount removes the account with the same id and reports whether it was found
func (c *Customer) RemoveAccount(a Account) bool {
	if a == nil || a.core() == nil {
		return false
	}
	return c.removeAccountByID(a.ID())
}

func (c *Customer) removeAccountByID(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, owned := range c.accounts {
		if owned.ID() == id {
			c.accounts = append(c.accounts[:i:i], c.accounts[i+1:]...)
			core := owned.core()
			core.mu.Lock()
			core.owner = nil
			core.mu.Unlock()
			return true
		}
	}
	return false
}

// FindAccount looks up an owned account by id
func (c *Customer) FindAccount(id int64) (Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, owned := range c.accounts {
		if owned.ID() == id {
			return owned, nil
		}
	}
	return nil, model.ErrAccountNotFound
}

// TotalBalance sums the balances of every owned account
func (c *Customer) TotalBalance() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := decimal.Zero
	for _, owned := range c.accounts {
		total = total.Add(owned.Balance())
	}
	return total
}

// Accounts returns the owned accounts in the order they were added.
// The returned slice is a copy.
func (c *Customer) Accounts() []Account {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Account, len(c.accounts))
	copy(out, c.accounts)
	return out
}

func (c *Customer) snapshot() model.CustomerSnapshot {
	accounts := c.Accounts()
	snap := model.CustomerSnapshot{
		ID:       c.id,
		Name:     c.name,
		Age:      c.age,
		Address:  c.address,
		Accounts: make([]model.AccountSnapshot, 0, len(accounts)),
	}
	for _, a := range accounts {
		snap.Accounts = append(snap.Accounts, a.snapshot())
	}
	return snap
}
