package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/oop-ledger/internal/bank"
	"github.com/simonkvalheim/oop-ledger/internal/model"
	"github.com/simonkvalheim/oop-ledger/internal/processor"
	"github.com/simonkvalheim/oop-ledger/internal/report"
)

// session is what a command runs against
type session struct {
	proc *processor.Processor
	cfg  Config
	out  io.Writer
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, s *session, args []string) error
}

// errUsage marks a command line that could not be used
var errUsage = errors.New("usage error")

var commands = []command{
	{"add-customer", "-name NAME -age N [-address ADDR] [-id UUID]", addCustomer},
	{"remove-customer", "-customer UUID", removeCustomer},
	{"open-savings", "-customer UUID [-opening AMT] [-rate R] [-minimum AMT]", openSavings},
	{"open-checking", "-customer UUID [-opening AMT] [-overdraft AMT] [-fee AMT]", openChecking},
	{"close-account", "-customer UUID -account ID", closeAccount},
	{"deposit", "-customer UUID -account ID -amount AMT", deposit},
	{"withdraw", "-customer UUID -account ID -amount AMT", withdraw},
	{"transfer", "-from-customer UUID -from ID -to-customer UUID -to ID -amount AMT", transfer},
	{"freeze", "-customer UUID -account ID", freeze},
	{"unfreeze", "-customer UUID -account ID", unfreeze},
	{"month-end", "", monthEnd},
	{"report", "", summary},
	{"statement", "-account ID [-save]", statement},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: bankctl <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-16s %s\n", c.name, c.usage)
	}
}

// moneyValue is a flag.Value holding a decimal amount
type moneyValue struct{ d *decimal.Decimal }

func (m moneyValue) String() string {
	if m.d == nil {
		return ""
	}
	return m.d.String()
}

func (m moneyValue) Set(s string) error {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q", s)
	}
	*m.d = v
	return nil
}

// uuidValue is a flag.Value holding a customer id
type uuidValue struct{ id *uuid.UUID }

func (u uuidValue) String() string {
	if u.id == nil {
		return ""
	}
	return u.id.String()
}

func (u uuidValue) Set(s string) error {
	v, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid customer id %q", s)
	}
	*u.id = v
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// accountFlags registers the -customer and -account pair most commands share
func accountFlags(fs *flag.FlagSet) (*uuid.UUID, *int64) {
	customerID := new(uuid.UUID)
	fs.Var(uuidValue{customerID}, "customer", "owning customer id")
	accountID := fs.Int64("account", 0, "account id")
	return customerID, accountID
}

func requireFlags(fs *flag.FlagSet, names ...string) error {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, n := range names {
		if !set[n] {
			return fmt.Errorf("%w: %s: -%s is required", errUsage, fs.Name(), n)
		}
	}
	return nil
}

// printRecords reports what an operation booked
func (s *session) printRecords(result *processor.ProcessResult) {
	for _, rec := range result.Records {
		fmt.Fprintf(s.out, "booked %d: account %d %s %s, balance %s\n",
			rec.ID, rec.AccountID, rec.Kind, rec.Amount.StringFixed(2), rec.BalanceAfter.StringFixed(2))
	}
}

func addCustomer(ctx context.Context, s *session, args []string) error {
	fs := newFlagSet("add-customer")
	var id uuid.UUID
	fs.Var(uuidValue{&id}, "id", "customer id (random when omitted)")
	name := fs.String("name", "", "full name")
	age := fs.Int("age", 0, "age in years")
	address := fs.String("address", "", "postal address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var c *bank.Customer
	_, err := s.proc.Execute(ctx, "add customer", func(b *bank.Bank) error {
		var err error
		c, err = b.RegisterCustomer(model.CreateCustomerRequest{
			ID:      id,
			Name:    *name,
			Age:     *age,
			Address: *address,
		})
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "customer %s\n", c.ID())
	return nil
}

func removeCustomer(ctx context.Context, s *session, args []string) error {
	fs := newFlagSet("remove-customer")
	var id uuid.UUID
	fs.Var(uuidValue{&id}, "customer", "customer id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "customer"); err != nil {
		return err
	}

	_, err := s.proc.Execute(ctx, "remove customer", func(b *bank.Bank) error {
		if !b.RemoveCustomer(id) {
			return fmt.Errorf("%w: %s", model.ErrCustomerNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "removed customer %s\n", id)
	return nil
}

func openSavings(ctx context.Context, s *session, args []string) error {
	fs := newFlagSet("open-savings")
	var customerID uuid.UUID
	fs.Var(uuidValue{&customerID}, "customer", "owning customer id")
	terms := bank.SavingsTerms{MinimumBalance: bank.DefaultMinimumBalance}
	fs.Var(moneyValue{&terms.OpeningBalance}, "opening", "opening balance")
	fs.Var(moneyValue{&terms.InterestRate}, "rate", "interest rate per accrual, e.g. 0.03")
	fs.Var(moneyValue{&terms.MinimumBalance}, "minimum", "minimum balance")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "customer"); err != nil {
		return err
	}

	return s.open(ctx, "open savings account", func(b *bank.Bank) (bank.Account, error) {
		return b.OpenSavings(customerID, terms)
	})
}

func openChecking(ctx context.Context, s *session, args []string) error {
	fs := newFlagSet("open-checking")
	var customerID uuid.UUID
	fs.Var(uuidValue{&customerID}, "customer", "owning customer id")
	terms := bank.CheckingTerms{MonthlyFee: bank.DefaultMonthlyFee}
	fs.Var(moneyValue{&terms.OpeningBalance}, "opening", "opening balance")
	fs.Var(moneyValue{&terms.OverdraftLimit}, "overdraft", "overdraft limit")
	fs.Var(moneyValue{&terms.MonthlyFee}, "fee", "monthly fee")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "customer"); err != nil {
		return err
	}

	return s.open(ctx, "open checking account", func(b *bank.Bank) (bank.Account, error) {
		return b.OpenChecking(customerID, terms)
	})
}

func (s *session) open(ctx context.Context, name string, fn func(b *bank.Bank) (bank.Account, error)) error {
	var opened bank.Account
	result, err := s.proc.Execute(ctx, name, func(b *bank.Bank) error {
		a, err := fn(b)
		opened = a
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "account %d\n", opened.ID())
	s.printRecords(result)
	return nil
}

func closeAccount(ctx context.Context, s *session, args []string) error {
	fs := newFlagSet("close-account")
	customerID, accountID := accountFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "customer", "account"); err != nil {
		return err
	}

	_, err := s.proc.Execute(ctx, "close account", func(b *bank.Bank) error {
		return b.CloseAccount(*customerID, *accountID)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "closed account %d\n", *accountID)
	return nil
}

func deposit(ctx context.Context, s *session, args []string) error {
	return movement(ctx, s, "deposit", args, (*bank.Bank).Deposit)
}

func withdraw(ctx context.Context, s *session, args []string) error {
	return movement(ctx, s, "withdraw", args, (*bank.Bank).Withdraw)
}

func movement(ctx context.Context, s *session, name string, args []string, op func(b *bank.Bank, customerID uuid.UUID, accountID int64, amount decimal.Decimal) error) error {
	fs := newFlagSet(name)
	customerID, accountID := accountFlags(fs)
	var amount decimal.Decimal
	fs.Var(moneyValue{&amount}, "amount", "amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "customer", "account", "amount"); err != nil {
		return err
	}

	result, err := s.proc.Execute(ctx, name, func(b *bank.Bank) error {
		return op(b, *customerID, *accountID, amount)
	})
	if err != nil {
		return err
	}

	s.printRecords(result)
	return nil
}

func transfer(ctx context.Context, s *session, args []string) error {
	fs := newFlagSet("transfer")
	var req model.TransferRequest
	fs.Var(uuidValue{&req.FromCustomerID}, "from-customer", "source customer id")
	fs.Int64Var(&req.FromAccountID, "from", 0, "source account id")
	fs.Var(uuidValue{&req.ToCustomerID}, "to-customer", "destination customer id")
	fs.Int64Var(&req.ToAccountID, "to", 0, "destination account id")
	fs.Var(moneyValue{&req.Amount}, "amount", "amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "from-customer", "from", "to-customer", "to", "amount"); err != nil {
		return err
	}

	result, err := s.proc.Execute(ctx, "transfer", func(b *bank.Bank) error {
		return b.ExecuteTransfer(req)
	})
	if err != nil {
		return err
	}

	s.printRecords(result)
	return nil
}

func freeze(ctx context.Context, s *session, args []string) error {
	return toggleFreeze(ctx, s, "freeze", args, (*bank.Bank).Freeze)
}

func unfreeze(ctx context.Context, s *session, args []string) error {
	return toggleFreeze(ctx, s, "unfreeze", args, (*bank.Bank).Unfreeze)
}

func toggleFreeze(ctx context.Context, s *session, name string, args []string, op func(b *bank.Bank, customerID uuid.UUID, accountID int64) error) error {
	fs := newFlagSet(name)
	customerID, accountID := accountFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "customer", "account"); err != nil {
		return err
	}

	_, err := s.proc.Execute(ctx, name, func(b *bank.Bank) error {
		return op(b, *customerID, *accountID)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "%s account %d: ok\n", name, *accountID)
	return nil
}

func monthEnd(ctx context.Context, s *session, args []string) error {
	if err := newFlagSet("month-end").Parse(args); err != nil {
		return err
	}

	result, err := s.proc.MonthEnd(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "interest credited %s\nfees charged %s\n",
		result.InterestCredited.StringFixed(2), result.FeesCharged.StringFixed(2))
	s.printRecords(result.ProcessResult)
	return nil
}

func summary(_ context.Context, s *session, args []string) error {
	if err := newFlagSet("report").Parse(args); err != nil {
		return err
	}
	return report.WriteSummary(s.out, s.proc.Bank().Report())
}

func statement(_ context.Context, s *session, args []string) error {
	fs := newFlagSet("statement")
	accountID := fs.Int64("account", 0, "account id")
	save := fs.Bool("save", false, "write to STATEMENT_DIR instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "account"); err != nil {
		return err
	}

	_, a, err := s.proc.Bank().FindAccount(*accountID)
	if err != nil {
		return err
	}

	if !*save {
		return report.WriteStatement(s.out, a.History())
	}

	if err := os.MkdirAll(s.cfg.StatementDir, 0o755); err != nil {
		return fmt.Errorf("failed to create statement directory: %w", err)
	}
	path := filepath.Join(s.cfg.StatementDir, fmt.Sprintf("statement-%d.csv", *accountID))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create statement: %w", err)
	}
	if err := report.WriteStatement(file, a.History()); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write statement: %w", err)
	}

	fmt.Fprintf(s.out, "wrote %s\n", path)
	return nil
}
