package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/simonkvalheim/oop-ledger/internal/bank"
)

// WriteSummary writes one row per customer followed by a bank total row
func WriteSummary(w io.Writer, r bank.Report) error {
	writer := csv.NewWriter(w)

	header := []string{"customer_id", "name", "accounts", "total_balance"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	accounts := 0
	for _, c := range r.Customers {
		accounts += c.Accounts
		row := []string{
			c.CustomerID.String(),
			c.Name,
			strconv.Itoa(c.Accounts),
			c.TotalBalance.StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("error writing customer %s: %w", c.CustomerID, err)
		}
	}

	total := []string{"", "TOTAL " + r.BankName, strconv.Itoa(accounts), r.TotalBalance.StringFixed(2)}
	if err := writer.Write(total); err != nil {
		return fmt.Errorf("error writing total: %w", err)
	}

	writer.Flush()
	return writer.Error()
}
