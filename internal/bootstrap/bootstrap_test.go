package bootstrap

import (
	"strings"
	"testing"
)

func TestSchemaOrder(t *testing.T) {
	// Every table must be created after the tables it references.
	created := make(map[string]bool)
	for _, s := range schema {
		for _, ref := range []string{"customers", "accounts", "transaction_records"} {
			if strings.Contains(s.ddl, "REFERENCES "+ref) && !created[ref] {
				t.Errorf("%s references %s before it is created", s.table, ref)
			}
		}
		created[s.table] = true
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, s := range schema {
		if !strings.Contains(s.ddl, "IF NOT EXISTS") {
			t.Errorf("%s DDL is not idempotent", s.table)
		}
	}
}
