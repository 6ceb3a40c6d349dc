package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx. Vote and
// acceptance bookkeeping touch several rows per action, so those repository
// methods accept a DBTX and the service decides the transaction boundary.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// jsonbStrings marshals a string slice for a jsonb column. nil becomes [].
func jsonbStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}

func scanJSONStrings(raw []byte, dest *[]string) error {
	if len(raw) == 0 {
		*dest = []string{}
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode jsonb string array: %w", err)
	}
	if *dest == nil {
		*dest = []string{}
	}
	return nil
}
