package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
)

var (
	ErrBuildingQuery = errors.New("error building sql-query")
)

//go:embed schema.sql
var schema string

// Migrate creates the tables and indexes used by the storages if they do not exist.
func Migrate(ctx context.Context, db trmpgx.Tr) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	return nil
}
