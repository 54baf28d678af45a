package casbin

import (
	"database/sql"
	"fmt"

	sqladapter "github.com/Blank-Xu/sql-adapter"
)

// DefaultTableName is the table the sql adapter keeps casbin rules in.
const DefaultTableName = "casbin_rule"

// NewSQLAdapter stores the policy next to the discussion data. dbType selects the adapter's SQL dialect, not the
// driver the connection was opened with.
func NewSQLAdapter(sqlDB *sql.DB, dbType, tableName string) (*sqladapter.Adapter, error) {
	adapter, err := sqladapter.NewAdapter(sqlDB, dbType, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to casbin database: %w", err)
	}

	return adapter, nil
}
