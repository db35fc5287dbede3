package surreal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/entity-scanner/internal/graph"
)

// errDuplicate marks a write rejected by the unique_relation index.
var errDuplicate = errors.New("relation already exists")

// throwNodeMissing is the message thrown by the edge query when an endpoint is absent.
const throwNodeMissing = "node missing"

// wrapQueryError maps known SurrealDB query errors to sentinels.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		switch {
		case strings.Contains(msg, "already exists"), strings.Contains(msg, "already contains"):
			return fmt.Errorf("%w: %s", errDuplicate, msg)
		case strings.Contains(msg, throwNodeMissing):
			return fmt.Errorf("%w: %s", graph.ErrNodeMissing, msg)
		}
	}
	return err
}
