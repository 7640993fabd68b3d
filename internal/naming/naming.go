package naming

import (
	"sort"
	"strings"
	"sync"

	"github.com/gertd/go-pluralize"
	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
)

// CamelToSnake converts a CamelCase string to snake_case.
// Consecutive uppercase letters (acronyms) are kept together:
// "ID" → "id", "UserID" → "user_id", "CarTyre" → "car_tyre".
func CamelToSnake(s string) string {
	return strcase.ToSnake(s)
}

var tableNames = struct {
	mu     sync.RWMutex
	single map[string]string
	plural map[string]string
}{
	single: make(map[string]string),
	plural: make(map[string]string),
}

// TableName derives a table name from a model name: "CarTyre" → "car_tyre",
// or "car_tyres" when plural is set. Results are cached process-wide.
func TableName(model string, plural bool) string {
	cache := tableNames.single
	if plural {
		cache = tableNames.plural
	}

	tableNames.mu.RLock()
	name, ok := cache[model]
	tableNames.mu.RUnlock()
	if ok {
		return name
	}

	name = CamelToSnake(model)
	if plural {
		name = inflection.Plural(name)
	}

	tableNames.mu.Lock()
	cache[model] = name
	tableNames.mu.Unlock()
	return name
}

var singular = pluralize.NewClient()

// ForeignKey returns the conventional foreign key column that points at table:
// "car" → "car_id". With plural set the table name is singularised first,
// "car_tyres" → "car_tyre_id".
func ForeignKey(table string, plural bool) string {
	if plural {
		table = singular.Singular(table)
	}
	return table + "_id"
}

// JoinModel returns the default name of the model joining a and b:
// the two names sorted and concatenated ("Part", "Car" → "CarPart").
func JoinModel(a, b string) string {
	names := []string{a, b}
	sort.Strings(names)
	return strings.Join(names, "")
}
