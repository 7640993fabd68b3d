package record

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mickamy/ormrecord/orm"
)

var (
	// ErrNotFound is returned by FindOne when no row matches.
	ErrNotFound = orm.ErrNotFound

	// ErrUnknownRelationship is returned when a with-request or a lazy read
	// names a relationship the model never declared.
	ErrUnknownRelationship = errors.New("record: unknown relationship")

	// ErrUnknownFilter is returned when Filter names an unregistered filter.
	ErrUnknownFilter = errors.New("record: unknown filter")

	// ErrUnknownModel is returned when a model name was never defined.
	ErrUnknownModel = errors.New("record: unknown model")

	// ErrNotThrough is returned by pivot operations on relations that are
	// not many-through.
	ErrNotThrough = errors.New("record: relationship is not many-through")
)

// RelationError reports a failure to resolve a named relationship.
type RelationError struct {
	Model    string
	Relation string
	Err      error
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("record: relationship %q on %s: %v", e.Relation, e.Model, e.Err)
}

func (e *RelationError) Unwrap() error { return e.Err }
