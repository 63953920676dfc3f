package mongo

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
)

// Translate maps driver errors onto the apperr sentinels. uniqueFields lists
// the fields carrying a unique index on the collection.
func Translate(err error, kind string, uniqueFields ...string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(kind)
	}
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		for _, f := range uniqueFields {
			if strings.Contains(msg, f+"_1") {
				return apperr.Conflict(kind, f)
			}
		}
		return apperr.Conflict(kind, "key")
	}
	return err
}
