package cms

import (
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func cmpIgnoreTimes() cmp.Option {
	return cmpopts.IgnoreFields(models.Meta{}, "CreatedAt", "UpdatedAt")
}
