package invitation

import (
	"github.com/google/uuid"

	"github.com/aretw0/docmap/pkg/core"
)

// Mapper converts between Invitation and Document. It is stateless.
type Mapper struct{}

// ToDocument never fails.
func (Mapper) ToDocument(inv Invitation) Document {
	return Document{ID: inv.ID.String(), Name: inv.Name}
}

// ToDomain fails with a *core.MalformedIdentifierError when the stored ID is
// not a valid UUID.
func (Mapper) ToDomain(doc Document) (Invitation, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return Invitation{}, &core.MalformedIdentifierError{Field: "id", Value: doc.ID, Err: err}
	}
	return Invitation{ID: id, Name: doc.Name}, nil
}

var _ core.Mapper[Invitation, Document] = Mapper{}
