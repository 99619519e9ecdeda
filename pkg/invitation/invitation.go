// Package invitation binds the generic mapping repository to the Invitation
// entity pair. Consumers depend on Repository alone and never see the mapper
// or the document repository.
package invitation

import (
	"fmt"

	"github.com/google/uuid"
)

// Invitation is the domain entity.
type Invitation struct {
	ID   uuid.UUID
	Name string
}

func (i Invitation) String() string {
	return fmt.Sprintf("Invitation - Name: '%s' - Id: '%s'", i.Name, i.ID)
}

// Document is the persistence shape of an Invitation. The identity is the
// canonical text form of the UUID.
type Document struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// DocumentID implements core.DocumentRoot.
func (d Document) DocumentID() string {
	return d.ID
}

func (d Document) String() string {
	return fmt.Sprintf("InvitationDocument - Name: '%s' - Id: '%s'", d.Name, d.ID)
}

// New returns an invitation with a freshly generated random ID.
func New(name string) Invitation {
	return Invitation{ID: uuid.New(), Name: name}
}
