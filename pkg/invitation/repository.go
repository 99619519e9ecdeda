package invitation

import (
	"context"

	"github.com/aretw0/docmap/pkg/core"
	"github.com/aretw0/docmap/pkg/mapping"
)

// Repository saves invitations.
type Repository interface {
	Save(ctx context.Context, inv Invitation) (Invitation, error)
}

// NewRepository wires Mapper and docs into a mapping repository.
func NewRepository(docs core.DocumentRepository[Document], opts ...mapping.Option) Repository {
	return mapping.New[Invitation, Document](docs, Mapper{}, opts...)
}

var (
	_ Repository                                   = (*mapping.Repository[Invitation, Document])(nil)
	_ core.MappingRepository[Invitation, Document] = Repository(nil)
)
