// Package docmap is the composition root for persisting domain entities
// through a document representation.
//
// A domain entity is converted into a document by a Mapper, the document is
// saved through a generic document repository sitting on a Backend, and the
// document the backend returns is converted back into a domain entity:
//
//	caller → mapping repository → Mapper.ToDocument → document repository
//	       → Backend.Save → Mapper.ToDomain → caller
//
// Backends:
//
//   - **fs**: one file per document (JSON, YAML, or Markdown with frontmatter), atomic writes, fsnotify watching.
//   - **memory**: in-process map, useful for tests.
//   - **sqlite**: a single `documents` table (pure Go driver).
//   - **redis**: one key per document.
//
// Usage:
//
//	repo, err := docmap.OpenInvitationRepository("./data",
//		docmap.WithFormat(".yaml"),
//		docmap.WithLogger(logger),
//	)
//
//	saved, err := repo.Save(ctx, invitation.New("bobo"))
package docmap
