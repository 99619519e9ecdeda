package core

// Mapper converts between one domain type and one document type.
// ToDocument is total and pure; ToDomain fails only with a
// MalformedIdentifierError.
type Mapper[D AggregateRoot, Doc DocumentRoot] interface {
	ToDocument(domain D) Doc
	ToDomain(doc Doc) (D, error)
}

// MapperFuncs adapts a pair of plain functions to the Mapper interface.
type MapperFuncs[D AggregateRoot, Doc DocumentRoot] struct {
	ToDocumentFunc func(D) Doc
	ToDomainFunc   func(Doc) (D, error)
}

func (m MapperFuncs[D, Doc]) ToDocument(domain D) Doc {
	return m.ToDocumentFunc(domain)
}

func (m MapperFuncs[D, Doc]) ToDomain(doc Doc) (D, error) {
	return m.ToDomainFunc(doc)
}
