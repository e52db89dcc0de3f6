package generator

import (
	"github.com/google/uuid"
)

// Generator is an interface that defines a method to generate a new value of type T.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV7Generator produces time-ordered UUIDv7 strings, so rows keyed by them
// sort roughly by creation time.
type UUIDV7Generator struct{}

func (g *UUIDV7Generator) Next() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = &UUIDV7Generator{}

// Func adapts a plain function to a Generator.
type Func[T any] func() (T, error)

func (f Func[T]) Next() (T, error) {
	return f()
}
