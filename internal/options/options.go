// Package options implements generic functional options shared by the configurable
// dxform components (registry, serializers, machine encoder).
package options

// Option configures a target of type T. A nil Option is skipped by Apply.
type Option[T any] func(T) error

// New wraps a fallible configuration function as an Option.
func New[T any](fn func(T) error) Option[T] {
	return Option[T](fn)
}

// NoError wraps a configuration function that cannot fail.
func NoError[T any](fn func(T)) Option[T] {
	return func(target T) error {
		fn(target)
		return nil
	}
}

// Apply applies opts to target in order and stops at the first error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(target); err != nil {
			return err
		}
	}

	return nil
}
