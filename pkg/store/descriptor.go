package store

// Getter is invoked when a chain-found accessor property is read. The
// receiver is the node the read was performed on behalf of, which may differ
// from the node owning the descriptor. Getters must not call back into the
// store; they run under the store lock.
type Getter func(receiver *Node) (any, error)

// Setter is invoked when a chain-found accessor property is written.
// The same receiver and re-entrancy rules as Getter apply.
type Setter func(receiver *Node, value any) error

// Descriptor is the metadata governing one property's behavior. It is a
// closed sum: a descriptor is either a DataDescriptor or an
// AccessorDescriptor, never both. Converting between kinds requires
// redefinition via DefineOwn, not mutation of the existing descriptor.
type Descriptor interface {
	IsEnumerable() bool
	IsConfigurable() bool
	sealed()
}

// DataDescriptor holds a concrete value plus its attribute flags.
type DataDescriptor struct {
	Value        any
	Writable     bool
	Enumerable   bool
	Configurable bool
}

func (d DataDescriptor) IsEnumerable() bool   { return d.Enumerable }
func (d DataDescriptor) IsConfigurable() bool { return d.Configurable }
func (d DataDescriptor) sealed()              {}

// AccessorDescriptor holds a getter/setter pair. Either may be nil: a nil
// getter reads as nil, a nil setter rejects writes.
type AccessorDescriptor struct {
	Get          Getter
	Set          Setter
	Enumerable   bool
	Configurable bool
}

func (d AccessorDescriptor) IsEnumerable() bool   { return d.Enumerable }
func (d AccessorDescriptor) IsConfigurable() bool { return d.Configurable }
func (d AccessorDescriptor) sealed()              {}

// DefaultDataDescriptor wraps a value with regular assignment semantics:
// writable, enumerable, configurable. These are the flags a shadow-write
// installs on the receiver.
func DefaultDataDescriptor(value any) DataDescriptor {
	return DataDescriptor{Value: value, Writable: true, Enumerable: true, Configurable: true}
}
