package core

// Document is a raw store record: a generated id plus JSON-normalized
// fields (strings, float64 numbers, bools, []any, map[string]any).
type Document struct {
	ID     string
	Fields map[string]any
}

type OpKind string

const (
	// OpSetAdd adds Value to a set field if absent. Idempotent.
	OpSetAdd OpKind = "setAdd"
	// OpSetRemove removes Value from a set field if present. Idempotent.
	OpSetRemove OpKind = "setRemove"
	// OpIncrement adds Delta to a numeric field, missing treated as zero.
	OpIncrement OpKind = "increment"
	// OpAppend appends Value to a sequence field, duplicates allowed.
	OpAppend OpKind = "append"
)

// Op is a single field mutation. All ops passed to one Update/Apply call
// commit together or not at all (single-document atomicity).
type Op struct {
	Kind  OpKind
	Field string
	Value any
	Delta float64
}

func SetAdd(field string, value any) Op {
	return Op{Kind: OpSetAdd, Field: field, Value: value}
}

func SetRemove(field string, value any) Op {
	return Op{Kind: OpSetRemove, Field: field, Value: value}
}

func Increment(field string, delta float64) Op {
	return Op{Kind: OpIncrement, Field: field, Delta: delta}
}

func Append(field string, value any) Op {
	return Op{Kind: OpAppend, Field: field, Value: value}
}
