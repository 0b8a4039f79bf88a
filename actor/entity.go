package actor

import (
	"log/slog"
	"strconv"
)

// EntityID is an opaque, stable handle of an entity in the external component
// store. Physics never holds pointers across steps, only these handles.
type EntityID uint64

func (id EntityID) String() string {
	return "Entity(" + strconv.FormatUint(uint64(id), 10) + ")"
}

func (id EntityID) LogValue() slog.Value {
	return slog.StringValue(id.String())
}
