package registry

import (
	"reflect"
)

// EventType identifies a registry lifecycle event.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDestroyed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event describes an entry lifecycle transition.
type Event struct {
	Type     reflect.Type
	Addr     uintptr
	Registry string
	Kind     EventType
}

// Observer receives registry lifecycle events.
type Observer interface {
	OnRegistryEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnRegistryEvent implements Observer.
func (f ObserverFunc) OnRegistryEvent(e Event) {
	f(e)
}

// Entry is a point-in-time view of one registry entry.
type Entry struct {
	Type  reflect.Type
	Addr  uintptr
	Count uint32
}

// TypeName returns the managed type's name, or "unknown".
func (e Entry) TypeName() string {
	if e.Type == nil {
		return "unknown"
	}
	return e.Type.String()
}

// Stats summarizes registry activity since creation.
type Stats struct {
	Live           int
	Created        uint64
	Destroyed      uint64
	Upgrades       uint64
	FailedUpgrades uint64
}
