// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package event

// ChangeEvent is a transition of an observed value from Old to New. At
// startup Old holds the placeholder for the value, never an absent one.
type ChangeEvent[T any] struct {
	Old T
	New T
}

// NewChangeEvent creates a ChangeEvent.
func NewChangeEvent[T any](old, new T) ChangeEvent[T] {
	return ChangeEvent[T]{Old: old, New: new}
}

// ChangeListener is notified of changes to a value of type T.
type ChangeListener[T any] interface {
	StateChanged(ChangeEvent[T])
}

// ChangeListenerFunc adapts an ordinary function to a ChangeListener.
type ChangeListenerFunc[T any] func(ChangeEvent[T])

// StateChanged implements ChangeListener.
func (f ChangeListenerFunc[T]) StateChanged(e ChangeEvent[T]) {
	f(e)
}
