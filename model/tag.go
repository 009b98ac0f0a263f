// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package model

// Tag is a name/value pair.
type Tag struct {
	Name  string
	Value string
}

// NewTagSet creates a new tag set by taking the entries in pairs.
func NewTagSet(tags ...string) TagSet {
	if len(tags)%2 != 0 {
		panic("model.NewTagSet: argument count is odd")
	}

	var set TagSet
	for i := 0; i < len(tags); i += 2 {
		set = append(set, Tag{Name: tags[i], Value: tags[i+1]})
	}
	return set
}

// TagSet is an ordered list of Tags.
type TagSet []Tag

// Equal reports whether both sets hold the same tags in the same order.
func (ts TagSet) Equal(other TagSet) bool {
	if len(ts) != len(other) {
		return false
	}
	for i := range ts {
		if ts[i] != other[i] {
			return false
		}
	}
	return true
}
