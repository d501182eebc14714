package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateUID is returned when a node or relation uid is already indexed.
	ErrDuplicateUID = errors.New("duplicate uid")

	// ErrUIDNotFound is returned when an operation references a uid that is not indexed.
	ErrUIDNotFound = errors.New("uid not found")

	// ErrUnknownEndpoint is returned when a relation points at a node uid that is not in the network.
	ErrUnknownEndpoint = errors.New("relation endpoint not found")

	// ErrUnknownNodeType is returned when parsing a node label outside the vocabulary.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrUnknownRelationType is returned when parsing a relation label outside the vocabulary.
	ErrUnknownRelationType = errors.New("unknown relation type")
)

// DuplicateUIDError reports the uid that collided on insert.
type DuplicateUIDError struct {
	UID  int64
	Kind string // "node" or "relation"
}

func (e *DuplicateUIDError) Error() string {
	return fmt.Sprintf("%s uid %d already exists", e.Kind, e.UID)
}

// Is lets errors.Is match ErrDuplicateUID.
func (e *DuplicateUIDError) Is(target error) bool {
	return target == ErrDuplicateUID
}
