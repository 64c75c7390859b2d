// Package repository reads seat maps from MySQL.  The sentinels below let
// higher layers tell a missing train apart from a corrupt seat map.
package repository

import "errors"

// ErrTrainNotFound is returned when no seat rows exist for the train.
var ErrTrainNotFound = errors.New("train not found")

// ErrSeatOutOfRange is returned when a stored seat number does not fit the
// configured carriage size.
var ErrSeatOutOfRange = errors.New("seat number out of range")
