package models

import "errors"

// ErrInvalidArgument indicates a non-positive amount or interval, or an unknown interval unit.
var ErrInvalidArgument = errors.New("invalid argument")
