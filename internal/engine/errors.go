package engine

import "errors"

var (
	ErrNotFound        = errors.New("object not found")
	ErrNoSelection     = errors.New("no single object selected")
	ErrNotText         = errors.New("selected object is not text")
	ErrWrongType       = errors.New("operation not supported for object type")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCancelled       = errors.New("operation cancelled")
	ErrNoPattern       = errors.New("object has no pattern fill")
	ErrNoAssets        = errors.New("no asset store configured")
)
