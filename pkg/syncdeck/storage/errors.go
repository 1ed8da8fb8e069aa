package storage

import "errors"

const errDBClientNil = "db client is nil"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrMediaNotFound   = errors.New("media not found")
	ErrMediaInUse      = errors.New("media is referenced by a stored clip")
)
