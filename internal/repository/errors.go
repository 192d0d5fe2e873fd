package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	//一意制約違反
	ErrConflict = errors.New("conflict")
	//参照されていて消せない
	ErrInUse = errors.New("in use")
)
