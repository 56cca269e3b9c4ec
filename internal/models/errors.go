package models

import "errors"

// ErrNotFound возвращается хранилищем, когда запись отсутствует.
var ErrNotFound = errors.New("record not found")
