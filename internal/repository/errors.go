package repository

import "errors"

// ErrNotFound is returned when a query for a single conversation finds no
// rows. The caller translates it into a domain-level error, abstracting
// away the underlying driver's sql.ErrNoRows.
var ErrNotFound = errors.New("repository: not found")
