// Package jobid mints the per-run correlation id attached to every
// structured log line for a job (spec §4.5 added: job correlation).
package jobid

import "github.com/google/uuid"

// ID is a job's correlation identifier.
type ID string

// New mints a fresh job id.
func New() ID {
	return ID(uuid.NewString())
}

func (i ID) String() string { return string(i) }
