/*
NAME
  errors.go

DESCRIPTION
  errors.go provides phase/batch-annotated error wrapping helpers used
  throughout the pipeline.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import "github.com/pkg/errors"

// phaseErr annotates err with the failing phase name and batch index.
// It returns nil if err is nil.
func phaseErr(phase string, batch int, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "pipeline: phase %s batch %d", phase, batch)
}

// validationErr reports an input-validation failure: the phase never
// starts.
func validationErr(phase, msg string) error {
	return errors.Errorf("pipeline: phase %s: %s", phase, msg)
}
