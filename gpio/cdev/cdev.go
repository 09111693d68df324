// Package cdev drives real lines through the Linux GPIO character device,
// e.g. a Raspberry Pi header wired to the pad connectors.
//
// Every Get and Set is a syscall, which is fast enough for the readers but
// only marginal for the bus responder.  Prefer a microcontroller target when
// the host polls at full speed.
package cdev

import "errors"

var ErrUnsupported = errors.New("gpio character device not supported on this platform")

const consumer = "pcebridge"
