package cmd

import (
	"errors"
	"io/fs"
	"net"

	"github.com/fulmenhq/licensepage/pkg/config"
	"github.com/fulmenhq/licensepage/pkg/crates"
	"github.com/fulmenhq/licensepage/pkg/exitcode"
	"github.com/fulmenhq/licensepage/pkg/licensepage"
	"github.com/fulmenhq/licensepage/pkg/spdx"
)

// usageError marks bad flags and arguments.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exitCodeFor maps a command failure to the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return exitcode.Success
	}

	var (
		usage       usageError
		unsupported *licensepage.UnsupportedLicenseError
		output      *licensepage.OutputError
		netErr      net.Error
		pathErr     *fs.PathError
	)
	switch {
	case errors.As(err, &output):
		return exitcode.OutputError
	case errors.As(err, &usage), errors.Is(err, config.ErrInvalid):
		return exitcode.ConfigError
	case errors.As(err, &unsupported),
		errors.Is(err, licensepage.ErrUnknownIdentifier),
		errors.Is(err, licensepage.ErrMissingText):
		return exitcode.UnsupportedLicense
	case errors.As(err, &netErr):
		return exitcode.NetworkError
	case errors.Is(err, crates.ErrMissingLicense),
		errors.Is(err, crates.ErrNotRustProject),
		errors.Is(err, crates.ErrCargoUnavailable),
		errors.Is(err, spdx.ErrSyntax),
		errors.As(err, &pathErr):
		return exitcode.MetadataError
	}
	return exitcode.GeneralError
}
