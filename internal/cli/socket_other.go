//go:build !unix

package cli

import (
	"errors"
	"io"
	"os"
)

func newControlPair() (*os.File, io.ReadCloser, error) {
	return nil, nil, errors.New("control socket pairs require a unix platform")
}
