package usecase_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertErrContains(t *testing.T, err error, want string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), want)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
