package operations_test

import (
	"context"
	"errors"

	"etlcli/internal/files"
	"etlcli/pkg/contracts/domain"
)

// brokenSink fails to stage.
type brokenSink struct{}

func (brokenSink) Name() string { return "broken" }

func (brokenSink) Stage(context.Context, *domain.Result) (files.Staged, error) {
	return nil, errors.New("sink unavailable")
}
