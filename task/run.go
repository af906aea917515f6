package task

import (
	"context"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"

	"go.viam.com/graspgen/scene"
)

// Run initializes stage against s and computes it until it is exhausted, maxSolutions solutions were spawned or
// ctx is done. A maxSolutions of zero or less means no limit. It returns the number of solutions spawned.
func Run(ctx context.Context, stage Stage, s *scene.Scene, sink Sink, maxSolutions int, logger logging.Logger) (int, error) {
	stage.Connect(sink)
	if err := stage.Init(ctx, s); err != nil {
		return 0, errors.Wrapf(err, "cannot initialize stage %q", stage.Name())
	}
	n := 0
	for stage.CanCompute() {
		if maxSolutions > 0 && n >= maxSolutions {
			break
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		produced, err := stage.Compute(ctx)
		if err != nil {
			return n, errors.Wrapf(err, "stage %q failed after %d solutions", stage.Name(), n)
		}
		if !produced {
			break
		}
		n++
	}
	logger.Infow("stage finished", "stage", stage.Name(), "solutions", n)
	return n, nil
}
