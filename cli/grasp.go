package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/spatialmath"
	rutils "go.viam.com/rdk/utils"
	"golang.org/x/sync/errgroup"

	"go.viam.com/graspgen/markers"
	"go.viam.com/graspgen/robotmodel"
	"go.viam.com/graspgen/scene"
	"go.viam.com/graspgen/stages"
	"go.viam.com/graspgen/task"
)

func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(flagDebug) {
		return logging.NewDebugLogger("graspgen")
	}
	return logging.NewLogger("graspgen")
}

func loadScene(c *cli.Context, logger logging.Logger) (*scene.Scene, error) {
	model, err := robotmodel.ParseModelJSONFile(c.String(flagRobot), "")
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read robot model %q", c.String(flagRobot))
	}
	s, err := scene.ReadFile(c.String(flagScene), model, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read scene %q", c.String(flagScene))
	}
	return editScene(c, s)
}

// editScene applies the object edits given on the command line to a diff of s. The file's scene is left as read.
func editScene(c *cli.Context, s *scene.Scene) (*scene.Scene, error) {
	moves, removals := c.StringSlice(flagMoveObject), c.StringSlice(flagRemoveObject)
	if len(moves) == 0 && len(removals) == 0 {
		return s, nil
	}
	edited := s.Diff()
	for _, move := range moves {
		name, position, ok := strings.Cut(move, "=")
		var pt r3.Vector
		if ok {
			_, err := fmt.Sscanf(position, "%g,%g,%g", &pt.X, &pt.Y, &pt.Z)
			ok = err == nil
		}
		if !ok {
			return nil, errors.Errorf("cannot parse --%s %q, expected NAME=X,Y,Z", flagMoveObject, move)
		}
		obj, err := edited.Object(name)
		if err != nil {
			return nil, err
		}
		if err := edited.MoveObject(name, spatialmath.NewPose(pt, obj.Pose.Orientation())); err != nil {
			return nil, err
		}
	}
	for _, name := range removals {
		if err := edited.RemoveObject(name); err != nil {
			return nil, err
		}
	}
	return edited, nil
}

// FramesAction prints the frames of a scene.
func FramesAction(c *cli.Context) error {
	s, err := loadScene(c, newLogger(c))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", s.String())
	return nil
}

// SchemaAction prints the JSON schema of the robot, scene or stage config format.
func SchemaAction(c *cli.Context) error {
	var schema *jsonschema.Schema
	switch kind := c.Args().First(); kind {
	case "robot":
		schema = jsonschema.Reflect(&robotmodel.ModelConfigJSON{})
	case "scene":
		schema = jsonschema.Reflect(&scene.Config{})
	case "stage":
		schema = stages.ConfigSchema()
	default:
		return errors.Errorf("unknown config kind %q, expected one of robot, scene or stage", kind)
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", data)
	return nil
}

type stageRun struct {
	stage *stages.GenerateGraspPose
	sols  []*task.Solution
}

// RunAction runs the configured stages over the scene, side by side, and reports every solution they spawn.
func RunAction(c *cli.Context) error {
	logger := newLogger(c)
	s, err := loadScene(c, logger)
	if err != nil {
		return err
	}
	var runs []*stageRun
	for _, path := range c.StringSlice(flagStage) {
		cfg, err := stages.ReadConfigFile(path)
		if err != nil {
			return errors.Wrapf(err, "cannot read stage config %q", path)
		}
		stage, err := stages.NewGenerateGraspPoseFromConfig(cfg, logger.Sublogger(cfg.Name))
		if err != nil {
			return err
		}
		runs = append(runs, &stageRun{stage: stage})
	}

	// every stage works on its own diff, the shared scene is only read
	g, ctx := errgroup.WithContext(c.Context)
	for _, run := range runs {
		g.Go(func() error {
			sink := task.NewSolutionCollector()
			_, err := task.Run(ctx, run.stage, s, sink, c.Int(flagMax), logger)
			run.sols = sink.Solutions()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, run := range runs {
		if run.stage.CanCompute() {
			warningf(c.App.ErrWriter, "stopped after %d solutions before stage %q covered a full turn", len(run.sols), run.stage.Name())
		}
	}
	sols := lo.FlatMap(runs, func(run *stageRun, _ int) []*task.Solution {
		return run.sols
	})
	if len(sols) == 0 {
		return nil
	}
	printf(c.App.Writer, "%s", solutionTable(sols))

	if path := c.String(flagJSON); path != "" {
		if err := writeSolutionsJSON(sols, path); err != nil {
			return err
		}
		infof(c.App.Writer, "wrote %d solutions to %s", len(sols), path)
	}
	if path := c.String(flagPlot); path != "" {
		all := lo.FlatMap(sols, func(sol *task.Solution, _ int) []*markers.Marker {
			return sol.Trajectory.Markers
		})
		if err := markers.RenderTopDown(all, fmt.Sprintf("%d grasps", len(sols)), path); err != nil {
			return errors.Wrap(err, "cannot render markers")
		}
		infof(c.App.Writer, "rendered %d markers to %s", len(all), path)
	}
	return nil
}

func targetOf(sol *task.Solution) *referenceframe.PoseInFrame {
	pif, ok := task.StateProperty[*referenceframe.PoseInFrame](sol.State, stages.TargetPoseProperty)
	if !ok {
		return nil
	}
	return pif
}

func solutionTable(sols []*task.Solution) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Stage", "Name", "Cost", "Link", "Translation", "Yaw"})
	for i, sol := range sols {
		row := table.Row{fmt.Sprintf("%d", i), sol.Stage, sol.Trajectory.Name, fmt.Sprintf("%g", sol.Trajectory.Cost), "", "", ""}
		if target := targetOf(sol); target != nil {
			tra := target.Pose().Point()
			row[4] = target.Parent()
			row[5] = fmt.Sprintf("X:%.1f, Y:%.1f, Z:%.1f", tra.X, tra.Y, tra.Z)
			row[6] = fmt.Sprintf("%.2f", rutils.RadToDeg(target.Pose().Orientation().EulerAngles().Yaw))
		}
		t.AppendRow(row)
	}
	return t.Render()
}

type solutionJSON struct {
	ID          uuid.UUID                             `json:"id"`
	Stage       string                                `json:"stage"`
	Name        string                                `json:"name"`
	Cost        float64                               `json:"cost"`
	Comment     string                                `json:"comment,omitempty"`
	TargetFrame string                                `json:"target_frame,omitempty"`
	Translation *r3.Vector                            `json:"translation,omitempty"`
	Orientation *spatialmath.OrientationVectorDegrees `json:"orientation,omitempty"`
	Markers     []*markers.Marker                     `json:"markers"`
}

func writeSolutionsJSON(sols []*task.Solution, path string) error {
	out := make([]solutionJSON, 0, len(sols))
	for _, sol := range sols {
		sj := solutionJSON{
			ID:      sol.ID,
			Stage:   sol.Stage,
			Name:    sol.Trajectory.Name,
			Cost:    sol.Trajectory.Cost,
			Comment: sol.Trajectory.Comment,
			Markers: sol.Trajectory.Markers,
		}
		if target := targetOf(sol); target != nil {
			pt := target.Pose().Point()
			sj.TargetFrame = target.Parent()
			sj.Translation = &pt
			sj.Orientation = target.Pose().Orientation().OrientationVectorDegrees()
		}
		out = append(out, sj)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	//nolint:gosec
	return os.WriteFile(path, data, 0o644)
}

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func infof(w io.Writer, format string, a ...interface{}) {
	printf(w, "Info: "+format, a...)
}

var warningColor = color.New(color.Bold, color.FgYellow)

func warningf(w io.Writer, format string, a ...interface{}) {
	printf(w, warningColor.Sprint("Warning: ")+format, a...)
}
