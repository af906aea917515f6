// Package cli contains the graspgen command line: it loads a robot, a scene and a stage config, runs the grasp
// generator and reports the candidates.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	flagRobot = "robot"
	flagScene = "scene"
	flagStage = "stage"
	flagMax   = "max"
	flagJSON  = "json"
	flagPlot  = "plot"
	flagDebug = "debug"

	flagMoveObject   = "move-object"
	flagRemoveObject = "remove-object"
)

var sceneFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     flagRobot,
		Required: true,
		Usage:    "robot model JSON `FILE`",
	},
	&cli.StringFlag{
		Name:     flagScene,
		Required: true,
		Usage:    "planning scene JSON `FILE`",
	},
	&cli.StringSliceFlag{
		Name:  flagMoveObject,
		Usage: "move an object to a new position in its parent frame, as `NAME=X,Y,Z` in mm",
	},
	&cli.StringSliceFlag{
		Name:  flagRemoveObject,
		Usage: "leave the object `NAME` out of the scene",
	},
}

var app = &cli.App{
	Name:            "graspgen",
	Usage:           "generate grasp poses around objects in a planning scene",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "run",
			Usage:     "run a grasp generator stage until it is exhausted",
			UsageText: "graspgen run --robot <robot.json> --scene <scene.json> --stage <stage.json> [other options]",
			Flags: append([]cli.Flag{
				&cli.StringSliceFlag{
					Name:     flagStage,
					Required: true,
					Usage:    "stage config JSON or YAML `FILE`, repeat to run several stages side by side",
				},
				&cli.IntFlag{
					Name:  flagMax,
					Usage: "stop after this many solutions, 0 for no limit",
				},
				&cli.StringFlag{
					Name:  flagJSON,
					Usage: "write the solutions as JSON to `FILE`",
				},
				&cli.StringFlag{
					Name:  flagPlot,
					Usage: "render the solution markers seen from above to `FILE` (png, svg, pdf)",
				},
			}, sceneFlags...),
			Action: RunAction,
		},
		{
			Name:      "schema",
			Usage:     "print the JSON schema of a config file",
			UsageText: "graspgen schema <robot|scene|stage>",
			Action:    SchemaAction,
		},
		{
			Name:      "frames",
			Usage:     "print the frames of a planning scene",
			UsageText: "graspgen frames --robot <robot.json> --scene <scene.json>",
			Flags:     sceneFlags,
			Action:    FramesAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
