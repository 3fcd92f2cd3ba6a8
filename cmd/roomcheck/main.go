package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"room-planner/internal/planner/catalog"
	"room-planner/internal/planner/collision"
	"room-planner/internal/planner/doors"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/overlay"
	"room-planner/internal/planner/persist"

	"github.com/urfave/cli"
)

// ============================================================
// Room Check CLI
// ============================================================

func main() {
	app := makeapp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func makeapp(out io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "roomcheck"
	app.Usage = "Offline checks for saved room records"
	app.Writer = out

	app.Commands = []cli.Command{
		{
			Name:      "validate",
			Aliases:   []string{"v"},
			Usage:     "Decode records and report dropped elements and collisions",
			ArgsUsage: "ROOM.json [ROOM.json...]",
			Action: func(c *cli.Context) error {
				if c.NArg() == 0 {
					return cli.NewExitError("at least one room file is required", 2)
				}
				problems, err := validateAction(out, c.Args())
				if err != nil {
					return cli.NewExitError(err.Error(), 2)
				}
				if problems > 0 {
					return cli.NewExitError(fmt.Sprintf("%d problem(s) found", problems), 1)
				}
				return nil
			},
		},
		{
			Name:      "zones",
			Usage:     "Print door clearance zones as JSON",
			ArgsUsage: "ROOM.json",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.NewExitError("exactly one room file is required", 2)
				}
				state, err := loadRoom(c.Args().First(), nil)
				if err != nil {
					return cli.NewExitError(err.Error(), 2)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(doors.Zones(&state, models.DefaultSettings()))
			},
		},
		{
			Name:      "overlay",
			Usage:     "Render the debug SVG overlay of a room",
			ArgsUsage: "ROOM.json",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "out, o", Value: "", Usage: "Destination file; stdout when empty"},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return cli.NewExitError("exactly one room file is required", 2)
				}
				state, err := loadRoom(c.Args().First(), nil)
				if err != nil {
					return cli.NewExitError(err.Error(), 2)
				}
				svg, err := overlay.NewRenderer(models.DefaultSettings()).Render(&state)
				if err != nil {
					return cli.NewExitError(err.Error(), 2)
				}
				if dest := c.String("out"); dest != "" {
					return os.WriteFile(dest, []byte(svg), 0o644)
				}
				_, err = fmt.Fprintln(out, svg)
				return err
			},
		},
	}

	return app
}

// validateAction печатает по строке на проблему и возвращает их число.
func validateAction(out io.Writer, paths []string) (int, error) {
	cat, err := catalog.Load()
	if err != nil {
		return 0, err
	}
	settings := models.DefaultSettings()

	problems := 0
	for _, path := range paths {
		var warnings []persist.Warning
		state, err := loadRoom(path, func(w []persist.Warning) { warnings = w })
		if err != nil {
			return problems, err
		}
		for _, w := range warnings {
			fmt.Fprintf(out, "%s: dropped %s (%s): %s\n", path, w.ElementID, w.Type, w.Message)
			problems++
		}
		for _, v := range collision.Audit(&state, settings, cat) {
			switch v.Kind {
			case collision.ViolationWall:
				fmt.Fprintf(out, "%s: element %s hits wall %d\n", path, v.ElementID, v.WallNumber)
			case collision.ViolationClearance:
				fmt.Fprintf(out, "%s: element %s blocks door %s\n", path, v.ElementID, v.DoorID)
			case collision.ViolationBounds:
				fmt.Fprintf(out, "%s: element %s is outside the room\n", path, v.ElementID)
			}
			problems++
		}
		fmt.Fprintf(out, "%s: %s %.0fx%.0f, %d element(s), %d door(s)\n",
			path, state.Kind, state.Dimensions.Width, state.Dimensions.Height, len(state.Elements), len(state.Doors))
	}
	return problems, nil
}

func loadRoom(path string, onWarnings func([]persist.Warning)) (models.RoomState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.RoomState{}, err
	}
	cat, err := catalog.Load()
	if err != nil {
		return models.RoomState{}, err
	}
	state, warnings, err := persist.Decode(data, cat)
	if err != nil {
		return models.RoomState{}, fmt.Errorf("%s: %w", path, err)
	}
	if onWarnings != nil {
		onWarnings(warnings)
	}
	return state, nil
}
