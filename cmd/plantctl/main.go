// Package main provides plantctl, a headless tool for plant scene files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/plantview/pkg/consistency"
	"github.com/chazu/plantview/pkg/history"
	"github.com/chazu/plantview/pkg/pathfind"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/script"
	"github.com/chazu/plantview/pkg/settings"
	"github.com/chazu/plantview/pkg/viewer"
)

// Version is the current plantctl version.
var Version = "0.3.0"

var (
	settingsPath string
	historyPath  string
	outPath      string
	debugFlag    bool
)

var rootCmd = &cobra.Command{
	Use:           "plantctl",
	Short:         "plantctl - inspect and edit plant layout scenes",
	Long:          `plantctl reads plant scene documents, checks them, reroutes their pipes and applies console scripts without the desktop viewer.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate <scene.json>",
	Short: "Check a scene document for structural problems",
	Long: `Check a scene document for structural problems.

Errors (dangling or duplicate connections, duplicate ids, inverted boxes)
make the command fail. Warnings (objects below ground, orphaned gateways)
are printed only.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var bboxCmd = &cobra.Command{
	Use:   "bbox <scene.json>",
	Short: "Recompute the cached world bounding boxes",
	Args:  cobra.ExactArgs(1),
	RunE:  runBBox,
}

var routeCmd = &cobra.Command{
	Use:   "route <scene.json>",
	Short: "Regenerate the pipe paths for every connection",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoute,
}

var revertGatewayCmd = &cobra.Command{
	Use:   "revert-gateway <scene.json> <gateway.json>",
	Short: "Undo the connection change a gateway introduced",
	Long: `Undo the connection change a gateway introduced.

gateway.json holds the record written when the gateway was inserted:

  {"uuid": "...", "connections": {"added": [...], "removed": [...]}}

Removed connections are restored, added ones dropped and the gateway node
deleted. Running it twice is harmless.`,
	Args: cobra.ExactArgs(2),
	RunE: runRevertGateway,
}

var scriptCmd = &cobra.Command{
	Use:   "script <scene.json> <script>",
	Short: "Apply a console script to a scene",
	Long: `Apply a console script to a scene. Use - to read the script from stdin.

Commands:
  (select "id")             select an object, (select) clears
  (translate "id" x y z)    move; :x :y :z set single axes
  (rotate "id" x y z)       rotate, degrees
  (scale "id" x y z)        scale
  (remove "id")             delete an object
  (toggle-paths)            flip automatic path regeneration

Transforms without an id act on the selection.`,
	Args: cobra.ExactArgs(2),
	RunE: runScript,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Settings file (.toml, .json or .yaml)")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history", "", "SQLite journal recording every transform")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "Write the resulting document here instead of stdout")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log debug output")

	rootCmd.AddCommand(validateCmd, bboxCmd, routeCmd, revertGatewayCmd, scriptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if debugFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// contextOf returns the command context; Execute without a context
// leaves it nil.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func readScene(path string) (*scene.SceneData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scene.Decode(f)
}

func loadScene(path string) (*scene.Scene, error) {
	d, err := readScene(path)
	if err != nil {
		return nil, err
	}
	return scene.Load(d)
}

// writeScene writes d to --out, or to the command's output.
func writeScene(cmd *cobra.Command, d *scene.SceneData) error {
	if outPath == "" {
		return scene.Encode(cmd.OutOrStdout(), d)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := scene.Encode(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func provider(log *slog.Logger) settings.Provider {
	if settingsPath == "" {
		return settings.NewMemory(settings.Default())
	}
	return settings.Open(settingsPath, log)
}

func runValidate(cmd *cobra.Command, args []string) error {
	d, err := readScene(args[0])
	if err != nil {
		return err
	}
	findings := scene.Validate(d)
	for _, f := range findings {
		fmt.Fprintln(cmd.OutOrStdout(), f.Error())
	}
	if errs := scene.Errors(findings); len(errs) > 0 {
		return fmt.Errorf("%s: %d error(s)", args[0], len(errs))
	}
	if len(findings) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
	}
	return nil
}

func runBBox(cmd *cobra.Command, args []string) error {
	s, err := loadScene(args[0])
	if err != nil {
		return err
	}
	n := s.RecomputeWorldBoundingBoxes()
	logger(cmd).Info("world boxes recomputed", "objects", n)
	return writeScene(cmd, s.Data)
}

func runRoute(cmd *cobra.Command, args []string) error {
	s, err := loadScene(args[0])
	if err != nil {
		return err
	}
	m := pathfind.New(s, pathfind.Options{Logger: logger(cmd)})
	if err := m.UpdatePathfindingAfterTransform(contextOf(cmd), s.Data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d path(s) routed\n", len(m.Polylines()))
	return writeScene(cmd, s.Data)
}

func runRevertGateway(cmd *cobra.Command, args []string) error {
	s, err := loadScene(args[0])
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	var info scene.GatewayInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	if info.UUID == "" {
		return fmt.Errorf("%s: gateway uuid missing", args[1])
	}

	log := logger(cmd)
	r := &consistency.Reverter{
		Pathfinder: pathfind.New(s, pathfind.Options{Logger: log}),
		Scene:      s,
		Logger:     log,
	}
	res := r.Revert(contextOf(cmd), info, s.Data)
	if fails := res.Report.Failures(); len(fails) > 0 {
		return fmt.Errorf("revert %s: %s", info.UUID, res.Report)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "restored %d, dropped %d, gateway removed: %v\n",
		res.Restored, res.Dropped, res.NodeRemoved)
	return writeScene(cmd, s.Data)
}

func runScript(cmd *cobra.Command, args []string) error {
	d, err := readScene(args[0])
	if err != nil {
		return err
	}
	src, err := readScript(cmd, args[1])
	if err != nil {
		return err
	}

	log := logger(cmd)
	opts := viewer.Options{Settings: provider(log), Logger: log}
	if historyPath != "" {
		j, err := history.OpenJournal(historyPath)
		if err != nil {
			return err
		}
		defer j.Close()
		opts.Recorder = j
	}
	v, err := viewer.New(opts)
	if err != nil {
		return err
	}
	defer v.Dispose()
	v.InitTransformControls()
	if err := v.LoadSceneData(d); err != nil {
		return err
	}

	res, err := script.New(v, script.Options{Logger: log}).Run(contextOf(cmd), src)
	for _, e := range res.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), e.Error())
	}
	if err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("%s: %d script error(s)", args[1], len(res.Errors))
	}
	v.Flush()
	fmt.Fprintf(cmd.ErrOrStderr(), "%d action(s) applied\n", res.Applied)
	return writeScene(cmd, v.Data())
}

func readScript(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}
