package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"sculpt/pkg/buildmeta"
	"sculpt/pkg/config"
	"sculpt/pkg/lock"
	"sculpt/pkg/nondet"
	"sculpt/pkg/sourceir"
)

type replayOptions struct {
	input  string
	target string
	out    string
}

func newReplayCommand() *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay <input>",
		Short: "Rebuild artifacts from sculpt.lock without generation calls",
		Long: `Verify that the source module still matches the digest recorded in
sculpt.lock and rebuild every artifact from the locked target IR. Replay
never contacts a generation provider; a drifted source fails the digest
check instead of silently regenerating.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			return runReplay(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.target, "target", "", "target family or external target name")
	cmd.Flags().StringVar(&opts.out, "out", "", "output directory (default dist/<stem>)")
	return cmd
}

func runReplay(cmd *cobra.Command, opts *replayOptions) (err error) {
	started := time.Now()
	ctx := cmd.Context()
	fs := afero.NewOsFs()
	style := newStyler(cmd.OutOrStdout())

	distDir := opts.out
	if distDir == "" {
		distDir = buildmeta.DistDirFor(opts.input)
	}

	cfg := config.Load(".")
	meta := &buildmeta.Record{
		Version:  buildmeta.Version,
		Script:   opts.input,
		Action:   "replay",
		Provider: "replay",
		Model:    "locked",
		Status:   "ok",
	}
	defer func() {
		if err != nil {
			meta.Status = "failed"
		}
		meta.TotalMillis = time.Since(started).Milliseconds()
		meta.TimestampUnixMS = buildmeta.NowUnixMS()
		recordCompile(fs, cfg, distDir, meta)
	}()

	src, err := sourceir.Load(opts.input)
	if err != nil {
		return err
	}
	targetName, err := resolveTargetName(opts.target, src, cfg)
	if err != nil {
		return err
	}
	meta.Target = targetName
	layoutRequired, err := enforceMeta(src, targetName)
	if err != nil {
		return err
	}

	style.header("Replay", targetName, opts.input, nil)
	style.printStep("1", "Parse & Validate", "ok")

	lk, err := lock.NewStore(fs, ".").Read()
	if err != nil {
		return err
	}
	if err := lk.Verify(src); err != nil {
		return err
	}
	if lk.Target != "" && !strings.EqualFold(lk.Target, targetName) {
		return fmt.Errorf("Target mismatch: lock target is %s, but replay target is %s", lk.Target, targetName)
	}
	style.printStep("2", "Load Lock", "ok")

	ir := lk.TargetIR
	if layoutRequired && len(ir.Layout) == 0 {
		return errors.New("layout=explicit requires layout data in target IR")
	}

	sp := style.startSpinner("3", "Write Artifacts")
	writeErr := func() error {
		irPretty, err := src.Pretty()
		if err != nil {
			return err
		}
		if err := writeArtifact(fs, distDir, "ir.json", irPretty); err != nil {
			return err
		}
		if err := writeArtifact(fs, distDir, "nondet.report", nondet.Analyze(src).Render()); err != nil {
			return err
		}
		return writeTargetArtifacts(ctx, fs, distDir, opts.input, targetName, src, ir)
	}()
	if writeErr != nil {
		sp.finish("failed")
		return writeErr
	}
	sp.finish("ok")

	style.footer([]string{
		filepath.Join(distDir, "target.ir.json"),
		filepath.Join(distDir, "ir.json"),
		filepath.Join(distDir, "nondet.report"),
	}, nil)
	return nil
}
