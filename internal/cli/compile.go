package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"sculpt/pkg/buildmeta"
	"sculpt/pkg/config"
	"sculpt/pkg/contract"
	"sculpt/pkg/convergence"
	"sculpt/pkg/lock"
	"sculpt/pkg/logx"
	"sculpt/pkg/metrics"
	"sculpt/pkg/nondet"
	"sculpt/pkg/provider"
	"sculpt/pkg/sourceir"
	"sculpt/pkg/target"
	"sculpt/pkg/targetir"
)

// compileOptions carries the flags shared by build and freeze.
type compileOptions struct {
	input    string
	target   string
	provider string
	model    string
	strict   bool
	debug    string
	out      string
	freeze   bool
}

// runCompile is the build and freeze pipeline: gate, report, convergence,
// artifacts. Freeze additionally writes the lock before the artifact step.
func runCompile(cmd *cobra.Command, opts *compileOptions) (err error) {
	level, err := parseDebugLevel(opts.debug)
	if err != nil {
		return err
	}

	started := time.Now()
	ctx := cmd.Context()
	fs := afero.NewOsFs()
	style := newStyler(cmd.OutOrStdout())
	stderr := cmd.ErrOrStderr()

	action, metaAction := "Build", "build"
	if opts.freeze {
		action, metaAction = "Freeze", "freeze"
	}
	distDir := opts.out
	if distDir == "" {
		distDir = buildmeta.DistDirFor(opts.input)
	}
	if level != debugOff {
		// --debug also dumps each generation attempt's prompt and response
		// under <dist>/logs, one file per attempt.
		logx.SetDebugConfig(true, true, filepath.Join(distDir, "logs"))
	}

	cfg := config.Load(".")
	rec := metrics.NewRecorder()
	meta := &buildmeta.Record{
		Version: buildmeta.Version,
		Script:  opts.input,
		Action:  metaAction,
		Status:  "ok",
	}
	defer func() {
		if err != nil {
			meta.Status = "failed"
		}
		meta.TotalMillis = time.Since(started).Milliseconds()
		meta.TimestampUnixMS = buildmeta.NowUnixMS()
		rec.ObserveBuild(meta.Target, meta.Status)
		recordCompile(fs, cfg, distDir, meta)
	}()

	src, err := sourceir.Load(opts.input)
	if err != nil {
		return err
	}
	controls := convergence.ControlsFromMeta(src.Meta)
	targetName, err := resolveTargetName(opts.target, src, cfg)
	if err != nil {
		return err
	}
	meta.Target = targetName
	layoutRequired, err := enforceMeta(src, targetName)
	if err != nil {
		return err
	}

	irPretty, err := src.Pretty()
	if err != nil {
		return err
	}
	reportText := nondet.Analyze(src).Render()
	if err := writeArtifact(fs, distDir, "ir.json", irPretty); err != nil {
		return err
	}
	if err := writeArtifact(fs, distDir, "nondet.report", reportText); err != nil {
		return err
	}

	spec, err := target.Resolve(ctx, targetName)
	if err != nil {
		return err
	}
	if err := contract.AsError(spec.Contract.Validate(src, targetName)); err != nil {
		return err
	}

	resolver := &provider.Resolver{
		Config:   cfg,
		Secrets:  config.UnlockSecrets("."),
		Provider: opts.provider,
		Model:    opts.model,
		Strict:   opts.strict,
		Warn:     stderr,
	}
	resolve := func() (provider.Client, provider.Info, error) {
		client, info, err := resolver.Resolve()
		if err != nil {
			return nil, info, err
		}
		client = provider.Chain(client,
			provider.WithTimeout(cfg.Timeout()),
			provider.WithMetrics(rec, info.Name),
			provider.WithLogging(logger),
		)
		return client, info, nil
	}
	client, info, err := resolve()
	if err != nil {
		return err
	}
	meta.Provider, meta.Model = info.Name, info.Model

	style.header(action, targetName, opts.input, &info)
	style.printStep("1", "Parse & Validate", "ok")

	sp := style.startSpinner("2", "LLM Compile")
	res, err := convergence.Run(ctx, &convergence.Request{
		Source:         src,
		StandardIR:     spec.StandardIR,
		Schema:         spec.Schema,
		Extensions:     spec.Extensions,
		Report:         reportText,
		Controls:       controls,
		LayoutRequired: layoutRequired,
		Previous:       readPreviousIR(fs, distDir),
		Client:         client,
		Info:           info,
		Resolve:        resolve,
		Warn:           stderr,
	})
	if err != nil {
		sp.finish("failed")
		return err
	}
	sp.finish("ok")
	meta.Provider, meta.Model = res.Provider.Name, res.Provider.Model

	if opts.freeze {
		lk, err := lock.Create(src, res.Provider.Name, res.Provider.Model, targetName, res.IR)
		if err != nil {
			return err
		}
		if err := lock.NewStore(fs, ".").Write(lk); err != nil {
			return logx.Wrap(err, "write lock file")
		}
	}

	sp = style.startSpinner("3", "Write Artifacts")
	buildStart := time.Now()
	err = writeTargetArtifacts(ctx, fs, distDir, opts.input, targetName, src, res.IR)
	buildMillis := time.Since(buildStart).Milliseconds()
	if err != nil {
		sp.finish("failed")
		return err
	}
	sp.finish("ok")
	meta.BuildMillis = &buildMillis

	if a := acceptedAttempt(res); a != nil {
		llm := a.Latency.Milliseconds()
		meta.LLMMillis = &llm
	}
	if res.Usage != nil {
		meta.TokenUsage = buildmeta.NewTokenUsage(
			res.Usage.InputTokens, res.Usage.OutputTokens, res.Usage.TotalTokens)
	}

	emitDebug(stderr, level, &debugContext{
		provider:    res.Provider,
		target:      targetName,
		input:       opts.input,
		standardIR:  spec.StandardIR,
		distDir:     distDir,
		ir:          res.IR,
		capture:     acceptedAttempt(res),
		llmMillis:   int64PtrValue(meta.LLMMillis),
		buildMillis: buildMillis,
		rec:         rec,
	})

	artifacts := []string{
		filepath.Join(distDir, "target.ir.json"),
		filepath.Join(distDir, "ir.json"),
		filepath.Join(distDir, "nondet.report"),
	}
	if opts.freeze {
		artifacts = append([]string{lock.FileName}, artifacts...)
	}
	style.footer(artifacts, res.Usage)
	return nil
}

// resolveTargetName picks the build target: explicit flag first, then the
// module's @meta target, then the project config.
func resolveTargetName(flag string, src *sourceir.Module, cfg *config.Config) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if t := src.Meta["target"]; t != "" {
		return t, nil
	}
	if cfg.Target != "" {
		return cfg.Target, nil
	}
	return "", errors.New("Target required. Use --target or set @meta target=...")
}

// enforceMeta cross-checks module meta against the chosen target and reports
// whether the module demands an explicit layout.
func enforceMeta(src *sourceir.Module, targetName string) (bool, error) {
	if t := src.Meta["target"]; t != "" && !strings.EqualFold(t, targetName) {
		return false, fmt.Errorf("Target mismatch: meta target is %s, but build target is %s", t, targetName)
	}
	layoutRequired := strings.EqualFold(src.Meta["layout"], "explicit")
	if layoutRequired && targetName != "gui" {
		return false, errors.New("layout=explicit is only valid for gui target")
	}
	return layoutRequired, nil
}

// readPreviousIR loads the prior accepted IR when one exists. Any failure
// means no previous IR; a stale or corrupt file must not block a build.
func readPreviousIR(fs afero.Fs, distDir string) *targetir.IR {
	data, err := afero.ReadFile(fs, filepath.Join(distDir, "target.ir.json"))
	if err != nil {
		return nil
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	ir, err := targetir.FromValue(v)
	if err != nil {
		return nil
	}
	return ir
}

func writeArtifact(fs afero.Fs, distDir, name, content string) error {
	if err := fs.MkdirAll(distDir, 0o755); err != nil {
		return fmt.Errorf("create dist directory %s: %w", distDir, err)
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := afero.WriteFile(fs, filepath.Join(distDir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// writeTargetArtifacts persists the accepted IR and, for external targets,
// hands the build off to the provider binary.
func writeTargetArtifacts(ctx context.Context, fs afero.Fs, distDir, input, targetName string, src *sourceir.Module, ir *targetir.IR) error {
	pretty, err := ir.Pretty()
	if err != nil {
		return err
	}
	if err := writeArtifact(fs, distDir, "target.ir.json", pretty); err != nil {
		return err
	}
	if target.IsBuiltin(targetName) {
		return nil
	}
	value, err := ir.Value()
	if err != nil {
		return err
	}
	irPretty, err := src.Pretty()
	if err != nil {
		return err
	}
	return target.RunExternal(ctx, targetName, &target.BuildRequest{
		Mode:     "build",
		IR:       src,
		IRPretty: irPretty,
		TargetIR: value,
		OutDir:   distDir,
		Input:    input,
	})
}

// acceptedAttempt returns the attempt whose output became the accepted IR,
// or nil when the result came from a fallback.
func acceptedAttempt(res *convergence.Result) *convergence.Attempt {
	if res == nil || res.Stubbed || res.Replayed || len(res.Attempts) == 0 {
		return nil
	}
	last := res.Attempts[len(res.Attempts)-1]
	if last.Err != "" {
		return nil
	}
	return &last
}

// recordCompile persists the build record and appends it to the history
// database. Both are observability, so failures here never override the
// compile outcome.
func recordCompile(fs afero.Fs, cfg *config.Config, distDir string, meta *buildmeta.Record) {
	if err := buildmeta.Write(fs, distDir, meta); err != nil {
		logger.Warn("write build metadata: %v", err)
	}
	if err := appendHistory(cfg, meta); err != nil {
		logger.Warn("append build history: %v", err)
	}
}

func appendHistory(cfg *config.Config, meta *buildmeta.Record) error {
	path := cfg.HistoryDB
	if path == "" {
		path = buildmeta.DefaultHistoryPath
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	h, err := buildmeta.OpenHistory(path)
	if err != nil {
		return err
	}
	defer h.Close()
	_, err = h.Append(meta)
	return err
}

func int64PtrValue(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
