// Package build runs the catalog generation pipeline: it loads the
// declaration tree, assembles the records, writes the output file and
// publishes the result to a registry.
package build

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/conneroisu/metagen/internal/catalog"
	"github.com/conneroisu/metagen/internal/config"
	"github.com/conneroisu/metagen/internal/declaration"
	"github.com/conneroisu/metagen/internal/errors"
	"github.com/conneroisu/metagen/internal/logging"
	"github.com/conneroisu/metagen/internal/registry"
	"github.com/conneroisu/metagen/internal/source"
)

// StdoutPath as the output path writes the catalog to standard output.
const StdoutPath = "-"

// Pipeline regenerates the catalog. Builds are serialized; callbacks run
// after the build lock is released and may call back into the pipeline.
type Pipeline struct {
	fs        afero.Fs
	input     string
	output    string
	format    catalog.Format
	reader    *source.Cached
	extractor *catalog.Extractor
	registry  *registry.ComponentRegistry
	logger    logging.Logger
	stdout    io.Writer
	metrics   BuildMetrics
	callbacks []BuildCallback

	buildMutex sync.Mutex
	mutex      sync.Mutex
}

// BuildResult represents the result of a build operation
type BuildResult struct {
	Records   []catalog.ComponentMeta
	Error     error
	Duration  time.Duration
	CacheHits int
	Written   bool
}

// BuildCallback is called when a build completes
type BuildCallback func(result BuildResult)

// BuildMetrics tracks build performance
type BuildMetrics struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	FailedBuilds     int64
	AverageDuration  time.Duration
	TotalDuration    time.Duration
	LastComponents   int
}

// NewPipeline creates a pipeline over the OS filesystem.
func NewPipeline(cfg *config.Config, reg *registry.ComponentRegistry, logger logging.Logger) (*Pipeline, error) {
	return NewPipelineFS(cfg, afero.NewOsFs(), reg, logger)
}

// NewPipelineFS creates a pipeline reading and writing through fsys. The
// component reader is rooted at cfg.Source.Root inside fsys. reg may be nil.
func NewPipelineFS(cfg *config.Config, fsys afero.Fs, reg *registry.ComponentRegistry, logger logging.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	format, err := catalog.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	reader, err := source.NewCached(source.NewFS(afero.NewBasePathFs(fsys, cfg.Source.Root)), cfg.Source.CacheSize)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeConfigInvalid, "creating source cache", err)
	}

	return &Pipeline{
		fs:        fsys,
		input:     cfg.Input.Declarations,
		output:    cfg.Output.Path,
		format:    format,
		reader:    reader,
		extractor: catalog.New(reader, cfg.CatalogOptions(), logger),
		registry:  reg,
		logger:    logger.WithComponent("build"),
		stdout:    os.Stdout,
	}, nil
}

// SetStdout redirects output written to StdoutPath.
func (p *Pipeline) SetStdout(w io.Writer) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.stdout = w
}

// AddCallback registers fn to run after every build.
func (p *Pipeline) AddCallback(fn BuildCallback) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.callbacks = append(p.callbacks, fn)
}

// Build runs one generation. Either every record is written and published
// or nothing is.
func (p *Pipeline) Build(ctx context.Context) BuildResult {
	result := p.run(ctx)

	p.mutex.Lock()
	callbacks := append([]BuildCallback(nil), p.callbacks...)
	p.mutex.Unlock()

	for _, callback := range callbacks {
		callback(result)
	}
	return result
}

func (p *Pipeline) run(ctx context.Context) BuildResult {
	p.buildMutex.Lock()
	defer p.buildMutex.Unlock()

	start := time.Now()
	hitsBefore, _ := p.reader.Stats()

	result := BuildResult{}
	result.Records, result.Error = p.generate(ctx)
	if result.Error == nil {
		result.Error = p.write(result.Records)
		result.Written = result.Error == nil
	}
	if result.Error == nil && p.registry != nil {
		p.registry.Replace(result.Records)
	}

	hitsAfter, _ := p.reader.Stats()
	result.CacheHits = hitsAfter - hitsBefore
	result.Duration = time.Since(start)
	if result.Error != nil {
		result.Records = nil
	}

	p.updateMetrics(result)
	if result.Error != nil {
		p.logger.Error(ctx, result.Error, "catalog generation failed", "input", p.input)
	} else {
		p.logger.Info(ctx, "catalog generated",
			"components", len(result.Records),
			"output", p.output,
			"duration", result.Duration,
			"cache_hits", result.CacheHits)
	}
	return result
}

func (p *Pipeline) generate(ctx context.Context) ([]catalog.ComponentMeta, error) {
	f, err := p.fs.Open(p.input)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "opening declarations").WithFile(p.input)
	}
	defer f.Close()

	root, err := declaration.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, errors.ErrCodeInvalidDeclarations, "loading declarations").WithFile(p.input)
	}

	return p.extractor.GetComponentMeta(ctx, root)
}

func (p *Pipeline) write(records []catalog.ComponentMeta) error {
	if p.output == StdoutPath {
		p.mutex.Lock()
		stdout := p.stdout
		p.mutex.Unlock()
		if err := catalog.Encode(stdout, records, p.format); err != nil {
			return errors.WrapIO(err, errors.ErrCodeWriteFailed, "writing catalog to stdout")
		}
		return nil
	}
	return catalog.WriteFile(p.fs, p.output, records, p.format)
}

// GetMetrics returns a snapshot of the build metrics.
func (p *Pipeline) GetMetrics() BuildMetrics {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.metrics
}

// Close releases the source parser.
func (p *Pipeline) Close() {
	p.extractor.Close()
}

func (p *Pipeline) updateMetrics(result BuildResult) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.metrics.TotalBuilds++
	p.metrics.TotalDuration += result.Duration

	if result.Error != nil {
		p.metrics.FailedBuilds++
	} else {
		p.metrics.SuccessfulBuilds++
		p.metrics.LastComponents = len(result.Records)
	}

	p.metrics.AverageDuration = p.metrics.TotalDuration / time.Duration(p.metrics.TotalBuilds)
}
