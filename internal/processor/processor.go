package processor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/group"
	"github.com/mwantia/gosort/pkg/log"
	"github.com/mwantia/gosort/pkg/rule"
	"github.com/spf13/afero"
)

// ConflictError describes a file matched by groups routing to different
// targets.
type ConflictError struct {
	Path    string
	Targets []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("file '%s' matches multiple groups with different targets: %s", e.Path, strings.Join(e.Targets, ", "))
}

// MoveError wraps a failed relocation. The file is left at Source.
type MoveError struct {
	Source      string
	Destination string
	Err         error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("failed to move '%s' to '%s': %v", e.Source, e.Destination, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// Decision is the outcome of matching a path against the registry.
type Decision struct {
	Path    string
	Groups  []*group.Group
	Targets []string
}

func (d Decision) Matched() bool {
	return len(d.Groups) > 0
}

func (d Decision) Conflict() bool {
	return len(d.Targets) > 1
}

// Target returns the single target directory, or an empty string when the
// decision has none or is ambiguous.
func (d Decision) Target() string {
	if len(d.Targets) != 1 {
		return ""
	}
	return d.Targets[0]
}

// Err returns a ConflictError for ambiguous decisions.
func (d Decision) Err() error {
	if d.Conflict() {
		return &ConflictError{Path: d.Path, Targets: slices.Clone(d.Targets)}
	}
	return nil
}

// Processor moves files into the target directory of the group they match.
// Every call to Process is serialized.
type Processor struct {
	mutex sync.Mutex

	fs       afero.Fs
	registry *group.Registry
	env      *rule.Env
	sink     event.Sink
	log      log.LoggerService
}

func NewProcessor(fs afero.Fs, registry *group.Registry, env *rule.Env, sink event.Sink, logger log.LoggerService) *Processor {
	if sink == nil {
		sink = event.Discard
	}

	p := &Processor{
		fs:       fs,
		registry: registry,
		sink:     sink,
		log:      logger,
	}

	evalEnv := *env
	if evalEnv.Report == nil {
		evalEnv.Report = p.reportRuleFailure
	}
	p.env = &evalEnv

	return p
}

func (p *Processor) reportRuleFailure(path string, r rule.Rule, err error) {
	p.sink.Emit(event.New(event.RuleFailed, path, fmt.Sprintf("%s: %v", r, err)))
}

// Resolve collects the groups watching and matching path. Rule-less groups
// are never considered.
func (p *Processor) Resolve(path string) Decision {
	path = filepath.Clean(path)
	decision := Decision{Path: path}

	for _, g := range p.registry.Groups() {
		if g.Validate() != nil || !g.Contains(path) {
			continue
		}
		if g.Matches(p.env, path) {
			decision.Groups = append(decision.Groups, g)
			if !slices.Contains(decision.Targets, g.TargetDirectory()) {
				decision.Targets = append(decision.Targets, g.TargetDirectory())
			}
		}
	}

	slices.Sort(decision.Targets)
	return decision
}

// Process resolves path and moves it when exactly one target applies. All
// outcomes are reported through the event sink.
func (p *Processor) Process(path string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			p.sink.Emit(event.New(event.MoveFailed, path, fmt.Sprintf("processing panicked: %v", rec)))
		}
	}()

	p.log.Debug("Processing file '%s'", path)

	decision := p.Resolve(path)
	if !decision.Matched() {
		p.sink.Emit(event.New(event.NoMatch, decision.Path, ""))
		return
	}

	if err := decision.Err(); err != nil {
		p.sink.Emit(event.New(event.Conflict, decision.Path, err.Error(), decision.Targets...))
		return
	}

	p.move(decision.Path, decision.Target())
}

func (p *Processor) move(source, targetDir string) {
	destination := filepath.Join(targetDir, filepath.Base(source))

	if destination == source {
		p.sink.Emit(event.New(event.InPlace, source, "file already in target location"))
		return
	}

	if _, err := p.fs.Stat(source); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p.sink.Emit(event.New(event.SourceMissing, source, "file no longer exists"))
			return
		}
		p.fail(source, destination, err)
		return
	}

	if err := p.fs.MkdirAll(targetDir, 0o755); err != nil {
		p.fail(source, destination, fmt.Errorf("failed to create target directory: %w", err))
		return
	}

	if err := moveFile(p.fs, source, destination); err != nil {
		p.fail(source, destination, err)
		return
	}

	e := event.New(event.Moved, source, "", targetDir)
	e.Destination = destination
	p.sink.Emit(e)
}

func (p *Processor) fail(source, destination string, err error) {
	moveErr := &MoveError{Source: source, Destination: destination, Err: err}
	p.sink.Emit(event.New(event.MoveFailed, source, moveErr.Error(), filepath.Dir(destination)))
}
