package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boristopalov/bandits/pkg/core"
)

// Tunable is an algorithm whose exploration rate can be changed between tests.
type Tunable interface {
	core.Algorithm
	ChangeEpsilon(epsilon float64) error
}

// Test is one named configuration of the algorithm.
type Test struct {
	Name    string
	Epsilon float64
}

// TestResult holds every run of one test.
type TestResult struct {
	Name    string
	Epsilon float64
	Runs    []core.Trajectory
}

// Result is the outcome of a whole suite.
type Result struct {
	ID         uuid.UUID
	Name       string
	Arms       []string
	OptimalArm string // empty when the environment does not know it
	Steps      int
	Tests      []TestResult
	StartTime  time.Time
	EndTime    time.Time
}

type Status struct {
	Running   bool
	Test      string
	Run       int
	StartTime time.Time
	EndTime   time.Time
}

type SuiteParams struct {
	Name   string
	Tests  []Test
	Runs   int
	Steps  int
	Logger *slog.Logger
}

type SuiteOption func(*SuiteParams)

func WithName(name string) SuiteOption {
	return func(p *SuiteParams) {
		p.Name = name
	}
}

func WithTests(tests ...Test) SuiteOption {
	return func(p *SuiteParams) {
		p.Tests = append(p.Tests, tests...)
	}
}

func WithRuns(runs int) SuiteOption {
	return func(p *SuiteParams) {
		p.Runs = runs
	}
}

func WithSteps(steps int) SuiteOption {
	return func(p *SuiteParams) {
		p.Steps = steps
	}
}

func WithLogger(logger *slog.Logger) SuiteOption {
	return func(p *SuiteParams) {
		p.Logger = logger
	}
}

func defaultSuiteParams() *SuiteParams {
	return &SuiteParams{
		Name:   "bandits",
		Runs:   1,
		Steps:  1000,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Suite runs several tests, each repeated Runs times, against one environment.
// Between tests the algorithm's epsilon is changed, which resets it; between
// runs the runner is reset.
type Suite struct {
	params SuiteParams
	runner *Runner
	alg    Tunable

	mu     sync.RWMutex
	status Status
}

// NewSuite validates the options and initializes alg against env.
func NewSuite(env core.Environment, alg Tunable, opts ...SuiteOption) (*Suite, error) {
	params := defaultSuiteParams()
	for _, opt := range opts {
		opt(params)
	}

	if len(params.Tests) == 0 {
		return nil, fmt.Errorf("%w: no tests configured", core.ErrInvalidInput)
	}
	if params.Runs < 1 {
		return nil, fmt.Errorf("%w: runs must be at least 1, got %d", core.ErrInvalidInput, params.Runs)
	}
	if params.Steps < 0 {
		return nil, fmt.Errorf("%w: negative step count %d", core.ErrInvalidInput, params.Steps)
	}
	seen := make(map[string]bool, len(params.Tests))
	for _, t := range params.Tests {
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: duplicate test name %q", core.ErrInvalidInput, t.Name)
		}
		seen[t.Name] = true
		if !(t.Epsilon >= 0 && t.Epsilon <= 1) {
			return nil, fmt.Errorf("%w: test %q has epsilon %v", core.ErrInvalidInput, t.Name, t.Epsilon)
		}
	}

	runner, err := NewRunner(env, alg)
	if err != nil {
		return nil, err
	}

	return &Suite{
		params: *params,
		runner: runner,
		alg:    alg,
	}, nil
}

// Run executes every test. The context is checked between runs only; a run
// that has started always completes.
func (s *Suite) Run(ctx context.Context) (*Result, error) {
	log := s.params.Logger

	res := &Result{
		ID:        uuid.New(),
		Name:      s.params.Name,
		Arms:      s.runner.Environment().Arms(),
		Steps:     s.params.Steps,
		Tests:     make([]TestResult, 0, len(s.params.Tests)),
		StartTime: time.Now(),
	}
	if oa, ok := s.runner.Environment().(core.OptimalArmer); ok {
		res.OptimalArm = oa.OptimalArm()
	}

	s.setStatus(func(st *Status) {
		st.Running = true
		st.StartTime = res.StartTime
	})
	defer s.setStatus(func(st *Status) {
		st.Running = false
		st.EndTime = time.Now()
	})

	log.Info("starting suite", "id", res.ID, "name", res.Name,
		"tests", len(s.params.Tests), "runs", s.params.Runs, "steps", s.params.Steps)

	for _, test := range s.params.Tests {
		tr, err := s.runTest(ctx, test)
		if err != nil {
			return nil, fmt.Errorf("test %s: %w", test.Name, err)
		}
		res.Tests = append(res.Tests, tr)
	}

	res.EndTime = time.Now()
	log.Info("suite finished", "id", res.ID, "elapsed", res.EndTime.Sub(res.StartTime))
	return res, nil
}

func (s *Suite) runTest(ctx context.Context, test Test) (TestResult, error) {
	log := s.params.Logger
	log.Info("starting test", "test", test.Name, "epsilon", test.Epsilon)

	if err := s.alg.ChangeEpsilon(test.Epsilon); err != nil {
		return TestResult{}, err
	}

	tr := TestResult{
		Name:    test.Name,
		Epsilon: test.Epsilon,
		Runs:    make([]core.Trajectory, 0, s.params.Runs),
	}
	for run := 1; run <= s.params.Runs; run++ {
		if err := ctx.Err(); err != nil {
			return TestResult{}, err
		}
		s.setStatus(func(st *Status) {
			st.Test = test.Name
			st.Run = run
		})

		if err := s.runner.Reset(); err != nil {
			return TestResult{}, err
		}
		if err := s.runner.Run(s.params.Steps); err != nil {
			return TestResult{}, fmt.Errorf("run %d: %w", run, err)
		}
		traj := s.runner.Trajectory()
		tr.Runs = append(tr.Runs, traj)
		log.Debug("run finished", "test", test.Name, "run", run, "total_reward", traj.TotalReward())
	}
	return tr, nil
}

func (s *Suite) setStatus(update func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.status)
}

// Status returns a snapshot of the suite's progress.
func (s *Suite) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
