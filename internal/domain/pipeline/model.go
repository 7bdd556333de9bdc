package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Module names one sync stage.
type Module string

const (
	ModuleCompetitions Module = "competitions"
	ModuleTeams        Module = "teams"
	ModuleGames        Module = "games"
	ModuleResults      Module = "results"
	ModulePlayers      Module = "players"
	ModuleLadder       Module = "ladder"
	ModuleVenues       Module = "venues"
)

// canonicalOrder is the dependency order. Stages always execute in this
// relative order regardless of how the caller listed them.
var canonicalOrder = []Module{
	ModuleCompetitions,
	ModuleTeams,
	ModuleGames,
	ModuleResults,
	ModulePlayers,
	ModuleLadder,
	ModuleVenues,
}

// Critical reports whether a failure in this module must abort the run.
// Everything downstream depends on competitions and teams being in place.
func (m Module) Critical() bool {
	return m == ModuleCompetitions || m == ModuleTeams
}

// Valid reports whether m names a known module.
func (m Module) Valid() bool {
	for _, known := range canonicalOrder {
		if m == known {
			return true
		}
	}

	return false
}

// AllModules returns every module in canonical order.
func AllModules() []Module {
	out := make([]Module, len(canonicalOrder))
	copy(out, canonicalOrder)

	return out
}

// Order sorts modules into canonical order and drops duplicates.
func Order(modules []Module) []Module {
	requested := make(map[Module]bool, len(modules))
	for _, m := range modules {
		requested[m] = true
	}

	out := make([]Module, 0, len(requested))
	for _, m := range canonicalOrder {
		if requested[m] {
			out = append(out, m)
		}
	}

	return out
}

// ParseModules resolves user-supplied module names, accepting any order and
// letter case.
func ParseModules(names []string) ([]Module, error) {
	modules := make([]Module, 0, len(names))
	for _, name := range names {
		m := Module(strings.ToLower(strings.TrimSpace(name)))
		if m == "" {
			continue
		}
		if !m.Valid() {
			return nil, fmt.Errorf("unknown module %q", name)
		}
		modules = append(modules, m)
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("no modules requested")
	}

	return Order(modules), nil
}

// Mode is a named bundle of modules.
type Mode string

const (
	ModeSetup    Mode = "setup"
	ModeFixtures Mode = "fixtures"
	ModeDaily    Mode = "daily"
	ModeWeekly   Mode = "weekly"
	ModeFull     Mode = "full"
)

// Modules expands the mode into its module list, already in canonical
// order.
func (m Mode) Modules() []Module {
	switch m {
	case ModeSetup:
		return []Module{ModuleCompetitions, ModuleTeams}
	case ModeFixtures:
		return []Module{ModuleGames}
	case ModeDaily:
		return []Module{ModuleResults, ModulePlayers, ModuleLadder}
	case ModeWeekly:
		return []Module{ModuleGames, ModuleResults, ModulePlayers, ModuleLadder}
	case ModeFull:
		return AllModules()
	}

	return nil
}

// ParseMode resolves a user-supplied mode name.
func ParseMode(name string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(name)))
	if m.Modules() == nil {
		return "", fmt.Errorf("unknown mode %q", name)
	}

	return m, nil
}

// RunStatus tracks a whole pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ReasonCancelled marks runs stopped by deadline or signal.
const ReasonCancelled = "cancelled"

// StageStatus tracks one stage within a run.
type StageStatus string

const (
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// StageOutcome is one stage's result inside a run record.
type StageOutcome struct {
	Module     Module
	Status     StageStatus
	OKCount    int
	ErrorCount int
	Duration   time.Duration
	Error      string
}

// Run is the queryable progress record for one pipeline invocation.
type Run struct {
	ID         string
	Mode       Mode
	Modules    []Module
	DryRun     bool
	Status     RunStatus
	Reason     string
	StartedAt  time.Time
	FinishedAt time.Time
	Stages     []StageOutcome
}
