// Package orchestrator implements the central coordinator (spec component
// C7): it composes the agent state machine, command queue, execution
// tracker, terminal-slot pool, and approval manager behind a single coarse
// lock, the same way the backend's executor.Executor and lifecycle.Manager
// aggregates wrap several sub-managers behind one mutex.
package orchestrator

import (
	"sort"
	"sync"

	"github.com/kandev/orchestrator/internal/agentfsm"
	"github.com/kandev/orchestrator/internal/approval"
	"github.com/kandev/orchestrator/internal/command"
	"github.com/kandev/orchestrator/internal/common/config"
	"github.com/kandev/orchestrator/internal/common/logger"
	"github.com/kandev/orchestrator/internal/domain"
	"github.com/kandev/orchestrator/internal/execution"
	"github.com/kandev/orchestrator/internal/orchestype"
	"github.com/kandev/orchestrator/internal/terminal"
)

// Default pane dimensions used when begin_execution spawns a pane: 80
// columns x 24 rows.
const (
	DefaultPaneCols = 80
	DefaultPaneRows = 24
)

// Orchestrator is the single-threaded-cooperative coordinator that owns
// agent scheduling, command dispatch, and execution lifecycle. Every
// public method acquires mu for its full duration; internal helpers
// assume the caller already holds it.
type Orchestrator struct {
	mu sync.Mutex

	cfg    config.OrchestratorConfig
	clock  domain.Clock
	logger *logger.Logger

	agents     *agentfsm.Registry
	queue      *command.Queue
	executions *execution.Tracker
	terminals  *terminal.Pool
	approvals  *approval.Manager

	completedCommands map[orchestype.CommandID]struct{}
	assignedCommands  map[orchestype.CommandID]orchestype.AgentID
	approvalCommand   map[orchestype.ApprovalRequestID]orchestype.CommandID
	executionSlots    map[orchestype.ExecutionID]orchestype.TerminalSlotID

	defaultDomain domain.Domain
	domains       map[orchestype.DomainID]domain.Domain
}

// New builds an Orchestrator from the given configuration. clock defaults
// to domain.SystemClock{} and log to logger.Default() when nil.
func New(cfg config.OrchestratorConfig, clock domain.Clock, log *logger.Logger) *Orchestrator {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if log == nil {
		log = logger.Default()
	}

	return &Orchestrator{
		cfg:    cfg,
		clock:  clock,
		logger: log,

		agents:     agentfsm.NewRegistry(cfg.MaxAgents),
		queue:      command.New(cfg.MaxQueueSize),
		executions: execution.NewTracker(cfg.MaxExecutions),
		terminals:  terminal.NewPool(cfg.MaxTerminals),
		approvals: approval.NewManager(approval.Config{
			MaxRequests:     cfg.Approval.MaxRequests,
			MaxPerAgent:     cfg.Approval.MaxPerAgent,
			Timeout:         cfg.Approval.Timeout,
			MaxAuditEntries: cfg.Approval.MaxAuditEntries,
		}, clock, log),

		completedCommands: make(map[orchestype.CommandID]struct{}),
		assignedCommands:  make(map[orchestype.CommandID]orchestype.AgentID),
		approvalCommand:   make(map[orchestype.ApprovalRequestID]orchestype.CommandID),
		executionSlots:    make(map[orchestype.ExecutionID]orchestype.TerminalSlotID),
		domains:           make(map[orchestype.DomainID]domain.Domain),
	}
}

// RegisterDomain adds d to the domain registry, keyed by its DomainID.
func (o *Orchestrator) RegisterDomain(d domain.Domain) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.domains[d.DomainID()] = d
}

// SetDefaultDomain sets the domain begin_execution spawns panes into when
// no domain id is explicitly requested. A configured default domain always
// wins over the registry.
func (o *Orchestrator) SetDefaultDomain(d domain.Domain) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.defaultDomain = d
}

// SetApprovalCallback registers the external approval sink.
func (o *Orchestrator) SetApprovalCallback(cb approval.Callback) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.approvals.SetCallback(cb)
}

// resolveDomain implements the orchestrator's domain spawn semantics: the
// default domain always wins; otherwise the explicitly requested domain id
// is looked up in the registry. Returns nil if neither yields a domain.
func (o *Orchestrator) resolveDomain(requested *orchestype.DomainID) domain.Domain {
	if o.defaultDomain != nil {
		return o.defaultDomain
	}
	if requested != nil {
		return o.domains[*requested]
	}
	return nil
}

// sortedAgents returns every tracked agent ordered by ascending id (spawn
// order), giving auto_assign/auto_execute a deterministic "first" agent.
func (o *Orchestrator) sortedAgents() []*agentfsm.Agent {
	agents := o.agents.All()
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID() < agents[j].ID() })
	return agents
}

// assignedSet derives the "currently assigned" command-id set Queue.Ready
// expects from the orchestrator's command-id-to-holder-agent map.
func (o *Orchestrator) assignedSet() map[orchestype.CommandID]struct{} {
	out := make(map[orchestype.CommandID]struct{}, len(o.assignedCommands))
	for id := range o.assignedCommands {
		out[id] = struct{}{}
	}
	return out
}
