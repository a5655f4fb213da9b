package codegen

import (
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/function"
)

// Module holds the natives compiled for a graph, keyed by function ID.
type Module struct {
	mu      sync.RWMutex
	natives map[uuid.UUID]*Native
	logger  hclog.Logger
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{
		natives: make(map[uuid.UUID]*Native),
		logger:  hclog.L().Named("codegen"),
	}
}

// SetLogger replaces the module's logger.
func (m *Module) SetLogger(l hclog.Logger) {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	m.logger = l
}

// Prepare compiles every function in fns that has a codegen body and is not
// compiled yet. Functions without one are skipped. Every compile failure is
// reported; the successfully compiled functions stay in the module.
func (m *Module) Prepare(fns ...*function.Function) error {
	var result *multierror.Error
	for _, fn := range fns {
		if fn == nil || !fn.HasBody(function.Codegen) {
			continue
		}
		m.mu.RLock()
		_, done := m.natives[fn.ID()]
		m.mu.RUnlock()
		if done {
			continue
		}

		n, err := Compile(fn)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		m.mu.Lock()
		m.natives[fn.ID()] = n
		m.mu.Unlock()
		m.logger.Debug("compiled", "function", fn.Name(), "id", fn.ID(), "steps", len(n.steps))
	}
	return result.ErrorOrNil()
}

// Native returns the compiled native of fn.
func (m *Module) Native(fn *function.Function) (*Native, error) {
	m.mu.RLock()
	n, ok := m.natives[fn.ID()]
	m.mu.RUnlock()
	if !ok {
		return nil, diagnostics.New(diagnostics.ErrUnresolvedBody, "codegen.native", "%q was not prepared", fn.Name())
	}
	return n, nil
}

// Len returns the number of compiled natives.
func (m *Module) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.natives)
}
