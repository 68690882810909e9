package graph

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/voicefin/voicefin/log"
	"github.com/voicefin/voicefin/telemetry/trace"
)

const defaultMaxSteps = 100

// Executor executes a graph with a given initial state.
type Executor struct {
	graph    *Graph
	maxSteps int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMaxSteps sets the maximum number of steps for graph execution.
func WithMaxSteps(maxSteps int) ExecutorOption {
	return func(e *Executor) {
		e.maxSteps = maxSteps
	}
}

// NewExecutor creates a new graph executor.
func NewExecutor(graph *Graph, opts ...ExecutorOption) (*Executor, error) {
	if err := graph.validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	e := &Executor{
		graph:    graph,
		maxSteps: defaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Execute runs the graph from the entry point with the given initial state
// and returns the final state. Nodes run strictly sequentially; a node error
// aborts the run. Nodes are expected to catch their own recoverable provider
// failures and return degraded updates instead of errors.
func (e *Executor) Execute(ctx context.Context, initialState State, invocationID string) (State, error) {
	ctx, span := trace.Tracer.Start(ctx, "execute_graph")
	defer span.End()
	span.SetAttributes(attribute.String("voicefin.invocation_id", invocationID))

	currentNodeID := e.graph.EntryPoint()
	if currentNodeID == "" {
		return nil, errors.New("no entry point found")
	}

	state := initialState.Clone()
	var stepCount int
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		stepCount++
		if stepCount > e.maxSteps {
			return nil, fmt.Errorf("maximum execution steps (%d) exceeded", e.maxSteps)
		}
		if currentNodeID == End {
			return state, nil
		}
		nextNodeID, newState, err := e.executeNode(ctx, state, currentNodeID, invocationID)
		if err != nil {
			return nil, fmt.Errorf("error executing node %s: %w", currentNodeID, err)
		}
		state = newState
		currentNodeID = nextNodeID
	}
}

// executeNode executes a single node, merges its update into the state and
// returns the next node ID along with the updated state.
func (e *Executor) executeNode(
	ctx context.Context,
	state State,
	nodeID string,
	invocationID string,
) (string, State, error) {
	node, exists := e.graph.Node(nodeID)
	if !exists {
		return "", nil, fmt.Errorf("node %s not found", nodeID)
	}

	ctx, span := trace.Tracer.Start(ctx, fmt.Sprintf("execute_node %s", nodeID))
	defer span.End()
	span.SetAttributes(
		attribute.String("voicefin.node_id", nodeID),
		attribute.String("voicefin.node_name", node.Name),
		attribute.String("voicefin.invocation_id", invocationID),
	)

	log.Debugf("executing node %s", nodeID)
	if node.Function != nil {
		update, err := node.Function(ctx, state)
		if err != nil {
			span.SetAttributes(attribute.String("voicefin.error", err.Error()))
			return "", nil, fmt.Errorf("node function execution failed: %w", err)
		}
		if update != nil {
			state = e.graph.Schema().ApplyUpdate(state, update)
		}
	}

	nextNode, err := e.selectNextNode(ctx, state, nodeID)
	if err != nil {
		span.SetAttributes(attribute.String("voicefin.error", err.Error()))
		return "", nil, err
	}
	span.SetAttributes(attribute.String("voicefin.next_node", nextNode))
	return nextNode, state, nil
}

// selectNextNode resolves the successor of a node: the conditional edge if
// one is declared, otherwise the first unconditional edge, otherwise End.
func (e *Executor) selectNextNode(ctx context.Context, state State, currentNodeID string) (string, error) {
	if condEdge, exists := e.graph.ConditionalEdge(currentNodeID); exists {
		conditionResult, err := condEdge.Condition(ctx, state)
		if err != nil {
			return "", fmt.Errorf("conditional edge evaluation failed: %w", err)
		}
		if nextNode, ok := condEdge.PathMap[conditionResult]; ok {
			return nextNode, nil
		}
		return "", fmt.Errorf("condition result %s not found in path map", conditionResult)
	}
	edges := e.graph.Edges(currentNodeID)
	if len(edges) == 0 {
		// No outgoing edges, assume we should go to End.
		return End, nil
	}
	return edges[0].To, nil
}
