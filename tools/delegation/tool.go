// Package delegation implements the tools letting an agent hand work to its co-workers.
package delegation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bububa/codecrew/schema"
	"github.com/bububa/codecrew/tools"
)

const (
	DelegateWorkTitle = "Delegate work to co-worker"
	AskQuestionTitle  = "Ask question to co-worker"
)

// ErrCoworkerNotFound is returned by a Selector when no co-worker has the role
var ErrCoworkerNotFound = errors.New("co-worker not found")

// Worker executes a task on behalf of another agent
type Worker interface {
	Role() string
	Execute(ctx context.Context, task string, taskContext string) (string, error)
}

// Selector returns the co-worker with a role
type Selector func(role string) (Worker, error)

// Tool hands a task or a question to the co-worker named in its input
type Tool struct {
	tools.Config
	roles    []string
	selector Selector
}

var _ tools.Tool[schema.String, schema.String] = (*Tool)(nil)

// New returns a Tool choosing among workers with the default title
func New(workers []Worker, opts ...tools.Option) *Tool {
	ret := NewWithSelector(Roles(workers), SelectFrom(workers), opts...)
	return ret
}

// NewWithSelector returns a Tool using selector to find the co-workers named in roles
func NewWithSelector(roles []string, selector Selector, opts ...tools.Option) *Tool {
	ret := &Tool{
		roles:    roles,
		selector: selector,
	}
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle(DelegateWorkTitle)
	}
	if ret.Description() == "" {
		ret.SetDescription(describe(ret.Title(), roles))
	}
	return ret
}

// NewTools returns the delegate work and ask question tools for workers
func NewTools(workers []Worker) []tools.AnonymousTool {
	return []tools.AnonymousTool{
		New(workers, tools.WithTitle(DelegateWorkTitle)),
		New(workers, tools.WithTitle(AskQuestionTitle)),
	}
}

func describe(title string, roles []string) string {
	coworkers := strings.Join(roles, ", ")
	if title == AskQuestionTitle {
		return fmt.Sprintf(`Useful to ask a question, opinion or take from one of the following co-workers: %s. The input must be a pipe (|) separated text of length three, with the first one being the co-worker you want to ask it to (one of the options), the question, and all actual context you have for the question. For example, "coworker|question|context".`, coworkers)
	}
	return fmt.Sprintf(`Useful to delegate a specific task to one of the following co-workers: %s. The input must be a pipe (|) separated text of length three, with the first one being the co-worker you want to delegate it to (one of the options), the task, and all actual context you have for the task. For example, "coworker|task|context".`, coworkers)
}

// Roles returns the roles of workers
func Roles(workers []Worker) []string {
	ret := make([]string, 0, len(workers))
	for _, w := range workers {
		ret = append(ret, w.Role())
	}
	return ret
}

// SelectFrom returns a Selector matching roles case-insensitively
func SelectFrom(workers []Worker) Selector {
	return func(role string) (Worker, error) {
		role = strings.TrimSpace(role)
		for _, w := range workers {
			if strings.EqualFold(strings.TrimSpace(w.Role()), role) {
				return w, nil
			}
		}
		return nil, ErrCoworkerNotFound
	}
}

// Run hands the "<coworker>|<task>|<context>" input to the co-worker.
// A malformed input is returned as an error; an unknown co-worker is reported in the output.
func (t *Tool) Run(ctx context.Context, input *schema.String, output *schema.String) error {
	parts := strings.SplitN(string(*input), tools.Delimiter, 3)
	if len(parts) != 3 {
		return fmt.Errorf("%w: missing exact 3 pipe (|) separated values, for example \"coworker|task|context\"", tools.ErrMalformedInput)
	}
	role, task, taskContext := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	if role == "" || task == "" {
		return fmt.Errorf("%w: co-worker and task must not be empty", tools.ErrMalformedInput)
	}
	worker, err := t.selector(role)
	if errors.Is(err, ErrCoworkerNotFound) {
		*output = schema.String(fmt.Sprintf("Co-worker mentioned on the Action Input not found, it must be one and only one of the following options: %s.", strings.Join(t.roles, ", ")))
		return nil
	} else if err != nil {
		return err
	}
	ret, err := worker.Execute(ctx, task, taskContext)
	if err != nil {
		return err
	}
	*output = schema.String(ret)
	return nil
}

func (t *Tool) RunAnonymous(ctx context.Context, input any) (any, error) {
	return tools.RunAnonymous[schema.String, schema.String](ctx, t, t, input)
}
