package role

import "strings"

type Option = func(g *Generator)

// WithBackstory sets the persona of the agent
func WithBackstory(backstory string) Option {
	return func(g *Generator) {
		g.backstory = strings.TrimSpace(backstory)
	}
}

func WithGoal(goal string) Option {
	return func(g *Generator) {
		g.goal = strings.TrimSpace(goal)
	}
}

func WithOutputInstructs(list ...string) Option {
	return func(g *Generator) {
		g.outputInstructs = append(g.outputInstructs, list...)
	}
}
