package engine

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// QueryKind selects what a Query asks for.
type QueryKind int

const (
	TypeQuery QueryKind = iota
	ValueQuery
	ResolveTypeQuery
	MembersQuery
)

func (k QueryKind) String() string {
	switch k {
	case TypeQuery:
		return "type"
	case ValueQuery:
		return "value"
	case ResolveTypeQuery:
		return "resolve"
	case MembersQuery:
		return "members"
	default:
		return fmt.Sprintf("QueryKind(%d)", int(k))
	}
}

// Query is one request of a batch.
type Query struct {
	Kind QueryKind
	Text string
	At   Position
}

// Answer is the outcome of one Query. Err is set for hard failures only;
// an empty Types with Diagnostics is the normal "nothing found" answer.
type Answer struct {
	Query       Query
	Session     uuid.UUID
	Types       []typesystem.Type
	Value       values.Value
	Members     []string
	Err         error
	Diagnostics []diagnostics.Diagnostic
}

// Summary renders the answer on one line.
func (a Answer) Summary() string {
	switch {
	case a.Err != nil:
		return "error: " + a.Err.Error()
	case a.Value != nil:
		return a.Value.Inspect()
	case a.Members != nil:
		return strings.Join(a.Members, " ")
	case len(a.Types) == 0:
		return "<none>"
	}
	names := make([]string, len(a.Types))
	for i, t := range a.Types {
		names[i] = t.String()
	}
	return strings.Join(names, " | ")
}

// EvaluateAll answers qs in parallel on the current generation, one session
// per query. Answers keep the order of qs. Only cancellation of ctx is
// returned as an error; query failures land in the answers.
func (e *Engine) EvaluateAll(ctx context.Context, qs []Query) ([]Answer, error) {
	snap := e.cache.Snapshot()
	answers := make([]Answer, len(qs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, q := range qs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			answers[i] = NewSession(snap, e.opts).Answer(q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return answers, err
	}
	e.tracef("answered %d queries on generation %d", len(qs), snap.Generation)
	return answers, nil
}

// Answer runs q on s.
func (s *Session) Answer(q Query) Answer {
	a := Answer{Query: q, Session: s.ID}
	switch q.Kind {
	case TypeQuery:
		a.Types, a.Err = s.Types(q.Text, q.At)
	case ValueQuery:
		a.Value, a.Err = s.Value(q.Text, q.At)
	case ResolveTypeQuery:
		a.Types, a.Err = s.ResolveType(q.Text, q.At)
	case MembersQuery:
		a.Members, a.Err = s.Members(q.Text, q.At)
		if a.Err == nil && a.Members == nil {
			a.Members = []string{}
		}
	default:
		a.Err = fmt.Errorf("unknown query kind %v", q.Kind)
	}
	a.Diagnostics = s.Diagnostics()
	return a
}
