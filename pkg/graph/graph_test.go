package graph

import (
	"reflect"
	"testing"
)

func TestGraphBasics(t *testing.T) {
	g := NewGraph()

	g.EnsureNode("name", KindValue)
	g.EnsureNode("title", KindValue)
	g.EnsureNode("hero", KindDefinition)

	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
	if n := g.EnsureNode("name", KindDefinition); n.Kind != KindValue {
		t.Errorf("EnsureNode replaced existing node kind with %s", n.Kind)
	}

	g.AddRef("hero", "name", "set")
	g.AddRef("hero", "name", "set")
	g.AddRef("hero", "title", "alternative")
	g.AddRef("hero", "ghost", "set")

	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", g.EdgeCount())
	}
	if w := g.Outbound["hero"]["name"].Weight; w != 2 {
		t.Errorf("repeated ref weight = %d, want 2", w)
	}
	if r := g.Outbound["hero"]["title"].Relation; r != "ALTERNATIVE" {
		t.Errorf("Relation = %s, want ALTERNATIVE", r)
	}
}

func TestTargetsSources(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c"} {
		g.EnsureNode(id, KindValue)
	}
	g.AddRef("a", "c", "set")
	g.AddRef("a", "b", "set")
	g.AddRef("b", "c", "set")

	if got := g.Targets("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Targets(a) = %v", got)
	}
	if got := g.Sources("c"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Sources(c) = %v", got)
	}
	if got := g.Targets("c"); got != nil {
		t.Errorf("Targets(c) = %v, want nil", got)
	}
}

func TestOrphans(t *testing.T) {
	g := NewGraph()
	g.EnsureNode("a", KindValue)
	g.EnsureNode("b", KindValue)
	g.EnsureNode("lonely", KindValue)
	g.AddRef("a", "b", "set")

	if got := g.Orphans(); !reflect.DeepEqual(got, []string{"lonely"}) {
		t.Errorf("Orphans = %v", got)
	}
}

func TestCycles(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "loop", "tail", "x", "y"} {
		g.EnsureNode(id, KindValue)
	}
	// a -> b -> c -> a, loop -> loop, tail -> a, x -> y
	g.AddRef("a", "b", "set")
	g.AddRef("b", "c", "set")
	g.AddRef("c", "a", "set")
	g.AddRef("loop", "loop", "set")
	g.AddRef("tail", "a", "set")
	g.AddRef("x", "y", "set")

	want := [][]string{{"a", "b", "c"}, {"loop"}}
	if got := g.Cycles(); !reflect.DeepEqual(got, want) {
		t.Errorf("Cycles = %v, want %v", got, want)
	}
}

func TestCyclesAcyclic(t *testing.T) {
	g := NewGraph()
	g.EnsureNode("a", KindValue)
	g.EnsureNode("b", KindValue)
	g.AddRef("a", "b", "set")

	if got := g.Cycles(); got != nil {
		t.Errorf("Cycles = %v, want nil", got)
	}
}
