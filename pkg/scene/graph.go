package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/megamini/pkg/dag"
	"github.com/matzehuels/megamini/pkg/dag/transform"
	"github.com/matzehuels/megamini/pkg/expr"
	"github.com/matzehuels/megamini/pkg/observability"
)

// Node metadata keys set on every node of the evaluation graph.
const (
	MetaArmature = "armature"
	MetaFrame    = "frame"
	MetaLabel    = "label"
	MetaFormula  = "formula" // driven channels only
)

// step is one unit of work in an evaluation pass.
type step struct {
	kind    dag.NodeKind
	arm     *armature
	frame   *frame
	path    ChannelPath
	index   int
	driver  *Driver
	formula expr.Formula
}

func channelID(arm, frame string, path ChannelPath, index int) string {
	return fmt.Sprintf("%s/%s.%s[%d]", arm, frame, path, index)
}

func poseID(arm, frame string) string  { return arm + "/" + frame + "#pose" }
func worldID(arm, frame string) string { return arm + "/" + frame + "#world" }

func propID(arm, frame, prop string) string {
	if frame == "" {
		return arm + "#" + prop
	}
	return arm + "/" + frame + "#" + prop
}

// graphBuilder accumulates nodes, edges and steps, keeping the first error.
type graphBuilder struct {
	g     *dag.DAG
	steps map[string]*step
	err   error
}

func (b *graphBuilder) node(id string, kind dag.NodeKind, label string, st step) {
	if b.err != nil {
		return
	}
	meta := dag.Metadata{MetaLabel: label}
	if st.arm != nil {
		meta[MetaArmature] = st.arm.name
	}
	if st.frame != nil {
		meta[MetaFrame] = st.frame.name
	}
	if _, err := b.g.EnsureNode(dag.Node{ID: id, Kind: kind, Meta: meta}); err != nil {
		b.err = err
		return
	}
	if _, ok := b.steps[id]; !ok {
		st.kind = kind
		b.steps[id] = &st
	}
}

func (b *graphBuilder) edge(from, to string) {
	if b.err != nil {
		return
	}
	if err := b.g.AddEdge(dag.Edge{From: from, To: to}); err != nil {
		b.err = fmt.Errorf("edge %s -> %s: %w", from, to, err)
	}
}

var transformPaths = []ChannelPath{PathLocation, PathRotation, PathScale}

// build constructs the evaluation graph and the ordered evaluation plan from
// the current topology. It does not touch the scene's cached graph.
func (s *Scene) build() (*dag.DAG, []step, error) {
	b := &graphBuilder{g: dag.New(dag.Metadata{"cursor": s.cursor}), steps: make(map[string]*step)}

	for _, an := range s.armOrder {
		a := s.armatures[an]
		for _, fn := range a.order {
			f := a.frames[fn]
			pose, world := poseID(a.name, f.name), worldID(a.name, f.name)
			b.node(pose, dag.NodeKindPose, f.name+" pose", step{arm: a, frame: f})
			b.node(world, dag.NodeKindWorld, f.name+" world", step{arm: a, frame: f})
			for _, path := range transformPaths {
				for i := range 3 {
					id := channelID(a.name, f.name, path, i)
					b.node(id, dag.NodeKindChannel, fmt.Sprintf("%s.%s[%d]", f.name, path, i),
						step{arm: a, frame: f, path: path, index: i})
					b.edge(id, pose)
				}
			}
			for i := range f.constraints {
				id := channelID(a.name, f.name, PathInfluence, i)
				b.node(id, dag.NodeKindChannel, fmt.Sprintf("%s.%s[%d]", f.name, PathInfluence, i),
					step{arm: a, frame: f, path: PathInfluence, index: i})
				b.edge(id, pose)
			}
			b.edge(pose, world)
		}
		for _, fn := range a.order {
			f := a.frames[fn]
			if f.parent != "" {
				b.edge(worldID(a.name, f.parent), worldID(a.name, f.name))
			}
			for _, c := range f.constraints {
				b.edge(poseID(a.name, c.Target), poseID(a.name, f.name))
			}
		}
		for _, d := range a.drivers {
			out := channelID(a.name, d.Output.Frame, d.Output.Path, d.Output.Index)
			st, ok := b.steps[out]
			if !ok {
				return nil, nil, fmt.Errorf("%w: %s", ErrInvalidChannel, d.Output)
			}
			f, err := expr.Resolve(d.Formula)
			if err != nil {
				return nil, nil, err
			}
			st.driver, st.formula = &d, f
			if n, ok := b.g.Node(out); ok {
				n.Meta[MetaFormula] = d.Formula
			}
			for _, v := range d.Vars {
				if v.Type == VarSingleProp {
					b.node(propID(a.name, v.Frame, v.Prop), dag.NodeKindProperty, v.Prop,
						step{arm: a, frame: a.frames[v.Frame]})
				}
				for _, in := range inputIDs(a.name, v) {
					b.edge(in, out)
				}
			}
		}
	}
	if b.err != nil {
		return nil, nil, b.err
	}

	order, err := transform.Order(b.g)
	if errors.Is(err, dag.ErrGraphHasCycle) {
		if back := transform.BackEdges(b.g); len(back) > 0 {
			return nil, nil, fmt.Errorf("%w: %s -> %s", ErrDependencyCycle, back[0][0], back[0][1])
		}
		return nil, nil, ErrDependencyCycle
	}
	if err != nil {
		return nil, nil, err
	}

	plan := make([]step, 0, len(order))
	for _, id := range order {
		st := b.steps[id]
		if st.kind == dag.NodeKindProperty || (st.kind == dag.NodeKindChannel && st.driver == nil) {
			continue
		}
		plan = append(plan, *st)
	}
	return b.g, plan, nil
}

// inputIDs returns the graph nodes a variable reads.
func inputIDs(arm string, v Variable) []string {
	switch v.Type {
	case VarSingleProp:
		return []string{propID(arm, v.Frame, v.Prop)}
	case VarTransforms:
		switch v.Space {
		case SpaceLocal:
			return []string{poseID(arm, v.Frame)}
		case SpaceWorld:
			return []string{worldID(arm, v.Frame)}
		default:
			return []string{channelID(arm, v.Frame, v.Path, v.Index)}
		}
	case VarLocDiff:
		return []string{worldID(arm, v.Frame), worldID(arm, v.Other)}
	}
	return nil
}

// Bind attaches a driver to its output channel, replacing any driver already
// there. The binding is rejected, leaving the scene unchanged, when a frame,
// property or formula it names is missing or when it would create a
// dependency cycle.
func (s *Scene) Bind(arm string, d Driver) (err error) {
	defer func() {
		observability.Scene().OnBind(arm, d.Output.String(), d.Formula, err)
	}()

	a, f, err := s.frame(arm, d.Output.Frame)
	if err != nil {
		return err
	}
	if err := checkChannel(f, d.Output.Path, d.Output.Index); err != nil {
		return err
	}
	if d.Output.Path == PathRotation && f.mode != RotationXYZ {
		return fmt.Errorf("%w: %s is %s", ErrUnsupportedRotation, f.name, f.mode)
	}
	if _, err := expr.Resolve(d.Formula); err != nil {
		return err
	}
	seen := make(map[string]bool, len(d.Vars))
	for _, v := range d.Vars {
		if v.Name == "" || seen[v.Name] {
			return fmt.Errorf("%w: variable name %q empty or repeated", ErrInvalidName, v.Name)
		}
		seen[v.Name] = true
		if err := a.checkVar(v); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
	}

	prev := a.drivers
	d.Vars = slices.Clone(d.Vars)
	next := slices.DeleteFunc(slices.Clone(a.drivers), func(x Driver) bool { return x.Output == d.Output })
	a.drivers = append(next, d)
	if _, _, err := s.build(); err != nil {
		a.drivers = prev
		return err
	}
	s.invalidate()
	return nil
}

func (a *armature) checkVar(v Variable) error {
	switch v.Type {
	case VarSingleProp:
		props := a.props
		if v.Frame != "" {
			f, ok := a.frames[v.Frame]
			if !ok {
				return fmt.Errorf("%w: %s/%s", ErrFrameNotFound, a.name, v.Frame)
			}
			props = f.props
		}
		if _, ok := props[v.Prop]; !ok {
			return fmt.Errorf("%w: %s", ErrPropertyNotFound, v.Prop)
		}
	case VarTransforms:
		f, ok := a.frames[v.Frame]
		if !ok {
			return fmt.Errorf("%w: %s/%s", ErrFrameNotFound, a.name, v.Frame)
		}
		switch v.Space {
		case SpaceTransform, SpaceLocal, SpaceWorld:
		default:
			return fmt.Errorf("%w: unknown space %q", ErrInvalidChannel, v.Space)
		}
		return checkChannel(f, v.Path, v.Index)
	case VarLocDiff:
		for _, name := range []string{v.Frame, v.Other} {
			if _, ok := a.frames[name]; !ok {
				return fmt.Errorf("%w: %s/%s", ErrFrameNotFound, a.name, name)
			}
		}
	default:
		return fmt.Errorf("unknown variable type %q", v.Type)
	}
	return nil
}

// Drivers returns the drivers of an armature in binding order.
func (s *Scene) Drivers(arm string) ([]Driver, error) {
	a, err := s.armature(arm)
	if err != nil {
		return nil, err
	}
	out := make([]Driver, len(a.drivers))
	for i, d := range a.drivers {
		d.Vars = slices.Clone(d.Vars)
		out[i] = d
	}
	return out, nil
}

func (s *Scene) evaluate() error {
	if s.stale {
		g, plan, err := s.build()
		if err != nil {
			return err
		}
		s.graph, s.plan, s.stale = g, plan, false
	}
	for i := range s.plan {
		st := &s.plan[i]
		switch st.kind {
		case dag.NodeKindChannel:
			st.runDriver()
		case dag.NodeKindPose:
			st.runPose()
		case dag.NodeKindWorld:
			st.runWorld()
		}
	}
	s.dirty = false
	return nil
}

func (st *step) runDriver() {
	vars := make(expr.Vars, len(st.driver.Vars))
	for _, v := range st.driver.Vars {
		vars[v.Name] = st.arm.read(v)
	}
	value := st.formula(vars)
	if st.path == PathInfluence {
		st.frame.constraints[st.index].Influence = value
		return
	}
	st.frame.basis.vec(st.path)[st.index] = value
}

// runPose applies constraints, in order, on top of the basis.
func (st *step) runPose() {
	f := st.frame
	p := f.basis
	for _, c := range f.constraints {
		target := st.arm.frames[c.Target].pose.Location
		if c.UseOffset {
			p.Location = p.Location.Add(target.Mul(c.Influence))
		} else {
			p.Location = p.Location.Add(target.Sub(p.Location).Mul(c.Influence))
		}
	}
	f.pose = p
}

func (st *step) runWorld() {
	f := st.frame
	parentHead := mgl64.Vec3{}
	parentLocal := mgl64.Ident4()
	if p, ok := st.arm.frames[f.parent]; ok {
		parentHead, parentLocal = p.head, p.local
	}
	rest := f.head.Sub(parentHead)
	f.local = parentLocal.
		Mul4(mgl64.Translate3D(rest[0], rest[1], rest[2])).
		Mul4(f.pose.Matrix())
	loc := st.arm.location
	f.world = mgl64.Translate3D(loc[0], loc[1], loc[2]).Mul4(f.local)
}

// read evaluates one driver variable against the current state.
func (a *armature) read(v Variable) float64 {
	switch v.Type {
	case VarSingleProp:
		if v.Frame == "" {
			return a.props[v.Prop]
		}
		return a.frames[v.Frame].props[v.Prop]
	case VarTransforms:
		f := a.frames[v.Frame]
		switch v.Space {
		case SpaceLocal:
			return f.channelValue(f.pose, v.Path, v.Index)
		case SpaceWorld:
			if v.Path == PathLocation {
				return f.world.Col(3)[v.Index]
			}
			return f.channelValue(f.pose, v.Path, v.Index)
		default:
			return f.channelValue(f.basis, v.Path, v.Index)
		}
	case VarLocDiff:
		p := a.frames[v.Frame].world.Col(3).Vec3()
		q := a.frames[v.Other].world.Col(3).Vec3()
		return p.Sub(q).Len()
	}
	return 0
}

func (f *frame) channelValue(t Transform, path ChannelPath, index int) float64 {
	if path == PathInfluence {
		return f.constraints[index].Influence
	}
	return t.vec(path)[index]
}
