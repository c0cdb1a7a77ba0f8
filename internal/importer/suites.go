package importer

import (
	"context"
	"sort"

	"github.com/lherron/caseq/internal/catalog"
	"github.com/lherron/caseq/internal/domain"
	"github.com/lherron/caseq/internal/names"
)

// suiteGroup holds the descriptors that share one parent path
type suiteGroup struct {
	key         string
	displayPath string
	suites      []domain.SuiteDescriptor
}

// node is a pending suite in the hierarchical walk
type node struct {
	desc   domain.SuiteDescriptor
	parent *catalog.SuiteRef
}

// reconcileSuites creates the suites the catalog does not have yet. Flat
// batches only ever create roots; hierarchical batches are walked parent
// first so every child finds its parent already reconciled.
func (m *merger) reconcileSuites(ctx context.Context, descs []domain.SuiteDescriptor, hierarchical bool) error {
	if !hierarchical {
		return m.reconcileFlat(ctx, descs)
	}
	return m.reconcileTree(ctx, descs)
}

func (m *merger) reconcileFlat(ctx context.Context, descs []domain.SuiteDescriptor) error {
	for _, d := range descs {
		name := names.Clean(d.Name)
		if name == "" {
			m.logger.Debug("skipping suite with blank name")
			continue
		}
		if m.snap.HasSuiteName(name) {
			continue
		}
		if _, err := m.createSuite(ctx, nil, name, d.Description); err != nil {
			return err
		}
	}
	return nil
}

func (m *merger) reconcileTree(ctx context.Context, descs []domain.SuiteDescriptor) error {
	groups := map[string]*suiteGroup{}
	var order []string
	for _, d := range descs {
		if names.Clean(d.Name) == "" {
			m.logger.Debug("skipping suite with blank name", "parent", d.ParentPath)
			continue
		}
		key := names.NormalizePath(d.ParentPath)
		g, ok := groups[key]
		if !ok {
			g = &suiteGroup{key: key, displayPath: d.ParentPath}
			groups[key] = g
			order = append(order, key)
		}
		g.suites = append(g.suites, d)
	}

	done := map[string]bool{}
	if err := m.walk(ctx, groups, done, "", nil); err != nil {
		return err
	}

	// Whatever is left hangs off a parent this batch did not produce. Shallow
	// parents go first so a group whose parent is described by another
	// orphan group finds it created with its own description.
	sort.SliceStable(order, func(i, j int) bool {
		return len(names.SplitPath(order[i])) < len(names.SplitPath(order[j]))
	})
	for _, key := range order {
		if done[key] {
			continue
		}
		g := groups[key]
		parent, ok := m.snap.SuiteByPath(key)
		if !ok {
			ref, ok, err := m.materialize(ctx, g.displayPath)
			if err != nil {
				return err
			}
			if !ok {
				done[key] = true
				m.skipDeep(g.displayPath, len(g.suites))
				continue
			}
			parent = ref
		}
		if err := m.walk(ctx, groups, done, key, &parent); err != nil {
			return err
		}
	}
	return nil
}

// walk reconciles the group under parentKey and every group below it in
// pre-order, using an explicit stack.
func (m *merger) walk(ctx context.Context, groups map[string]*suiteGroup, done map[string]bool, parentKey string, parent *catalog.SuiteRef) error {
	var stack []node
	stack = m.pushGroup(stack, groups, done, parentKey, parent)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		depth := 0
		parentPath := ""
		if n.parent != nil {
			depth = n.parent.Depth + 1
			parentPath = n.parent.Path
		}
		path := names.ChildPath(parentPath, n.desc.Name)

		if depth > domain.MaxSuiteDepth {
			// Children are never pushed, so the subtree goes with it.
			m.skipDeep(path, 1)
			continue
		}

		ref, err := m.ensureSuite(ctx, n.parent, n.desc.Name, n.desc.Description)
		if err != nil {
			return err
		}
		ref.Path = path
		stack = m.pushGroup(stack, groups, done, path, &ref)
	}
	return nil
}

func (m *merger) pushGroup(stack []node, groups map[string]*suiteGroup, done map[string]bool, key string, parent *catalog.SuiteRef) []node {
	g, ok := groups[key]
	if !ok || done[key] {
		return stack
	}
	done[key] = true
	for i := len(g.suites) - 1; i >= 0; i-- {
		stack = append(stack, node{desc: g.suites[i], parent: parent})
	}
	return stack
}

// materialize makes sure every segment of displayPath exists, creating the
// missing ones. ok is false when the path is deeper than a suite may sit.
func (m *merger) materialize(ctx context.Context, displayPath string) (catalog.SuiteRef, bool, error) {
	segments := names.SplitPath(displayPath)
	if len(segments) > domain.MaxSuiteDepth+1 {
		return catalog.SuiteRef{}, false, nil
	}

	var parent *catalog.SuiteRef
	path := ""
	for _, seg := range segments {
		path = names.ChildPath(path, seg)
		ref, ok := m.snap.SuiteByPath(path)
		if !ok {
			var err error
			if ref, err = m.ensureSuite(ctx, parent, seg, ""); err != nil {
				return catalog.SuiteRef{}, false, err
			}
		}
		ref.Path = path
		parent = &ref
	}
	return *parent, true, nil
}

// ensureSuite returns the suite named name under parent, creating it if the
// snapshot does not know it.
func (m *merger) ensureSuite(ctx context.Context, parent *catalog.SuiteRef, name, description string) (catalog.SuiteRef, error) {
	var parentUUID *string
	if parent != nil {
		parentUUID = &parent.UUID
	}
	if ref, ok := m.snap.SuiteByParent(parentUUID, name); ok {
		return ref, nil
	}
	return m.createSuite(ctx, parent, name, description)
}

func (m *merger) createSuite(ctx context.Context, parent *catalog.SuiteRef, name, description string) (catalog.SuiteRef, error) {
	s := &domain.Suite{
		ProjectUUID:        m.snap.ProjectUUID,
		Name:               names.Clean(name),
		Description:        description,
		CreatedAt:          m.now,
		UpdatedAt:          m.now,
		CreatedByActorUUID: m.opts.ActorUUID,
	}
	path := names.NormalizePath(name)
	if parent != nil {
		parentUUID := parent.UUID
		s.ParentUUID = &parentUUID
		s.Depth = parent.Depth + 1
		path = names.ChildPath(parent.Path, name)
	}

	if err := m.w.InsertSuite(ctx, s); err != nil {
		return catalog.SuiteRef{}, &domain.PersistenceError{Op: "create suite", Err: err}
	}
	m.result.SuitesCreated++
	m.logger.Debug("created suite", "id", s.ID, "path", path, "depth", s.Depth)
	return m.snap.RegisterSuite(s, path), nil
}

func (m *merger) skipDeep(path string, n int) {
	m.result.SuitesSkipped += n
	m.logger.Warn("skipping suite beyond maximum depth", "path", path, "max_depth", domain.MaxSuiteDepth, "count", n)
}
