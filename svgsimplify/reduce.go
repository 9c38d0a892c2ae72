package svgsimplify

import "github.com/benoitkugler/microsvg/svgtree"

// reduce removes the groups of g having no visual effect:
// empty groups are dropped, and groups with a single child
// are replaced by the child, with the transforms combined.
// Groups with an id are kept, so that they may be exported.
func reduce(g *svgtree.Group) {
	kept := g.Children[:0]
	for _, child := range g.Children {
		if sub, ok := child.(*svgtree.Group); ok {
			reduce(sub)
			if len(sub.Children) == 0 && sub.Filter == nil {
				continue
			}
			if inlinable(sub) {
				inner := sub.Children[0].Common()
				inner.Transform = sub.Transform.Mult(inner.Transform)
				child = sub.Children[0]
			}
		}
		kept = append(kept, child)
	}
	// release the references to the dropped nodes
	for i := len(kept); i < len(g.Children); i++ {
		g.Children[i] = nil
	}
	g.Children = kept
}

func inlinable(g *svgtree.Group) bool {
	return len(g.Children) == 1 && g.ID == "" && !g.Isolated() && g.Clip == nil
}
