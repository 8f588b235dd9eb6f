package graph

func (s *Subgraph) UnresolvedReasonCounts() map[UnresolvedReason]int {
	counts := make(map[UnresolvedReason]int)
	if s == nil {
		return counts
	}
	for _, u := range s.Unresolved {
		reason := u.Reason
		if reason == "" {
			reason = ReasonOther
		}
		counts[reason]++
	}
	return counts
}

func (g *Graph) RelationCounts() map[RelationKind]int {
	counts := make(map[RelationKind]int)
	if g == nil {
		return counts
	}
	for _, e := range g.Edges {
		counts[e.Kind]++
	}
	return counts
}
