package dom

// SyncPseudo reconciles the pseudo-child table with the generated content
// requested by the latest cascade pass.
//
// Owners absent from contents lose all synthetic children. For each
// (owner, kind, text) an existing node is updated in place, otherwise a new
// text node parented under the owner is created. Owners whose set ends up
// empty are dropped. Calling SyncPseudo twice with the same input is a no-op
// the second time.
func (d *Document) SyncPseudo(contents map[NodeID]map[PseudoKind]string) {
	for owner := range d.pseudoChildren {
		if _, ok := contents[owner]; !ok {
			d.removeAllPseudo(owner)
		}
	}

	for owner, kinds := range contents {
		if _, ok := d.nodes[owner]; !ok {
			d.removeAllPseudo(owner)
			continue
		}

		current := d.pseudoChildren[owner]
		for kind := range current {
			if _, keep := kinds[kind]; !keep {
				d.removePseudo(owner, kind)
			}
		}

		for kind, text := range kinds {
			d.upsertPseudo(owner, kind, text)
		}

		if len(d.pseudoChildren[owner]) == 0 {
			delete(d.pseudoChildren, owner)
		}
	}
}

func (d *Document) upsertPseudo(owner NodeID, kind PseudoKind, text string) {
	kinds, ok := d.pseudoChildren[owner]
	if !ok {
		kinds = make(map[PseudoKind]NodeID)
		d.pseudoChildren[owner] = kinds
	}
	if id, ok := kinds[kind]; ok {
		if n, ok := d.nodes[id]; ok {
			n.Text = text
			n.HasText = true
			return
		}
	}
	n := &Node{
		ID:      d.nextID,
		Text:    text,
		HasText: true,
		Parent:  owner,
		Pseudo:  kind,
	}
	d.nextID++
	d.nodes[n.ID] = n
	kinds[kind] = n.ID
}

func (d *Document) removePseudo(owner NodeID, kind PseudoKind) {
	kinds, ok := d.pseudoChildren[owner]
	if !ok {
		return
	}
	if id, ok := kinds[kind]; ok {
		delete(d.nodes, id)
		delete(kinds, kind)
	}
	if len(kinds) == 0 {
		delete(d.pseudoChildren, owner)
	}
}

func (d *Document) removeAllPseudo(owner NodeID) {
	for _, id := range d.pseudoChildren[owner] {
		delete(d.nodes, id)
	}
	delete(d.pseudoChildren, owner)
}
