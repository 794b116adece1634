// Package propsync reconciles a persisted, ordered property list with a
// freshly decoded one.
//
// Reconciliation matches records by name. Matched records keep their ID and
// have their mutable fields and position rewritten; unmatched incoming
// records are inserted; persisted records whose name is gone are deleted.
// Running the same incoming list twice produces no mutations the second time.
package propsync

import (
	"context"
	"fmt"
	"sort"

	"github.com/platinummonkey/specbook/pkg/model"
)

// Mutations is the minimal change set that turns an existing list into the
// incoming one
type Mutations struct {
	Updates []*model.Property
	Inserts []*model.Property
	Deletes []*model.Property
}

// Empty reports whether applying m would change nothing
func (m *Mutations) Empty() bool {
	return len(m.Updates) == 0 && len(m.Inserts) == 0 && len(m.Deletes) == 0
}

// Count returns the total number of mutations
func (m *Mutations) Count() int {
	return len(m.Updates) + len(m.Inserts) + len(m.Deletes)
}

// Plan computes the mutations that reconcile existing with incoming. The
// order of incoming defines the new positions. Updated records are copies of
// the existing ones, so existing is never modified. Inserted records take
// parentID and kind from the arguments.
func Plan(parentID int64, kind model.PropertyKind, existing, incoming []*model.Property) (*Mutations, error) {
	if err := model.ValidateProperties(incoming); err != nil {
		return nil, err
	}

	byName := make(map[string]*model.Property, len(existing))
	for _, p := range existing {
		byName[p.Name] = p
	}

	m := &Mutations{}
	kept := make(map[string]bool, len(incoming))

	for position, in := range incoming {
		kept[in.Name] = true

		if current, ok := byName[in.Name]; ok {
			if current.SameValues(in) && current.Position == position {
				continue
			}
			updated := *current
			updated.CopyValues(in)
			updated.Position = position
			m.Updates = append(m.Updates, &updated)
			continue
		}

		inserted := *in
		inserted.ID = 0
		inserted.ParentID = parentID
		inserted.Kind = kind
		inserted.Position = position
		m.Inserts = append(m.Inserts, &inserted)
	}

	for _, p := range existing {
		if !kept[p.Name] {
			m.Deletes = append(m.Deletes, p)
		}
	}

	return m, nil
}

// Writer persists individual property mutations. Implementations are
// expected to run inside a transaction owned by the caller.
type Writer interface {
	InsertProperty(ctx context.Context, p *model.Property) error
	UpdateProperty(ctx context.Context, p *model.Property) error
	DeleteProperty(ctx context.Context, id int64) error
}

// Tx is a Writer that can also read the current list
type Tx interface {
	Writer
	ListProperties(ctx context.Context, parentID int64, kind model.PropertyKind) ([]*model.Property, error)
}

// Apply writes updates and inserts, then deletes. It stops at the first
// error; rolling back is the caller's job.
func Apply(ctx context.Context, w Writer, m *Mutations) error {
	for _, p := range m.Updates {
		if err := w.UpdateProperty(ctx, p); err != nil {
			return fmt.Errorf("failed to update property %q: %w", p.Name, err)
		}
	}
	for _, p := range m.Inserts {
		if err := w.InsertProperty(ctx, p); err != nil {
			return fmt.Errorf("failed to insert property %q: %w", p.Name, err)
		}
	}
	for _, p := range m.Deletes {
		if err := w.DeleteProperty(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to delete property %q: %w", p.Name, err)
		}
	}
	return nil
}

// Sync reads the current list for (parentID, kind), plans against incoming,
// and applies the result through tx
func Sync(ctx context.Context, tx Tx, parentID int64, kind model.PropertyKind, incoming []*model.Property) (*Mutations, error) {
	existing, err := tx.ListProperties(ctx, parentID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s properties: %w", kind, err)
	}

	m, err := Plan(parentID, kind, existing, incoming)
	if err != nil {
		return nil, err
	}

	if err := Apply(ctx, tx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Result returns the list as it reads after m has been applied to existing,
// ordered by position
func Result(existing []*model.Property, m *Mutations) []*model.Property {
	deleted := make(map[int64]bool, len(m.Deletes))
	for _, p := range m.Deletes {
		deleted[p.ID] = true
	}
	updated := make(map[int64]*model.Property, len(m.Updates))
	for _, p := range m.Updates {
		updated[p.ID] = p
	}

	out := make([]*model.Property, 0, len(existing)+len(m.Inserts))
	for _, p := range existing {
		if deleted[p.ID] {
			continue
		}
		if u, ok := updated[p.ID]; ok {
			out = append(out, u)
			continue
		}
		out = append(out, p)
	}
	out = append(out, m.Inserts...)

	sortByPosition(out)
	return out
}

func sortByPosition(props []*model.Property) {
	sort.SliceStable(props, func(i, j int) bool {
		return props[i].Position < props[j].Position
	})
}
