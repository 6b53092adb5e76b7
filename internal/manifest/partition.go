package manifest

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrPartitionMismatch reports a publisher whose public document is not the
// requiresAuth-filtered view of its full document.
var ErrPartitionMismatch = errors.New("public manifest does not match full manifest partition")

// FilterPublic returns the apps that do not require authentication, in order.
func FilterPublic(m *Manifest) *Manifest {
	public := &Manifest{Apps: []App{}}
	if m == nil {
		return public
	}
	for _, app := range m.Apps {
		if !app.RequiresAuth {
			public.Apps = append(public.Apps, app)
		}
	}
	return public
}

// CheckPartition verifies that public ⊆ full and that filtering full by
// requiresAuth reproduces public exactly, entry by entry.
func CheckPartition(full, public *Manifest) error {
	fullIDs := full.IDSet()
	missing := make(map[string]struct{})
	for _, app := range public.Apps {
		if _, ok := fullIDs[app.ID]; !ok {
			missing[app.ID] = struct{}{}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: public apps missing from full manifest: %v", ErrPartitionMismatch, sortedKeys(missing))
	}

	expected := FilterPublic(full)
	if len(expected.Apps) != len(public.Apps) {
		return fmt.Errorf("%w: expected %d public apps, got %d", ErrPartitionMismatch, len(expected.Apps), len(public.Apps))
	}
	for i := range expected.Apps {
		if !reflect.DeepEqual(expected.Apps[i], public.Apps[i]) {
			return fmt.Errorf("%w: app %q differs between variants", ErrPartitionMismatch, expected.Apps[i].ID)
		}
	}
	return nil
}
