package upsert

import (
	"context"
	"errors"
	"sync"
	"testing"

	"event_leads_backend/platform/apperr"
)

var errDuplicate = errors.New("duplicate key")

func isDup(err error) bool { return errors.Is(err, errDuplicate) }

func TestResolveReturnsExistingWithoutInserting(t *testing.T) {
	inserted := false

	got, created, err := Resolve(context.Background(),
		func(context.Context) (string, bool, error) { return "existing", true, nil },
		func(context.Context) (string, error) { inserted = true; return "new", nil },
		isDup,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("expected created=false for existing row")
	}
	if got != "existing" {
		t.Fatalf("expected existing row, got %q", got)
	}
	if inserted {
		t.Fatalf("insert must not run when find succeeds")
	}
}

func TestResolveInsertsWhenAbsent(t *testing.T) {
	got, created, err := Resolve(context.Background(),
		func(context.Context) (string, bool, error) { return "", false, nil },
		func(context.Context) (string, error) { return "new", nil },
		isDup,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true")
	}
	if got != "new" {
		t.Fatalf("expected inserted row, got %q", got)
	}
}

func TestResolveRecoversWinnerOnDuplicate(t *testing.T) {
	calls := 0
	find := func(context.Context) (string, bool, error) {
		calls++
		if calls == 1 {
			return "", false, nil
		}
		return "winner", true, nil
	}

	got, created, err := Resolve(context.Background(),
		find,
		func(context.Context) (string, error) { return "", errDuplicate },
		isDup,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("the losing writer must not report created=true")
	}
	if got != "winner" {
		t.Fatalf("expected winner's row, got %q", got)
	}
}

func TestResolveDuplicateWithoutWinnerIsInternal(t *testing.T) {
	_, _, err := Resolve(context.Background(),
		func(context.Context) (string, bool, error) { return "", false, nil },
		func(context.Context) (string, error) { return "", errDuplicate },
		isDup,
	)
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if !errors.Is(err, errDuplicate) {
		t.Fatalf("expected original insert failure to be wrapped, got %v", err)
	}
}

func TestResolveNonDuplicateInsertErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")

	_, _, err := Resolve(context.Background(),
		func(context.Context) (string, bool, error) { return "", false, nil },
		func(context.Context) (string, error) { return "", boom },
		isDup,
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected insert error to propagate, got %v", err)
	}
}

// Simulates N concurrent resolvers against a store that admits exactly one
// insert per key. All callers must converge on the same value.
func TestResolveConcurrentCallersConverge(t *testing.T) {
	const n = 32

	var mu sync.Mutex
	var stored *string

	find := func(context.Context) (string, bool, error) {
		mu.Lock()
		defer mu.Unlock()
		if stored == nil {
			return "", false, nil
		}
		return *stored, true, nil
	}
	insert := func(id string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if stored != nil {
				return "", errDuplicate
			}
			stored = &id
			return id, nil
		}
	}

	results := make([]string, n)
	createdCount := 0

	var wg sync.WaitGroup
	var resMu sync.Mutex
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			got, created, err := Resolve(context.Background(), find, insert(id), isDup)
			resMu.Lock()
			defer resMu.Unlock()
			if err != nil {
				t.Errorf("resolver %d failed: %v", i, err)
				return
			}
			results[i] = got
			if created {
				createdCount++
			}
		}(i)
	}
	wg.Wait()

	if createdCount != 1 {
		t.Fatalf("expected exactly one insert, got %d", createdCount)
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d observed %q, caller 0 observed %q", i, results[i], results[0])
		}
	}
}
