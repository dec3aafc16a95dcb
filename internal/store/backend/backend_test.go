package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aegiswhistle/aegis/internal/config"
)

func TestOpenSQLite(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	st, err := Open(context.Background(), home, config.Config{Backend: config.BackendSQLite})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = st.Close() }()
	if st.Primary.Kind() != "sqlite" || st.Primary.Remote() {
		t.Fatalf("primary: got %s remote=%v", st.Primary.Kind(), st.Primary.Remote())
	}
	if st.Fallback != nil {
		t.Fatal("local backend should have no fallback")
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open(context.Background(), t.TempDir(), config.Config{Backend: "mongo"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
