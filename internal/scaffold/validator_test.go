package scaffold

import (
	"os"
	"strings"
	"testing"

	"github.com/veritrail/veritrail/internal/config"
)

func TestCheckExisting(t *testing.T) {
	t.Run("no existing file", func(t *testing.T) {
		chdir(t, t.TempDir())
		if err := CheckExisting(); err != nil {
			t.Errorf("CheckExisting() error = %v, want nil", err)
		}
	})

	t.Run("existing veritrail.yml", func(t *testing.T) {
		chdir(t, t.TempDir())
		if err := os.WriteFile(config.DefaultFileName, []byte("version: '1.0'"), 0644); err != nil {
			t.Fatal(err)
		}

		err := CheckExisting()
		if err == nil {
			t.Fatal("CheckExisting() = nil, want error")
		}
		if !strings.Contains(err.Error(), config.DefaultFileName) {
			t.Errorf("error %q should name %s", err, config.DefaultFileName)
		}
		if !strings.Contains(err.Error(), "--force") {
			t.Errorf("error %q should point at --force", err)
		}
	})
}
