package docstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docvault/internal/docstore"
)

// Empty env isolates tests from the host's HOME and XDG_CONFIG_HOME,
// so no global config is ever picked up.
func noEnv() map[string]string {
	return map[string]string{}
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func Test_Load_Config_When_No_Files_Exist(t *testing.T) {
	t.Parallel()

	cfg, sources, err := docstore.LoadConfig(t.TempDir(), "", docstore.Config{}, false, noEnv())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got, want := cfg.StorePath, docstore.DefaultStoreName; got != want {
		t.Errorf("StorePath=%q, want=%q", got, want)
	}

	if sources.Global != "" || sources.Project != "" {
		t.Errorf("sources=%+v, want none", sources)
	}
}

func Test_Load_Config_When_Project_File_Uses_JSONC(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, docstore.ConfigFileName, `{
		// Store docs next to the code they describe.
		"store_path": "docs/store.json", // trailing comment
	}`)

	cfg, sources, err := docstore.LoadConfig(dir, "", docstore.Config{}, false, noEnv())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got, want := cfg.StorePath, "docs/store.json"; got != want {
		t.Errorf("StorePath=%q, want=%q", got, want)
	}

	if got, want := sources.Project, filepath.Join(dir, docstore.ConfigFileName); got != want {
		t.Errorf("Project source=%q, want=%q", got, want)
	}
}

func Test_Load_Config_When_Global_Config_Present(t *testing.T) {
	t.Parallel()

	configHome := t.TempDir()
	globalDir := filepath.Join(configHome, "docvault")

	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatal(err)
	}

	writeConfig(t, globalDir, "config.json", `{"store_path": "global-store.json"}`)

	env := map[string]string{"XDG_CONFIG_HOME": configHome}

	t.Run("global applies when project is silent", func(t *testing.T) {
		t.Parallel()

		cfg, sources, err := docstore.LoadConfig(t.TempDir(), "", docstore.Config{}, false, env)
		if err != nil {
			t.Fatal(err)
		}

		if got, want := cfg.StorePath, "global-store.json"; got != want {
			t.Errorf("StorePath=%q, want=%q", got, want)
		}

		if sources.Global == "" {
			t.Error("Global source not recorded")
		}
	})

	t.Run("project overrides global", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeConfig(t, dir, docstore.ConfigFileName, `{"store_path": "project-store.json"}`)

		cfg, _, err := docstore.LoadConfig(dir, "", docstore.Config{}, false, env)
		if err != nil {
			t.Fatal(err)
		}

		if got, want := cfg.StorePath, "project-store.json"; got != want {
			t.Errorf("StorePath=%q, want=%q", got, want)
		}
	})
}

func Test_Load_Config_When_Explicit_File_Missing(t *testing.T) {
	t.Parallel()

	_, _, err := docstore.LoadConfig(t.TempDir(), "no-such-config.json", docstore.Config{}, false, noEnv())

	if !errors.Is(err, docstore.ErrConfigFileNotFound) {
		t.Fatalf("err=%v, want ErrConfigFileNotFound", err)
	}
}

func Test_Load_Config_When_Store_Path_Explicitly_Empty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, docstore.ConfigFileName, `{"store_path": ""}`)

	_, _, err := docstore.LoadConfig(dir, "", docstore.Config{}, false, noEnv())

	if !errors.Is(err, docstore.ErrConfigInvalid) {
		t.Fatalf("err=%v, want ErrConfigInvalid", err)
	}

	if !errors.Is(err, docstore.ErrStorePathEmpty) {
		t.Fatalf("err=%v, want ErrStorePathEmpty", err)
	}
}

func Test_Load_Config_When_File_Is_Malformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, docstore.ConfigFileName, `{"store_path": [1,2]}`)

	_, _, err := docstore.LoadConfig(dir, "", docstore.Config{}, false, noEnv())

	if !errors.Is(err, docstore.ErrConfigInvalid) {
		t.Fatalf("err=%v, want ErrConfigInvalid", err)
	}
}

func Test_Load_Config_When_CLI_Override_Set(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, docstore.ConfigFileName, `{"store_path": "from-file.json"}`)

	cfg, _, err := docstore.LoadConfig(
		dir, "", docstore.Config{StorePath: "from-cli.json"}, true, noEnv(),
	)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := cfg.StorePath, "from-cli.json"; got != want {
		t.Errorf("StorePath=%q, want=%q", got, want)
	}
}

func Test_Load_Config_When_Explicit_File_Provided(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Both a default project config and an explicit one: the explicit
	// file wins.
	writeConfig(t, dir, docstore.ConfigFileName, `{"store_path": "default.json"}`)
	writeConfig(t, dir, "custom.json", `{"store_path": "explicit.json"}`)

	cfg, sources, err := docstore.LoadConfig(dir, "custom.json", docstore.Config{}, false, noEnv())
	if err != nil {
		t.Fatal(err)
	}

	if got, want := cfg.StorePath, "explicit.json"; got != want {
		t.Errorf("StorePath=%q, want=%q", got, want)
	}

	if got, want := sources.Project, filepath.Join(dir, "custom.json"); got != want {
		t.Errorf("Project source=%q, want=%q", got, want)
	}
}
