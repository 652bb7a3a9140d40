package cli

import "testing"

func TestVersionNotEmpty(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestExecuteVersion(t *testing.T) {
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"init", "collect", "explain", "title", "forget", "history", "subscribe", "doctor", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestConfigDirFlagDefault(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config-dir")
	if flag == nil {
		t.Fatal("--config-dir not defined")
	}
	if flag.DefValue != DefaultConfigDir {
		t.Errorf("default = %q, want %q", flag.DefValue, DefaultConfigDir)
	}
}
