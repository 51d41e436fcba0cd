package cli

import "testing"

func TestCaptionsPreprocessFlagDefaultsOn(t *testing.T) {
	flag := captionsCmd.Flags().Lookup("preprocess")
	if flag == nil {
		t.Fatal("captions command has no preprocess flag")
	}
	if flag.DefValue != "true" {
		t.Errorf("preprocess should default to true, got %s", flag.DefValue)
	}
}
