package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "aggregate", "global", "check", "version"} {
		assert.Contains(t, names, want)
	}
	assert.NotEmpty(t, cmd.Version)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "disasterwatch version ")
	assert.Contains(t, out, "commit: ")
}

func TestFormatFlag(t *testing.T) {
	for _, name := range []string{"aggregate", "global", "check"} {
		t.Run(name, func(t *testing.T) {
			cmd := NewRootCmd()
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			flag := sub.Flags().Lookup("format")
			require.NotNil(t, flag)
			assert.Equal(t, "f", flag.Shorthand)
			assert.Equal(t, "json", flag.DefValue)
		})
	}
}

func TestAggregateCmd_ValidatesBeforeLoadingConfig(t *testing.T) {
	_, err := execute(t, "aggregate")
	require.Error(t, err)

	_, err = execute(t, "aggregate", "Austin", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestCheckCmd_PositionFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"lat without lon", []string{"check", "--lat", "10"}, "lat lon"},
		{"lat out of range", []string{"check", "--lat", "95", "--lon", "0"}, "--lat must be within"},
		{"lon out of range", []string{"check", "--lat", "0", "--lon", "-181"}, "--lon must be within"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
