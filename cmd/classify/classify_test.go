package classify_test

import (
	"bytes"
	"context"
	"testing"

	"fjacquet/bankflow/cmd/classify"
	"fjacquet/bankflow/cmd/root"
	"fjacquet/bankflow/internal/config"
	"fjacquet/bankflow/internal/container"
	"fjacquet/bankflow/internal/logging"
	"fjacquet/bankflow/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	root.Cmd.AddCommand(classify.Cmd)
}

func execute(t *testing.T, mem *store.MemoryStore, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.CSV.Delimiter = ","
	cfg.Store.Driver = config.DriverMemory

	c, err := container.NewContainer(context.Background(), cfg,
		container.WithStore(mem), container.WithLogger(logging.NewMockLogger()), container.WithoutSeeding())
	require.NoError(t, err)
	root.UseContainer(c)

	var buf bytes.Buffer
	root.Cmd.SetOut(&buf)
	root.Cmd.SetErr(&buf)
	root.Cmd.SetArgs(args)
	err = root.Cmd.Execute()
	return buf.String(), err
}

func TestClassifyCommand_Metadata(t *testing.T) {
	assert.Equal(t, "classify", classify.Cmd.Use)
	assert.Contains(t, classify.Cmd.Short, "Categorize")
	assert.NotNil(t, classify.Cmd.RunE)
}

func TestClassifyCommand_Flags(t *testing.T) {
	descFlag := classify.Cmd.Flags().Lookup("description")
	require.NotNil(t, descFlag)
	assert.Equal(t, "d", descFlag.Shorthand)

	dirFlag := classify.Cmd.Flags().Lookup("direction")
	require.NotNil(t, dirFlag)
	assert.Equal(t, "t", dirFlag.Shorthand)
	assert.Equal(t, "debit", dirFlag.DefValue)
}

func TestClassifyCommand_Run(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "debit rule match",
			args: []string{"classify", "-d", "Albert Heijn 1234", "-t", "debit"},
			want: "Food & Groceries -> Groceries\n",
		},
		{
			name: "credit rule match",
			args: []string{"classify", "-d", "Salary ACME", "-t", "credit"},
			want: "Income -> Salary\n",
		},
		{
			name: "unmatched debit falls back",
			args: []string{"classify", "-d", "zzz unknown", "-t", "debit"},
			want: "Miscellaneous -> Other\n",
		},
		{
			name:    "invalid direction",
			args:    []string{"classify", "-d", "x", "-t", "sideways"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, store.NewMemoryStore(), tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}
