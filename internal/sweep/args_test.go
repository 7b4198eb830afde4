package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paramit/internal/config"
)

func TestParseArgsForms(t *testing.T) {
	t.Run("key=value", func(t *testing.T) {
		params, err := ParseArgs([]string{"--lr=0.01"})
		require.NoError(t, err)
		require.Len(t, params, 1)
		assert.Equal(t, "lr", params[0].Name)
		assert.Equal(t, config.KindFloat, params[0].Kind)
		assert.Equal(t, 0.01, params[0].Values[0].Float())
	})

	t.Run("comma list", func(t *testing.T) {
		params, err := ParseArgs([]string{"--lr=0.01,0.1,1.0"})
		require.NoError(t, err)
		require.Len(t, params[0].Values, 3)
	})

	t.Run("bare juxtaposed values", func(t *testing.T) {
		params, err := ParseArgs([]string{"--color", "blue", "red"})
		require.NoError(t, err)
		require.Len(t, params, 1)
		assert.Equal(t, config.KindString, params[0].Kind)
		assert.Equal(t, "blue", params[0].Values[0].Str())
		assert.Equal(t, "red", params[0].Values[1].Str())
	})

	t.Run("values stop at next option", func(t *testing.T) {
		params, err := ParseArgs([]string{"--bs", "32", "64", "--lr=0.1"})
		require.NoError(t, err)
		require.Len(t, params, 2)
		assert.Len(t, params[0].Values, 2)
		assert.Equal(t, "lr", params[1].Name)
	})

	t.Run("dashes become underscores", func(t *testing.T) {
		params, err := ParseArgs([]string{"--batch-size=64"})
		require.NoError(t, err)
		assert.Equal(t, "batch_size", params[0].Name)
	})

	t.Run("missing value fails", func(t *testing.T) {
		_, err := ParseArgs([]string{"--lr"})
		var uerr *UsageError
		require.ErrorAs(t, err, &uerr)

		_, err = ParseArgs([]string{"--lr", "--bs=1"})
		assert.Error(t, err)
	})

	t.Run("repeated key keeps position, takes later values", func(t *testing.T) {
		params, err := ParseArgs([]string{"--lr=0.1", "--bs=32", "--lr=0.5"})
		require.NoError(t, err)
		require.Len(t, params, 2)
		assert.Equal(t, "lr", params[0].Name)
		assert.Equal(t, 0.5, params[0].Values[0].Float())
	})
}

func TestTypeInferencePriority(t *testing.T) {
	cases := []struct {
		name   string
		tokens []string
		want   config.Kind
	}{
		{"all ints", []string{"--p=1,2,3"}, config.KindInt},
		{"mixed numeric falls to float", []string{"--p=1,2.5"}, config.KindFloat},
		{"scientific notation is float", []string{"--p=1e-3"}, config.KindFloat},
		{"bools", []string{"--p=true,False"}, config.KindBool},
		{"mixed bool and number is string", []string{"--p=true,1"}, config.KindString},
		{"plain strings", []string{"--p=adam,sgd"}, config.KindString},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params, err := ParseArgs(tc.tokens)
			require.NoError(t, err)
			assert.Equal(t, tc.want, params[0].Kind)
		})
	}
}

func TestParseArgsDeclarationOrder(t *testing.T) {
	params, err := ParseArgs([]string{"--z=1", "--a=2", "--m=3"})
	require.NoError(t, err)

	var names []string
	for _, p := range params {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)
}
